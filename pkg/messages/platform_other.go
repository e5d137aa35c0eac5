// Copyright (c) 2025 Allen Institute
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !unix

package messages

import (
	"os"
	"runtime"
)

func hostInfo() HostInfo {
	hostname, _ := os.Hostname()
	return HostInfo{
		Machine:     runtime.GOARCH,
		Node:        hostname,
		Platform:    runtime.GOOS + "-" + runtime.GOARCH,
		Processor:   runtime.GOARCH,
		System:      runtime.GOOS,
		SysPlatform: runtime.GOOS,
		ByteOrder:   byteOrder(),
	}
}
