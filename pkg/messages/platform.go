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

package messages

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"
)

// NewPlatformInfo captures the platform snapshot for this process. The header
// is left for the sender to stamp. The field names follow the wire schema,
// which predates this implementation; the runtime fields describe the Go
// toolchain that built the process.
func NewPlatformInfo() *PlatformInfo {
	execPrefix := ""
	if exe, err := os.Executable(); err == nil {
		execPrefix = filepath.Dir(exe)
	}

	info := &PlatformInfo{
		Python: PythonInfo{
			Compiler:       runtime.Compiler,
			Implementation: "go",
			Version:        runtime.Version(),
			ExecPrefix:     execPrefix,
			IsConda:        isConda(execPrefix),
		},
		Host:      hostInfo(),
		StartTime: Timestamp(time.Now()),
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range build.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Python.Revision = setting.Value
				if len(setting.Value) >= 7 {
					info.Python.BuildNumber = setting.Value[:7]
				}
			case "vcs.time":
				info.Python.BuildDate = setting.Value
			}
		}
	}
	return info
}

func isConda(execPrefix string) bool {
	if execPrefix == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(execPrefix, "conda-meta"))
	return err == nil
}

func byteOrder() string {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	if b[0] == 1 {
		return "little"
	}
	return "big"
}
