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

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AllenNeuralDynamics/mpetk/pkg/config"
)

func TestLoadRouter_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.LoadRouter(filepath.Join(t.TempDir(), "no_such_file.yml"))
	if err != nil {
		t.Fatalf("a missing config file should not be an error : %v", err)
	}
	defaults := config.DefaultRouter()
	if cfg != defaults {
		t.Errorf("expected defaults, got : %+v", cfg)
	}
	if cfg.TimeToLive() != 10*time.Second {
		t.Errorf("default time_to_live_s should be 10s : %v", cfg.TimeToLive())
	}
}

func TestLoadRouter_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yml")
	doc := []byte("time_to_live_s: 2.5\nsweep_interval_s: 0.25\nport: 4242\n")
	if err := os.WriteFile(path, doc, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadRouter(path)
	if err != nil {
		t.Fatalf("LoadRouter failed : %v", err)
	}
	if cfg.TimeToLiveS != 2.5 {
		t.Errorf("time_to_live_s was not overlaid : %v", cfg.TimeToLiveS)
	}
	if cfg.SweepInterval() != 250*time.Millisecond {
		t.Errorf("sweep_interval_s was not overlaid : %v", cfg.SweepInterval())
	}
	if cfg.Port != 4242 {
		t.Errorf("port was not overlaid : %v", cfg.Port)
	}
	// untouched keys keep their defaults
	if cfg.RPCTimeoutS != config.DefaultRouter().RPCTimeoutS {
		t.Errorf("rpc_timeout_s should keep its default : %v", cfg.RPCTimeoutS)
	}
}

func TestLoadRouter_RejectsNonPositiveDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yml")
	if err := os.WriteFile(path, []byte("time_to_live_s: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.LoadRouter(path); err == nil {
		t.Error("a zero time_to_live_s should be rejected")
	}
}

func TestPortForUser(t *testing.T) {
	port := config.PortForUser("svc_mfishoperator")
	if port < 1024 || port > 9999 {
		t.Errorf("derived port out of range : %v", port)
	}
	if port != config.PortForUser("svc_mfishoperator") {
		t.Error("port derivation must be stable for a username")
	}
	if config.PortForUser("alice") == config.PortForUser("bob") {
		t.Log("hash collision between test usernames; derivation is still valid")
	}
	if config.DefaultPort() < 1024 {
		t.Errorf("default port out of range : %v", config.DefaultPort())
	}
}
