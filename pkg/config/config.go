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

// Package config loads YAML deployment configuration for the router and for
// node-side clients. Heartbeat lifetimes, sweep cadence, and call deadlines
// are deployment parameters, never constants baked into the router.
package config

import (
	"fmt"
	"math/big"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Router holds the router deployment configuration.
// Durations are expressed in seconds to match the wire timestamps.
type Router struct {
	// Host is the bind host for the router transport
	Host string `yaml:"host"`
	// Port is the bind port. 0 selects the username derived default port.
	Port int `yaml:"port"`

	// TimeToLiveS is how long a node may go without a heartbeat before it is
	// evicted from every topic.
	TimeToLiveS float64 `yaml:"time_to_live_s"`
	// SweepIntervalS is the cadence of the eviction sweep. Call deadlines are
	// checked at the same cadence.
	SweepIntervalS float64 `yaml:"sweep_interval_s"`
	// RPCTimeoutS is the deadline for a remote service call to produce a reply.
	RPCTimeoutS float64 `yaml:"rpc_timeout_s"`
	// BroadcastIntervalS is the cadence of router_alive / traffic_report broadcasts.
	BroadcastIntervalS float64 `yaml:"broadcast_interval_s"`

	LogLevel string `yaml:"log_level"`
}

// Client holds the node-side client configuration.
type Client struct {
	RouterHost string `yaml:"router_host"`
	RouterPort int    `yaml:"router_port"`

	// HeartbeatIntervalS is the cadence of the heartbeat service
	HeartbeatIntervalS float64 `yaml:"heartbeat_interval_s"`
	// RPCTimeoutS bounds how long a proxy call waits on a reply
	RPCTimeoutS float64 `yaml:"rpc_timeout_s"`

	LogLevel string `yaml:"log_level"`
}

// DefaultRouter returns the router configuration defaults
func DefaultRouter() Router {
	return Router{
		Host:               "*",
		Port:               0,
		TimeToLiveS:        10,
		SweepIntervalS:     1,
		RPCTimeoutS:        10,
		BroadcastIntervalS: 30,
		LogLevel:           "info",
	}
}

// DefaultClient returns the client configuration defaults
func DefaultClient() Client {
	return Client{
		RouterHost:         "127.0.0.1",
		RouterPort:         0,
		HeartbeatIntervalS: 1,
		RPCTimeoutS:        10,
		LogLevel:           "info",
	}
}

// LoadRouter reads the YAML file at path over the defaults.
// A missing file is not an error: the defaults are returned as is.
func LoadRouter(path string) (Router, error) {
	cfg := DefaultRouter()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadClient reads the YAML file at path over the defaults.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := loadYAML(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, out)
}

// Validate checks that every configured duration is positive
func (c Router) Validate() error {
	for name, value := range map[string]float64{
		"time_to_live_s":       c.TimeToLiveS,
		"sweep_interval_s":     c.SweepIntervalS,
		"rpc_timeout_s":        c.RPCTimeoutS,
		"broadcast_interval_s": c.BroadcastIntervalS,
	} {
		if value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", name, value)
		}
	}
	return nil
}

// TimeToLive returns TimeToLiveS as a duration
func (c Router) TimeToLive() time.Duration {
	return seconds(c.TimeToLiveS)
}

// SweepInterval returns SweepIntervalS as a duration
func (c Router) SweepInterval() time.Duration {
	return seconds(c.SweepIntervalS)
}

// RPCTimeout returns RPCTimeoutS as a duration
func (c Router) RPCTimeout() time.Duration {
	return seconds(c.RPCTimeoutS)
}

// BroadcastInterval returns BroadcastIntervalS as a duration
func (c Router) BroadcastInterval() time.Duration {
	return seconds(c.BroadcastIntervalS)
}

// HeartbeatInterval returns HeartbeatIntervalS as a duration
func (c Client) HeartbeatInterval() time.Duration {
	return seconds(c.HeartbeatIntervalS)
}

// RPCTimeout returns RPCTimeoutS as a duration
func (c Client) RPCTimeout() time.Duration {
	return seconds(c.RPCTimeoutS)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// DefaultPort derives the deployment port from the current username, so that
// every process of one user lands on the same router without coordination.
// The username is left padded to exactly 16 bytes, read as a UUID, and folded
// into the unprivileged port range.
func DefaultPort() int {
	name := "unknown"
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return PortForUser(name)
}

// PortForUser derives a stable port in [1024, 9999] for the given username
func PortForUser(name string) int {
	// some usernames are long (svc_mfishoperator); a UUID wants exactly 16 bytes
	for len(name) < 16 {
		name = "0" + name
	}
	var raw [16]byte
	copy(raw[:], name[:16])
	id, err := uuid.FromBytes(raw[:])
	if err != nil {
		// unreachable: FromBytes only fails on length mismatch
		return 1024
	}
	n := new(big.Int).SetBytes(id[:])
	return int(new(big.Int).Mod(n, big.NewInt(8976)).Int64()) + 1024
}
