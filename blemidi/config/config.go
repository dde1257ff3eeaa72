/*
Copyright (c) The go-blemidi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config holds blemidi-bridge's static and dynamic configuration:
// StaticConfig is set on the command line at startup, DynamicConfig holds
// the runtime tunables loaded from a YAML file.
package config

import (
	"errors"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// errInvalidMTU is returned by DynamicConfig.Sanity for an MTU below the
// protocol's 5-byte floor.
var errInvalidMTU = errors.New("config: mtu must be >= 5")

// StaticConfig is set once at process start and requires a restart to
// change: transport selection, ports, log level.
type StaticConfig struct {
	Device         string
	LogLevel       string
	MetricsAddr    string
	PidFile        string
	ProfilePath    string
	DynamicConfigPath string
}

// DynamicConfig is the subset of configuration kept in a YAML file rather
// than on the command line. blemidi-bridge reads it once at startup; it
// does not reload it while running.
type DynamicConfig struct {
	// MTU is the negotiated BLE attribute MTU; the packetizer's working
	// buffer capacity is MTU-3.
	MTU int
	// FlushTimeout bounds how long a partially-filled packet may dwell
	// before being flushed unconditionally.
	FlushTimeout time.Duration
	// DedupeWindow is how many recent SysEx payload hashes to remember
	// for advisory duplicate detection; 0 disables it.
	DedupeWindow int
	// EventFilter is a govaluate boolean expression (see package
	// eventfilter). It is stored and round-tripped here; blemidi-bridge
	// does not apply it to received events.
	EventFilter string
}

// Sanity validates a DynamicConfig's invariants.
func (dc *DynamicConfig) Sanity() error {
	if dc.MTU < 5 {
		return errInvalidMTU
	}
	return nil
}

// ReadDynamicConfig loads and validates a DynamicConfig from a YAML file.
func ReadDynamicConfig(path string) (*DynamicConfig, error) {
	dc := &DynamicConfig{}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, dc); err != nil {
		return nil, err
	}
	if err := dc.Sanity(); err != nil {
		return nil, err
	}
	return dc, nil
}

// Write serializes dc as YAML to path.
func (dc *DynamicConfig) Write(path string) error {
	d, err := yaml.Marshal(dc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0644)
}
