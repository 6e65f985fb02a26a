// Copyright 2026 The OpenAir Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "co2mon.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadMonitorConfigFull(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
device = "/dev/ttyUSB3"
interval = "30s"
extended = false
debug = true

[mqtt]
broker = "tcp://broker.local:1883"
topic = "office/co2"
client_id = "office-co2mon"
qos = 1
`)

	cfg, err := loadMonitorConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB3", cfg.DevicePath)
	require.Equal(t, 30*time.Second, cfg.Interval)
	require.False(t, cfg.Extended)
	require.True(t, cfg.Debug)
	require.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	require.Equal(t, "office/co2", cfg.MQTT.Topic)
	require.Equal(t, "office-co2mon", cfg.MQTT.ClientID)
	require.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestLoadMonitorConfigDefaults(t *testing.T) {
	t.Parallel()

	// An empty file keeps every default.
	cfg, err := loadMonitorConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, defaultMonitorConfig(), cfg)
	require.Equal(t, 5*time.Second, cfg.Interval)
	require.True(t, cfg.Extended)
	require.Equal(t, "co2mon/reading", cfg.MQTT.Topic)
	require.Equal(t, "co2mon", cfg.MQTT.ClientID)
}

func TestLoadMonitorConfigPartialMQTT(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[mqtt]
broker = "tcp://broker.local:1883"
`)

	cfg, err := loadMonitorConfig(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	require.Equal(t, "co2mon/reading", cfg.MQTT.Topic)
	require.Equal(t, byte(0), cfg.MQTT.QoS)
}

func TestLoadMonitorConfigRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		contents string
		wantMsg  string
	}{
		{
			name:     "MalformedInterval",
			contents: `interval = "soon"`,
			wantMsg:  "parse interval",
		},
		{
			name:     "NonPositiveInterval",
			contents: `interval = "0s"`,
			wantMsg:  "interval must be positive",
		},
		{
			name: "QoSOutOfRange",
			contents: `[mqtt]
qos = 3`,
			wantMsg: "qos must be 0, 1 or 2",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadMonitorConfig(writeConfig(t, tt.contents))
			require.ErrorContains(t, err, tt.wantMsg)
		})
	}
}

func TestLoadMonitorConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadMonitorConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
