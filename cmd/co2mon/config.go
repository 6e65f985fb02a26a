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
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type mqttConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

type monitorConfig struct {
	DevicePath string
	Interval   time.Duration
	Extended   bool
	Debug      bool
	MQTT       mqttConfig
}

func defaultMonitorConfig() monitorConfig {
	return monitorConfig{
		Interval: 5 * time.Second,
		Extended: true,
		MQTT: mqttConfig{
			Topic:    "co2mon/reading",
			ClientID: "co2mon",
		},
	}
}

type fileConfig struct {
	Device   string `toml:"device"`
	Interval string `toml:"interval"`
	Extended bool   `toml:"extended"`
	Debug    bool   `toml:"debug"`

	MQTT struct {
		Broker   string `toml:"broker"`
		Topic    string `toml:"topic"`
		ClientID string `toml:"client_id"`
		QoS      int    `toml:"qos"`
	} `toml:"mqtt"`
}

func loadMonitorConfig(path string) (monitorConfig, error) {
	cfg := defaultMonitorConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return monitorConfig{}, fmt.Errorf("load co2mon config: %w", err)
	}

	if meta.IsDefined("device") {
		cfg.DevicePath = strings.TrimSpace(raw.Device)
	}

	if meta.IsDefined("interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Interval))
		if err != nil {
			return monitorConfig{}, fmt.Errorf("parse interval: %w", err)
		}
		if d <= 0 {
			return monitorConfig{}, fmt.Errorf("interval must be positive, got %s", d)
		}
		cfg.Interval = d
	}

	if meta.IsDefined("extended") {
		cfg.Extended = raw.Extended
	}

	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}

	if meta.IsDefined("mqtt", "broker") {
		cfg.MQTT.Broker = strings.TrimSpace(raw.MQTT.Broker)
	}

	if meta.IsDefined("mqtt", "topic") {
		topic := strings.TrimSpace(raw.MQTT.Topic)
		if topic != "" {
			cfg.MQTT.Topic = topic
		}
	}

	if meta.IsDefined("mqtt", "client_id") {
		id := strings.TrimSpace(raw.MQTT.ClientID)
		if id != "" {
			cfg.MQTT.ClientID = id
		}
	}

	if meta.IsDefined("mqtt", "qos") {
		if raw.MQTT.QoS < 0 || raw.MQTT.QoS > 2 {
			return monitorConfig{}, fmt.Errorf("mqtt qos must be 0, 1 or 2, got %d", raw.MQTT.QoS)
		}
		cfg.MQTT.QoS = byte(raw.MQTT.QoS)
	}

	return cfg, nil
}
