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

package polling

import "time"

// Config holds session configuration options.
type Config struct {
	// Interval is the delay between scheduling ticks. Each tick advances
	// the in-flight exchange by up to MaxStepsPerTick poll steps.
	Interval time.Duration

	// MaxStepsPerTick bounds how many poll steps one tick may take, so a
	// sensor that never answers cannot monopolize the loop.
	MaxStepsPerTick int

	// ReadTimeout is the maximum wall-clock time one reading may take
	// before the exchange is abandoned and restarted. Zero disables the
	// timeout.
	ReadTimeout time.Duration
}

// DefaultConfig returns the default session configuration. The sensor
// updates its measurement roughly once per second, so polling faster
// than that only rereads stale values.
func DefaultConfig() *Config {
	return &Config{
		Interval:        5 * time.Second,
		MaxStepsPerTick: 256,
		ReadTimeout:     2 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.Interval <= 0 {
		out.Interval = def.Interval
	}
	if out.MaxStepsPerTick <= 0 {
		out.MaxStepsPerTick = def.MaxStepsPerTick
	}
	return &out
}
