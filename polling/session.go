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

// Package polling provides a host-side scheduling loop that drives the
// non-blocking sensor handle to completion on a tick interval and
// delivers readings through callbacks.
package polling

import (
	"context"
	"errors"
	"time"

	mhz19 "github.com/openairproject/go-mhz19"
	"github.com/openairproject/go-mhz19/internal/syncutil"
)

// ErrReadTimeout indicates one reading exceeded Config.ReadTimeout and
// the exchange was abandoned.
var ErrReadTimeout = errors.New("sensor reading timed out")

// Reading is one delivered measurement.
type Reading struct {
	At             time.Time
	CO2PPM         uint16
	TemperatureC   int
	HasTemperature bool
}

// pollFunc advances the underlying composite operation by one step.
type pollFunc func() (Reading, mhz19.PollStatus, error)

// Session continuously reads a sensor. Callbacks run on the session's
// goroutine; a slow callback delays the next reading, never corrupts it.
type Session struct {
	OnReading func(Reading)
	OnError   func(error)

	config *Config
	sensor mhz19.Sensor
	poll   pollFunc

	mu      syncutil.Mutex
	cancel  context.CancelFunc
	started time.Time // start of the in-flight exchange, zero when idle
}

// NewSession creates a session reading CO2 concentration from any
// dialect.
func NewSession(sensor mhz19.Sensor, config *Config) *Session {
	s := &Session{config: config.withDefaults(), sensor: sensor}
	s.poll = func() (Reading, mhz19.PollStatus, error) {
		co2, status, err := sensor.ReadCO2PPM()
		return Reading{At: time.Now(), CO2PPM: co2}, status, err
	}
	return s
}

// NewExtendedSession creates a session reading CO2 and temperature from
// an extended-dialect handle.
func NewExtendedSession(device *mhz19.ExtendedDevice, config *Config) *Session {
	s := &Session{config: config.withDefaults(), sensor: device}
	s.poll = func() (Reading, mhz19.PollStatus, error) {
		co2, temperature, status, err := device.ReadCO2AndTemperature()
		return Reading{
			At:             time.Now(),
			CO2PPM:         co2,
			TemperatureC:   temperature,
			HasTemperature: true,
		}, status, err
	}
	return s
}

// Start runs the session on a new goroutine until Stop or ctx
// cancellation.
func (s *Session) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	go func() { _ = s.Run(runCtx) }()
}

// Stop stops a session previously launched with Start.
func (s *Session) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run drives the sensor until ctx is cancelled. It returns ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// First reading immediately, then on the tick.
	s.tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the in-flight exchange by up to MaxStepsPerTick steps.
func (s *Session) tick() {
	if !s.started.IsZero() && s.config.ReadTimeout > 0 && time.Since(s.started) > s.config.ReadTimeout {
		s.sensor.Abort()
		s.started = time.Time{}
		s.reportError(ErrReadTimeout)
		return
	}
	if s.started.IsZero() {
		s.started = time.Now()
	}

	for i := 0; i < s.config.MaxStepsPerTick; i++ {
		reading, status, err := s.poll()
		if err != nil {
			// The handle is idle again; the next tick starts a fresh
			// exchange. Corrupted frames are reported, not retried
			// silently.
			s.started = time.Time{}
			s.reportError(err)
			return
		}
		if status == mhz19.PollComplete {
			s.started = time.Time{}
			if s.OnReading != nil {
				s.OnReading(reading)
			}
			return
		}
	}
	// Step budget exhausted; the exchange resumes on the next tick.
}

func (s *Session) reportError(err error) {
	if s.OnError != nil {
		s.OnError(err)
	}
}
