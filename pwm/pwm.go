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

// Package pwm reads CO2 concentration from the sensor's PWM output pin.
//
// The sensor encodes the concentration in the duty cycle of a roughly
// one-second pulse train: with a cycle of high time Th and low time Tl,
//
//	ppm = range * (Th - 2ms) / (Th + Tl - 4ms)
//
// This channel needs no UART and works alongside the serial protocol,
// but it only carries the concentration, at the configured detection
// range's resolution.
package pwm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const (
	// pulseOverhead is the fixed part of both pulse halves that does
	// not carry concentration information.
	pulseOverhead = 2 * time.Millisecond

	// edgeTimeout bounds one edge wait. The nominal cycle is 1004ms;
	// a silent pin means the sensor is not driving PWM at all.
	edgeTimeout = 3 * time.Second

	// DefaultRangePPM is the detection range the sensor family ships
	// with. Pass the actual configured range to NewReader when it has
	// been changed over the serial protocol.
	DefaultRangePPM = 5000
)

// ErrNoSignal indicates no edge arrived on the PWM pin within the
// expected cycle time.
var ErrNoSignal = errors.New("no PWM signal on pin")

// Reader measures CO2 concentration from a GPIO pin wired to the
// sensor's PWM output.
type Reader struct {
	pin      gpio.PinIn
	pinName  string
	rangePPM uint16
}

// NewReader opens the named GPIO pin (for example "GPIO12" or a
// pin number) for edge-timed PWM readout. rangePPM must match the
// sensor's configured detection range; pass DefaultRangePPM for an
// unconfigured sensor.
func NewReader(pinName string, rangePPM uint16) (*Reader, error) {
	if rangePPM == 0 {
		return nil, errors.New("detection range must not be zero")
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("no GPIO pin named %q", pinName)
	}
	if err := pin.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to configure pin %s for edges: %w", pinName, err)
	}
	return &Reader{pin: pin, pinName: pinName, rangePPM: rangePPM}, nil
}

// newReader wraps an already-configured pin.
func newReader(pin gpio.PinIn, rangePPM uint16) *Reader {
	return &Reader{pin: pin, pinName: pin.Name(), rangePPM: rangePPM}
}

// Pin returns the name of the pin being sampled.
func (r *Reader) Pin() string { return r.pinName }

// Read measures one full PWM cycle and returns the CO2 concentration
// in ppm. It blocks for up to two cycle times (about two seconds).
func (r *Reader) Read(ctx context.Context) (uint16, error) {
	// Synchronize on a rising edge so the cycle is measured from a
	// known phase.
	if err := r.waitForLevel(ctx, gpio.High); err != nil {
		return 0, err
	}
	highStart := time.Now()

	if err := r.waitForLevel(ctx, gpio.Low); err != nil {
		return 0, err
	}
	lowStart := time.Now()

	if err := r.waitForLevel(ctx, gpio.High); err != nil {
		return 0, err
	}
	cycleEnd := time.Now()

	th := lowStart.Sub(highStart)
	tl := cycleEnd.Sub(lowStart)
	return computePPM(th, tl, r.rangePPM), nil
}

// waitForLevel blocks until an edge leaves the pin at the wanted level,
// the per-edge timeout expires, or ctx is cancelled.
func (r *Reader) waitForLevel(ctx context.Context, want gpio.Level) error {
	deadline := time.Now().Add(edgeTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: %s stayed %s", ErrNoSignal, r.pinName, r.pin.Read())
		}
		if !r.pin.WaitForEdge(remaining) {
			return fmt.Errorf("%w: %s stayed %s", ErrNoSignal, r.pinName, r.pin.Read())
		}
		if r.pin.Read() == want {
			return nil
		}
	}
}

// Close releases the pin.
func (r *Reader) Close() error {
	return r.pin.Halt()
}

// computePPM converts one measured cycle to a concentration. Cycles
// shorter than the fixed pulse overhead, which cannot come from a
// healthy sensor, yield zero; the result is clamped to the detection
// range.
func computePPM(th, tl time.Duration, rangePPM uint16) uint16 {
	carried := th + tl - 2*pulseOverhead
	if carried <= 0 || th <= pulseOverhead {
		return 0
	}
	ppm := int64(rangePPM) * int64(th-pulseOverhead) / int64(carried)
	if ppm > int64(rangePPM) {
		return rangePPM
	}
	return uint16(ppm)
}
