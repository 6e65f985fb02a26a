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

package pwm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestComputePPM(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		th       time.Duration
		tl       time.Duration
		rangePPM uint16
		want     uint16
	}{
		{
			name:     "MidScale",
			th:       502 * time.Millisecond,
			tl:       502 * time.Millisecond,
			rangePPM: 5000,
			want:     2500,
		},
		{
			name:     "FreshAir400",
			th:       82 * time.Millisecond,
			tl:       922 * time.Millisecond,
			rangePPM: 5000,
			want:     400,
		},
		{
			name:     "MidScaleNarrowRange",
			th:       502 * time.Millisecond,
			tl:       502 * time.Millisecond,
			rangePPM: 2000,
			want:     1000,
		},
		{
			name:     "MinimumPulseIsZero",
			th:       2 * time.Millisecond,
			tl:       1002 * time.Millisecond,
			rangePPM: 5000,
			want:     0,
		},
		{
			name:     "SaturatedPulseClampsToRange",
			th:       1002 * time.Millisecond,
			tl:       2 * time.Millisecond,
			rangePPM: 5000,
			want:     5000,
		},
		{
			name:     "DegenerateCycleIsZero",
			th:       time.Millisecond,
			tl:       time.Millisecond,
			rangePPM: 5000,
			want:     0,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, computePPM(tt.th, tt.tl, tt.rangePPM))
		})
	}
}

func TestReaderMeasuresCycle(t *testing.T) {
	t.Parallel()

	pin := &gpiotest.Pin{N: "TEST12", EdgesChan: make(chan gpio.Level)}
	reader := newReader(pin, 5000)

	// Drive one synthetic cycle: roughly 100ms high, 150ms low.
	go func() {
		pin.EdgesChan <- gpio.High
		time.Sleep(100 * time.Millisecond)
		pin.EdgesChan <- gpio.Low
		time.Sleep(150 * time.Millisecond)
		pin.EdgesChan <- gpio.High
	}()

	ppm, err := reader.Read(context.Background())
	require.NoError(t, err)
	// 5000 * 98ms / 246ms, with scheduling jitter on both sleeps.
	require.InDelta(t, 1992, float64(ppm), 500)
	require.Equal(t, "TEST12", reader.Pin())
}

func TestReaderContextCancellation(t *testing.T) {
	t.Parallel()

	pin := &gpiotest.Pin{N: "TEST12", EdgesChan: make(chan gpio.Level)}
	reader := newReader(pin, 5000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := reader.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
