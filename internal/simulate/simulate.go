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

// Package simulate provides a wire-level MH-Z19 sensor simulator. It
// implements the driver's Transport interface by consuming request
// frames byte by byte and producing checksummed response frames, which
// makes it possible to exercise the full driver stack without hardware.
package simulate

import (
	"encoding/binary"

	mhz19 "github.com/openairproject/go-mhz19"
	"github.com/openairproject/go-mhz19/internal/syncutil"
)

// Sensor simulates one MH-Z19 sensor behind a serial link.
type Sensor struct {
	mu       syncutil.Mutex
	firmware string
	request  []byte
	response []byte

	co2           uint16
	temperature   int
	rangePPM      uint16
	selfCalibrate bool
	closed        bool

	// Fault injection
	corruptChecksum bool
	wrongStartByte  bool
	readGap         int // extra would-block reads before each byte
	gapLeft         int
}

// Option configures the simulated sensor.
type Option func(*Sensor)

// WithFirmware sets the reported firmware version string, e.g. "0502".
func WithFirmware(version string) Option {
	return func(s *Sensor) { s.firmware = version }
}

// WithCO2 sets the simulated CO2 concentration in ppm.
func WithCO2(ppm uint16) Option {
	return func(s *Sensor) { s.co2 = ppm }
}

// WithTemperature sets the simulated sensor temperature in Celsius.
func WithTemperature(celsius int) Option {
	return func(s *Sensor) { s.temperature = celsius }
}

// WithReadGap makes every response byte preceded by n would-block
// outcomes, simulating a slow link.
func WithReadGap(n int) Option {
	return func(s *Sensor) { s.readGap = n }
}

// NewSensor creates a simulated sensor. The defaults are 400ppm at
// 21 Celsius with extended-capable firmware.
func NewSensor(opts ...Option) *Sensor {
	s := &Sensor{
		firmware:    "0502",
		co2:         400,
		temperature: 21,
		rangePPM:    5000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCO2 updates the simulated concentration while running.
func (s *Sensor) SetCO2(ppm uint16) {
	s.mu.Lock()
	s.co2 = ppm
	s.mu.Unlock()
}

// CorruptNextChecksum makes the next response frame carry a bad
// checksum byte.
func (s *Sensor) CorruptNextChecksum() {
	s.mu.Lock()
	s.corruptChecksum = true
	s.mu.Unlock()
}

// CorruptNextStartByte makes the next response frame start with a bogus
// marker.
func (s *Sensor) CorruptNextStartByte() {
	s.mu.Lock()
	s.wrongStartByte = true
	s.mu.Unlock()
}

// SelfCalibrate reports the last self-calibration switch received.
func (s *Sensor) SelfCalibrate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfCalibrate
}

// DetectionRange reports the last detection range received.
func (s *Sensor) DetectionRange() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rangePPM
}

// TryWriteByte implements mhz19.Transport. A completed request frame is
// answered immediately; the response becomes readable byte by byte.
func (s *Sensor) TryWriteByte(b byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, mhz19.ErrTransportClosed
	}
	s.request = append(s.request, b)
	if len(s.request) < mhz19.FrameSize {
		return true, nil
	}
	frame, err := mhz19.ParseFrame(s.request)
	s.request = nil
	if err != nil {
		// A real sensor stays silent on a garbled request.
		return true, nil
	}
	s.handleRequest(frame)
	return true, nil
}

// TryReadByte implements mhz19.Transport.
func (s *Sensor) TryReadByte() (byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, false, mhz19.ErrTransportClosed
	}
	if len(s.response) == 0 {
		return 0, false, nil
	}
	if s.gapLeft > 0 {
		s.gapLeft--
		return 0, false, nil
	}
	s.gapLeft = s.readGap
	b := s.response[0]
	s.response = s.response[1:]
	return b, true, nil
}

// Close implements mhz19.Transport.
func (s *Sensor) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Type implements mhz19.Transport.
func (*Sensor) Type() mhz19.TransportType {
	return mhz19.TransportSim
}

// handleRequest applies a request's side effects and queues its
// response. Write-only commands produce no bytes, like the hardware.
func (s *Sensor) handleRequest(frame mhz19.Frame) {
	cmd := mhz19.Command(frame.OpCode())
	data := frame.Data()
	switch cmd {
	case mhz19.CmdReadCO2:
		var payload [6]byte
		binary.BigEndian.PutUint16(payload[:2], s.co2)
		s.queueResponse(cmd, payload)
	case mhz19.CmdReadCO2AndTemp:
		var payload [6]byte
		binary.BigEndian.PutUint16(payload[:2], s.co2)
		payload[2] = byte(s.temperature + 40)
		s.queueResponse(cmd, payload)
	case mhz19.CmdFirmwareVersion:
		var payload [6]byte
		copy(payload[:], s.firmware)
		s.queueResponse(cmd, payload)
	case mhz19.CmdSelfCalibrate:
		s.selfCalibrate = data[0] == 0xA0
	case mhz19.CmdSetDetectionRange:
		s.rangePPM = binary.BigEndian.Uint16(data[3:5])
	case mhz19.CmdCalibrateZero:
		// Zero calibration has no observable wire effect.
	}
}

// queueResponse appends a checksummed response frame, applying any
// pending fault injection.
func (s *Sensor) queueResponse(cmd mhz19.Command, payload [6]byte) {
	buf := make([]byte, mhz19.FrameSize)
	buf[0] = mhz19.StartByte
	buf[1] = byte(cmd)
	copy(buf[2:8], payload[:])
	buf[8] = mhz19.Checksum(buf[1:8])

	if s.corruptChecksum {
		buf[8]++
		s.corruptChecksum = false
	}
	if s.wrongStartByte {
		buf[0] = 0x00
		s.wrongStartByte = false
	}
	s.response = append(s.response, buf...)
	s.gapLeft = s.readGap
}
