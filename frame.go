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

// Package mhz19 implements a driver for the MH-Z19 family of NDIR CO2
// sensors. The sensor speaks a fixed-length, checksum-protected 9-byte
// frame protocol over a 9600 8N1 serial link. The driver core is fully
// non-blocking: every operation is a bounded-time step function that the
// caller polls to completion, making it suitable for cooperative loops
// that service many peripherals per cycle.
package mhz19

import "encoding/binary"

// Frame layout constants
const (
	// FrameSize is the fixed length of every request and response frame.
	FrameSize = 9
	// PayloadSize is the number of command-specific payload bytes in a
	// request frame.
	PayloadSize = 5
	// StartByte marks the beginning of every frame.
	StartByte = 0xFF
	// SensorIndex is the fixed addressing byte used in request frames.
	SensorIndex = 0x01
)

// Checksum computes the frame checksum over data: the two's-complement
// negation of the byte sum, so that sum(bytes[1..8]) + checksum == 0 mod 256.
func Checksum(data []byte) byte {
	chk := byte(0)
	for _, b := range data {
		chk -= b
	}
	return chk
}

// Frame is an immutable 9-byte wire message. Request frames carry the
// sensor index at offset 1 and the command code at offset 2; response
// frames echo the command code at offset 1, followed by the payload.
type Frame [FrameSize]byte

// BuildFrame builds a well-formed request frame for cmd with the given
// payload. It cannot fail: inputs are constrained to valid shapes.
func BuildFrame(cmd Command, payload [PayloadSize]byte) Frame {
	var f Frame
	f[0] = StartByte
	f[1] = SensorIndex
	f[2] = byte(cmd)
	copy(f[3:8], payload[:])
	f[8] = Checksum(f[1:8])
	return f
}

// ParseFrame validates buf as a complete frame and returns it parsed.
// It checks the start marker and recomputes the checksum over bytes 1..7;
// no payload interpretation is performed beyond that.
func ParseFrame(buf []byte) (Frame, error) {
	var f Frame
	if len(buf) != FrameSize {
		return f, &FrameLengthError{Got: len(buf)}
	}
	copy(f[:], buf)
	if f[0] != StartByte {
		return f, &StartByteError{Got: f[0]}
	}
	if want := Checksum(f[1:8]); want != f[8] {
		return f, &ChecksumError{Expected: want, Actual: f[8]}
	}
	return f, nil
}

// Bytes returns a copy of the frame's wire representation.
func (f Frame) Bytes() []byte {
	buf := make([]byte, FrameSize)
	copy(buf, f[:])
	return buf
}

// IsResponse reports whether the frame is a sensor response rather than
// a host request. Responses do not carry the sensor index at offset 1.
func (f Frame) IsResponse() bool {
	return f[1] != SensorIndex
}

// OpCode returns the command code of a request or response frame.
func (f Frame) OpCode() byte {
	if f.IsResponse() {
		return f[1]
	}
	return f[2]
}

// Data returns the payload bytes, excluding the command code. Responses
// carry six payload bytes, requests five.
func (f Frame) Data() []byte {
	if f.IsResponse() {
		return f[2:8]
	}
	return f[3:8]
}

// CO2PPM reinterprets the first two payload bytes as a big-endian CO2
// concentration in parts per million. Any byte pattern yields a number;
// semantic validity is the sensor's responsibility.
func (f Frame) CO2PPM() uint16 {
	data := f.Data()
	return binary.BigEndian.Uint16(data[:2])
}

// temperatureOffset is the fixed calibration offset the sensor adds to
// the temperature payload byte.
const temperatureOffset = 40

// CO2AndTemperature returns the CO2 concentration in ppm and the sensor
// temperature in degrees Celsius from a combined-reading response.
func (f Frame) CO2AndTemperature() (co2 uint16, temperature int) {
	data := f.Data()
	return binary.BigEndian.Uint16(data[:2]), int(data[2]) - temperatureOffset
}

// FirmwareVersion decodes the firmware version from a version-query
// response. The sensor reports four ASCII digits, e.g. "0502".
func (f Frame) FirmwareVersion() FirmwareVersion {
	return parseFirmwareVersion(f.Data())
}
