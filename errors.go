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

package mhz19

import (
	"errors"
	"fmt"
)

// Error categories. Frame integrity errors are recoverable by
// re-issuing the exchange; the driver never retries them on its own.
var (
	// Transport errors
	ErrTransportClosed = errors.New("transport is closed")
	ErrTransportWrite  = errors.New("transport write failed")
	ErrTransportRead   = errors.New("transport read failed")

	// Frame integrity errors - recoverable by discarding the frame
	ErrFrameLength         = errors.New("frame has wrong length")
	ErrUnexpectedStartByte = errors.New("unexpected start byte")
	ErrChecksumMismatch    = errors.New("checksum mismatch")

	// Device errors
	ErrNotAResponse        = errors.New("expected response frame, got request")
	ErrCommandMismatch     = errors.New("response command mismatch")
	ErrUnsupportedFirmware = errors.New("firmware does not support extended commands")

	// Usage errors - caller programming faults, transport state untouched
	ErrExchangeInProgress = errors.New("another exchange is in progress")
	ErrDeviceReleased     = errors.New("device handle was released by upgrade")
)

// FrameLengthError reports a frame buffer of the wrong size.
type FrameLengthError struct {
	Got int
}

func (e *FrameLengthError) Error() string {
	return fmt.Sprintf("frame has wrong length: got %d bytes, want %d", e.Got, FrameSize)
}

func (*FrameLengthError) Unwrap() error { return ErrFrameLength }

// StartByteError reports a frame whose first byte is not the start
// marker, carrying the offending byte for diagnostics.
type StartByteError struct {
	Got byte
}

func (e *StartByteError) Error() string {
	return fmt.Sprintf("unexpected start byte: got 0x%02X, want 0x%02X", e.Got, StartByte)
}

func (*StartByteError) Unwrap() error { return ErrUnexpectedStartByte }

// ChecksumError reports a frame whose checksum byte does not match the
// recomputed value.
type ChecksumError struct {
	Expected byte
	Actual   byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%02X, got 0x%02X", e.Expected, e.Actual)
}

func (*ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// CommandMismatchError reports a response whose echoed command code does
// not match the request that was sent.
type CommandMismatchError struct {
	Expected byte
	Got      byte
}

func (e *CommandMismatchError) Error() string {
	return fmt.Sprintf("response command mismatch: expected 0x%02X, got 0x%02X", e.Expected, e.Got)
}

func (*CommandMismatchError) Unwrap() error { return ErrCommandMismatch }

// UnsupportedFirmwareError is returned by the upgrade operation when the
// sensor's firmware predates the extended command set.
type UnsupportedFirmwareError struct {
	Version FirmwareVersion
}

func (e *UnsupportedFirmwareError) Error() string {
	return fmt.Sprintf("firmware %s does not support extended commands (need major version %d+)",
		e.Version, extendedMinMajorVersion)
}

func (*UnsupportedFirmwareError) Unwrap() error { return ErrUnsupportedFirmware }

// TransportError wraps errors reported by the byte transport with the
// operation that failed. Transport errors abort the current exchange;
// the caller may start a new one.
type TransportError struct {
	Err error
	Op  string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
