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

import "errors"

// opKind identifies the composite operation a handle is driving. At
// most one operation may be outstanding per handle, matching the
// sensor's single in-flight-request behavior.
type opKind int

const (
	opNone opKind = iota
	opReadCO2
	opReadCO2AndTemp
	opSelfCalibrate
	opCalibrateZero
	opSetDetectionRange
	opFirmwareVersion
	opUpgrade
)

// opPhase is the write/read phase of an outstanding exchange.
type opPhase int

const (
	phaseWriting opPhase = iota
	phaseReading
)

// Sensor is the operation set shared by both protocol dialects. All
// operations are non-blocking: each call advances the exchange by one
// bounded-time step and must be repeated until it returns PollComplete
// or an error.
type Sensor interface {
	// ReadCO2PPM reads the CO2 concentration in parts per million.
	ReadCO2PPM() (uint16, PollStatus, error)
	// SetSelfCalibrate switches automatic baseline correction.
	SetSelfCalibrate(on bool) (PollStatus, error)
	// CalibrateZero triggers a zero point calibration.
	CalibrateZero() (PollStatus, error)
	// SetDetectionRange configures the measurement range in ppm.
	SetDetectionRange(ppm uint16) (PollStatus, error)
	// FirmwareVersion queries the sensor firmware version.
	FirmwareVersion() (FirmwareVersion, PollStatus, error)
	// Abort discards any outstanding exchange and returns the handle
	// to idle.
	Abort()
}

// device holds the shared handle state. Device and ExtendedDevice embed
// it; the dialect split lives in the method sets of those two types, so
// an extended-only operation on a base handle is a compile error, not a
// runtime check.
type device struct {
	tcv      *Transceiver
	op       opKind
	phase    opPhase
	released bool
}

// idle resets the per-operation state machine.
func (d *device) idle() {
	d.op = opNone
}

// Abort implements Sensor. Abandoning an exchange mid-flight may leave
// response bytes in transit; the transport's drain facility, where it
// has one, clears them before the next exchange.
func (d *device) Abort() {
	if d.released {
		return
	}
	d.idle()
}

// step advances the outstanding exchange for kind by one bounded-time
// step: idle handles arm the exchange and attempt the first write,
// writing handles attempt one write, reading handles attempt one read.
// It returns the validated response frame with PollComplete once the
// exchange finishes. Any error leaves the handle idle.
func (d *device) step(kind opKind, cmd Command, payload [PayloadSize]byte) (Frame, PollStatus, error) {
	var zero Frame
	if d.released {
		return zero, PollInProgress, ErrDeviceReleased
	}
	if d.op == opNone {
		d.tcv.BeginExchange(cmd, payload)
		d.op = kind
		d.phase = phaseWriting
	} else if d.op != kind {
		// Usage error: a different operation is mid-exchange. The
		// transport is deliberately left untouched.
		return zero, PollInProgress, ErrExchangeInProgress
	}

	switch d.phase {
	case phaseWriting:
		status, err := d.tcv.PollWrite()
		if err != nil {
			d.idle()
			return zero, PollInProgress, err
		}
		if status == PollComplete {
			if !cmd.HasResponse() {
				d.idle()
				return zero, PollComplete, nil
			}
			d.phase = phaseReading
			debugf("%s request sent, awaiting response", cmd)
		}
		return zero, PollInProgress, nil

	case phaseReading:
		frame, status, err := d.tcv.PollRead()
		if err != nil {
			d.idle()
			return zero, PollInProgress, err
		}
		if status != PollComplete {
			return zero, PollInProgress, nil
		}
		d.idle()
		if err := checkResponse(cmd, frame); err != nil {
			return zero, PollInProgress, err
		}
		return frame, PollComplete, nil
	}
	return zero, PollInProgress, nil
}

// checkResponse cross-checks a validated frame against the request that
// produced it.
func checkResponse(cmd Command, frame Frame) error {
	if !frame.IsResponse() {
		return ErrNotAResponse
	}
	if frame.OpCode() != byte(cmd) {
		return &CommandMismatchError{Expected: byte(cmd), Got: frame.OpCode()}
	}
	return nil
}

// Device is the handle for a base-dialect sensor (firmware below
// version 5). It is created around a transport the caller provides and
// owns that transport exclusively until released.
//
// Device is not safe for concurrent use: all methods must be called
// from a single goroutine, typically the cooperative scheduling loop
// that polls every peripheral.
type Device struct {
	device
}

// New creates a base-dialect handle for a sensor reachable over the
// given transport. Every sensor starts in the base dialect; use
// UpgradeToExtended to unlock the extended command set after the sensor
// has confirmed support.
func New(transport Transport) (*Device, error) {
	if transport == nil {
		return nil, errors.New("transport must not be nil")
	}
	return &Device{device{tcv: NewTransceiver(transport)}}, nil
}

// Close closes the underlying transport.
func (d *device) Close() error {
	if d.released {
		return ErrDeviceReleased
	}
	return d.tcv.Transport().Close()
}

// ReadCO2PPM implements Sensor. Poll until PollComplete; the returned
// concentration is only valid on completion.
func (d *device) ReadCO2PPM() (uint16, PollStatus, error) {
	frame, status, err := d.step(opReadCO2, CmdReadCO2, [PayloadSize]byte{})
	if err != nil || status != PollComplete {
		return 0, status, err
	}
	return frame.CO2PPM(), PollComplete, nil
}

// SetSelfCalibrate implements Sensor. The exchange is write-only: it
// completes once the request frame is fully transmitted.
func (d *device) SetSelfCalibrate(on bool) (PollStatus, error) {
	_, status, err := d.step(opSelfCalibrate, CmdSelfCalibrate, selfCalibratePayload(on))
	return status, err
}

// CalibrateZero implements Sensor. The sensor must have settled in
// 400ppm ambient air before the zero point is calibrated.
func (d *device) CalibrateZero() (PollStatus, error) {
	_, status, err := d.step(opCalibrateZero, CmdCalibrateZero, [PayloadSize]byte{})
	return status, err
}

// SetDetectionRange implements Sensor.
func (d *device) SetDetectionRange(ppm uint16) (PollStatus, error) {
	_, status, err := d.step(opSetDetectionRange, CmdSetDetectionRange, detectionRangePayload(ppm))
	return status, err
}

// FirmwareVersion implements Sensor.
func (d *device) FirmwareVersion() (FirmwareVersion, PollStatus, error) {
	frame, status, err := d.step(opFirmwareVersion, CmdFirmwareVersion, [PayloadSize]byte{})
	if err != nil || status != PollComplete {
		return FirmwareVersion{}, status, err
	}
	return frame.FirmwareVersion(), PollComplete, nil
}

// UpgradeToExtended drives a firmware-version exchange and, when the
// sensor reports major version 5 or later, consumes the base handle and
// returns a new extended-dialect handle owning the same transceiver and
// transport. The consumed base handle answers every further call with
// ErrDeviceReleased.
//
// When the firmware is older the operation fails with an error matching
// ErrUnsupportedFirmware and the base handle remains fully usable. The
// elevation is one-directional and one-time: there is no downgrade, and
// ExtendedDevice has no upgrade operation.
func (d *Device) UpgradeToExtended() (*ExtendedDevice, PollStatus, error) {
	frame, status, err := d.step(opUpgrade, CmdFirmwareVersion, [PayloadSize]byte{})
	if err != nil || status != PollComplete {
		return nil, status, err
	}
	version := frame.FirmwareVersion()
	if !version.SupportsExtended() {
		return nil, PollInProgress, &UnsupportedFirmwareError{Version: version}
	}
	ext := &ExtendedDevice{device{tcv: d.tcv}}
	d.tcv = nil
	d.released = true
	debugf("upgraded to extended dialect, firmware %s", version)
	return ext, PollComplete, nil
}

// ExtendedDevice is the handle for an extended-dialect sensor (firmware
// 5+). It exposes the full base operation set plus the combined
// CO2+temperature read, and is only reachable through
// (*Device).UpgradeToExtended.
type ExtendedDevice struct {
	device
}

// ReadCO2AndTemperature reads CO2 concentration in ppm and the sensor
// temperature in degrees Celsius in a single exchange.
func (d *ExtendedDevice) ReadCO2AndTemperature() (uint16, int, PollStatus, error) {
	frame, status, err := d.step(opReadCO2AndTemp, CmdReadCO2AndTemp, [PayloadSize]byte{})
	if err != nil || status != PollComplete {
		return 0, 0, status, err
	}
	co2, temperature := frame.CO2AndTemperature()
	return co2, temperature, PollComplete, nil
}

// Interface conformance for both dialects.
var (
	_ Sensor = (*Device)(nil)
	_ Sensor = (*ExtendedDevice)(nil)
)
