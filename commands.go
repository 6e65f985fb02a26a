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

import "encoding/binary"

// Command identifies a sensor operation. The set is closed: these are
// the only codes the protocol family understands.
type Command byte

const (
	// CmdReadCO2 reads the CO2 concentration.
	CmdReadCO2 Command = 0x86
	// CmdReadCO2AndTemp reads CO2 and sensor temperature in one exchange.
	// Only firmware 5+ sensors answer this command.
	CmdReadCO2AndTemp Command = 0x85
	// CmdSelfCalibrate switches the automatic baseline correction on or off.
	CmdSelfCalibrate Command = 0x79
	// CmdCalibrateZero triggers a zero point calibration. The sensor must
	// have been in 400ppm ambient air for at least 20 minutes.
	CmdCalibrateZero Command = 0x87
	// CmdSetDetectionRange configures the upper bound of the measurement
	// range in ppm.
	CmdSetDetectionRange Command = 0x99
	// CmdFirmwareVersion queries the firmware version string.
	CmdFirmwareVersion Command = 0xA0
)

// String returns the command name for debug output.
func (c Command) String() string {
	switch c {
	case CmdReadCO2:
		return "ReadCO2"
	case CmdReadCO2AndTemp:
		return "ReadCO2AndTemp"
	case CmdSelfCalibrate:
		return "SelfCalibrate"
	case CmdCalibrateZero:
		return "CalibrateZero"
	case CmdSetDetectionRange:
		return "SetDetectionRange"
	case CmdFirmwareVersion:
		return "FirmwareVersion"
	}
	return "Unknown"
}

// HasResponse reports whether the sensor answers the command with a
// response frame. Calibration and range commands are write-only.
func (c Command) HasResponse() bool {
	switch c {
	case CmdSelfCalibrate, CmdCalibrateZero, CmdSetDetectionRange:
		return false
	default:
		return true
	}
}

// selfCalibrateArg is the payload byte that enables automatic baseline
// correction; zero disables it.
const selfCalibrateArg = 0xA0

// selfCalibratePayload returns the request payload for CmdSelfCalibrate.
func selfCalibratePayload(on bool) [PayloadSize]byte {
	var p [PayloadSize]byte
	if on {
		p[0] = selfCalibrateArg
	}
	return p
}

// detectionRangePayload returns the request payload for
// CmdSetDetectionRange with the range encoded big-endian in the last
// two payload bytes.
func detectionRangePayload(ppm uint16) [PayloadSize]byte {
	var p [PayloadSize]byte
	binary.BigEndian.PutUint16(p[3:5], ppm)
	return p
}
