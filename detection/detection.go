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

// Package detection enumerates serial ports that are plausible MH-Z19
// attachment points. It only inspects port names; confirming a sensor
// is present requires a successful exchange.
package detection

import (
	"fmt"
	"runtime"
	"strings"

	"go.bug.st/serial"
)

// DeviceInfo describes a candidate serial port.
type DeviceInfo struct {
	Path string
}

// Detect lists candidate serial ports for the current platform,
// most-likely first.
func Detect() ([]DeviceInfo, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return filterPorts(ports, runtime.GOOS), nil
}

// likely returns a rank for the port name: 0 for the usual USB-serial
// and SBC UART device names, 1 for other serial devices, -1 for ports
// that are almost certainly not a sensor link.
func likely(port, goos string) int {
	switch goos {
	case "windows":
		if strings.HasPrefix(port, "COM") {
			return 1
		}
		return -1
	case "darwin":
		// Prefer the callout devices for USB-serial adapters.
		if strings.HasPrefix(port, "/dev/cu.usbserial") || strings.HasPrefix(port, "/dev/cu.usbmodem") {
			return 0
		}
		if strings.HasPrefix(port, "/dev/cu.") {
			return 1
		}
		return -1
	default:
		switch {
		case strings.HasPrefix(port, "/dev/ttyUSB"),
			strings.HasPrefix(port, "/dev/ttyACM"),
			strings.HasPrefix(port, "/dev/ttyAMA"),
			strings.HasPrefix(port, "/dev/serial"):
			return 0
		case strings.HasPrefix(port, "/dev/ttyS"):
			return 1
		}
		return -1
	}
}

// filterPorts drops implausible ports and orders the rest by rank.
func filterPorts(ports []string, goos string) []DeviceInfo {
	var preferred, fallback []DeviceInfo
	for _, port := range ports {
		switch likely(port, goos) {
		case 0:
			preferred = append(preferred, DeviceInfo{Path: port})
		case 1:
			fallback = append(fallback, DeviceInfo{Path: port})
		}
	}
	return append(preferred, fallback...)
}
