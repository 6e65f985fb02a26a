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

// Package uart provides the serial transport for MH-Z19 sensors.
package uart

import (
	"fmt"

	mhz19 "github.com/openairproject/go-mhz19"
	"go.bug.st/serial"
)

// The sensor family speaks 9600 8N1 regardless of firmware revision.
const baudRate = 9600

// Transport implements the mhz19.Transport interface over a serial
// port. The port is opened in non-blocking read mode so TryReadByte
// returns immediately when no byte is buffered.
type Transport struct {
	port     serial.Port
	portName string
	readBuf  [1]byte
	closed   bool
}

// New opens the serial port at portName and configures it for the
// sensor's fixed line parameters.
func New(portName string) (*Transport, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}

	// Zero read timeout puts the port in non-blocking mode: Read
	// returns immediately with n == 0 when nothing is buffered.
	if err := port.SetReadTimeout(0); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}

	return &Transport{
		port:     port,
		portName: portName,
	}, nil
}

// PortName returns the path of the underlying serial port.
func (t *Transport) PortName() string {
	return t.portName
}

// TryWriteByte implements mhz19.Transport. The OS transmit buffer
// accepts single bytes without blocking unless the link is saturated.
func (t *Transport) TryWriteByte(b byte) (bool, error) {
	if t.closed {
		return false, mhz19.ErrTransportClosed
	}
	n, err := t.port.Write([]byte{b})
	if err != nil {
		return false, fmt.Errorf("UART write on %s: %w", t.portName, err)
	}
	return n == 1, nil
}

// TryReadByte implements mhz19.Transport.
func (t *Transport) TryReadByte() (byte, bool, error) {
	if t.closed {
		return 0, false, mhz19.ErrTransportClosed
	}
	n, err := t.port.Read(t.readBuf[:])
	if err != nil {
		return 0, false, fmt.Errorf("UART read on %s: %w", t.portName, err)
	}
	if n == 0 {
		return 0, false, nil
	}
	return t.readBuf[0], true, nil
}

// Drain discards any bytes buffered by the OS. Useful before the first
// exchange when the sensor has been streaming into an unread port.
func (t *Transport) Drain() error {
	if t.closed {
		return mhz19.ErrTransportClosed
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("UART drain on %s: %w", t.portName, err)
	}
	return nil
}

// Close implements mhz19.Transport.
func (t *Transport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close UART port %s: %w", t.portName, err)
	}
	return nil
}

// Type implements mhz19.Transport.
func (*Transport) Type() mhz19.TransportType {
	return mhz19.TransportUART
}
