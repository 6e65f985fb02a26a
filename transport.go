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
	"github.com/openairproject/go-mhz19/internal/syncutil"
)

// Transport is the non-blocking byte-stream link to the sensor. Both
// primitives must return immediately: either a byte was transferred, or
// the operation would block, or the link failed. Implementations are
// owned exclusively by one Transceiver and must not be shared.
type Transport interface {
	// TryWriteByte attempts to write one byte without blocking. It
	// returns false when the link cannot accept a byte right now.
	TryWriteByte(b byte) (bool, error)

	// TryReadByte attempts to read one byte without blocking. It
	// returns false when no byte is available right now.
	TryReadByte() (byte, bool, error)

	// Close closes the transport connection.
	Close() error

	// Type returns the transport type.
	Type() TransportType
}

// TransportType represents the type of transport.
type TransportType string

const (
	// TransportUART represents a UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing.
	TransportMock TransportType = "mock"
	// TransportSim represents the wire-level sensor simulator.
	TransportSim TransportType = "sim"
)

// readStep is one scripted result of TryReadByte.
type readStep struct {
	err error
	b   byte
	ok  bool
}

// writeStep is one scripted result of TryWriteByte.
type writeStep struct {
	err error
	ok  bool
}

// MockTransport provides a scripted implementation of Transport for
// testing. Read and write results are consumed from queues, which makes
// it possible to intersperse would-block outcomes between bytes exactly
// as a real serial link would. An exhausted read queue reports
// would-block; an exhausted write queue accepts the byte.
type MockTransport struct {
	mu         syncutil.RWMutex
	readQueue  []readStep
	writeQueue []writeStep
	written    []byte
	readCalls  int
	writeCalls int
	closed     bool
}

// NewMockTransport creates a new mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// TryWriteByte implements Transport.
func (m *MockTransport) TryWriteByte(b byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false, ErrTransportClosed
	}
	m.writeCalls++
	if len(m.writeQueue) == 0 {
		m.written = append(m.written, b)
		return true, nil
	}
	step := m.writeQueue[0]
	m.writeQueue = m.writeQueue[1:]
	if step.err != nil {
		return false, step.err
	}
	if step.ok {
		m.written = append(m.written, b)
	}
	return step.ok, nil
}

// TryReadByte implements Transport.
func (m *MockTransport) TryReadByte() (byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, false, ErrTransportClosed
	}
	m.readCalls++
	if len(m.readQueue) == 0 {
		return 0, false, nil
	}
	step := m.readQueue[0]
	m.readQueue = m.readQueue[1:]
	if step.err != nil {
		return 0, false, step.err
	}
	return step.b, step.ok, nil
}

// Close implements Transport.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Type implements Transport.
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Test helper methods

// QueueRead schedules bytes to be returned by successive TryReadByte calls.
func (m *MockTransport) QueueRead(bytes ...byte) {
	m.mu.Lock()
	for _, b := range bytes {
		m.readQueue = append(m.readQueue, readStep{b: b, ok: true})
	}
	m.mu.Unlock()
}

// QueueReadWouldBlock schedules n would-block read outcomes.
func (m *MockTransport) QueueReadWouldBlock(n int) {
	m.mu.Lock()
	for i := 0; i < n; i++ {
		m.readQueue = append(m.readQueue, readStep{})
	}
	m.mu.Unlock()
}

// QueueReadError schedules an error to be returned by TryReadByte.
func (m *MockTransport) QueueReadError(err error) {
	m.mu.Lock()
	m.readQueue = append(m.readQueue, readStep{err: err})
	m.mu.Unlock()
}

// QueueFrame schedules a full frame to be read byte by byte.
func (m *MockTransport) QueueFrame(f Frame) {
	m.QueueRead(f[:]...)
}

// QueueWriteWouldBlock schedules n would-block write outcomes.
func (m *MockTransport) QueueWriteWouldBlock(n int) {
	m.mu.Lock()
	for i := 0; i < n; i++ {
		m.writeQueue = append(m.writeQueue, writeStep{})
	}
	m.mu.Unlock()
}

// QueueWriteOK schedules n accepted write outcomes.
func (m *MockTransport) QueueWriteOK(n int) {
	m.mu.Lock()
	for i := 0; i < n; i++ {
		m.writeQueue = append(m.writeQueue, writeStep{ok: true})
	}
	m.mu.Unlock()
}

// QueueWriteError schedules an error to be returned by TryWriteByte.
func (m *MockTransport) QueueWriteError(err error) {
	m.mu.Lock()
	m.writeQueue = append(m.writeQueue, writeStep{err: err})
	m.mu.Unlock()
}

// Written returns a copy of all bytes accepted so far.
func (m *MockTransport) Written() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]byte, len(m.written))
	copy(out, m.written)
	return out
}

// ReadCalls returns how many times TryReadByte was called.
func (m *MockTransport) ReadCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.readCalls
}

// WriteCalls returns how many times TryWriteByte was called.
func (m *MockTransport) WriteCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writeCalls
}

// Reset clears scripts, captured writes and call counts, and reopens
// the transport.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	m.readQueue = nil
	m.writeQueue = nil
	m.written = nil
	m.readCalls = 0
	m.writeCalls = 0
	m.closed = false
	m.mu.Unlock()
}
