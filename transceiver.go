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

// PollStatus is the result of one step of a non-blocking operation.
// When an operation returns a non-nil error the status carries no
// meaning: the exchange has been abandoned and the state is idle.
type PollStatus int

const (
	// PollInProgress means no terminal result yet; poll again.
	PollInProgress PollStatus = iota
	// PollComplete means the operation finished this step.
	PollComplete
)

// String returns the status name for debug output.
func (s PollStatus) String() string {
	if s == PollComplete {
		return "Complete"
	}
	return "InProgress"
}

// Transceiver drives one request frame out and one response frame in
// using only the transport's non-blocking byte primitives. Each poll
// call performs at most one byte-transfer attempt and never sleeps,
// loops over the transport, or allocates, so the caller fully controls
// scheduling latency.
//
// Transceiver is not safe for concurrent use; it is owned by exactly
// one sensor handle.
type Transceiver struct {
	transport Transport
	request   Frame
	rx        [FrameSize]byte
	sent      int
	received  int
}

// NewTransceiver creates a transceiver owning the given transport.
func NewTransceiver(transport Transport) *Transceiver {
	return &Transceiver{transport: transport}
}

// Transport returns the underlying transport.
func (t *Transceiver) Transport() Transport {
	return t.transport
}

// BeginExchange discards any partial transmit or receive state, encodes
// the request frame for cmd and arms transmission. It never touches the
// transport; the first PollWrite call performs the first write attempt.
func (t *Transceiver) BeginExchange(cmd Command, payload [PayloadSize]byte) {
	t.request = BuildFrame(cmd, payload)
	t.reset()
}

// reset returns both directions to idle.
func (t *Transceiver) reset() {
	t.sent = 0
	t.received = 0
}

// PollWrite attempts to hand the next unsent request byte to the
// transport. It returns PollInProgress when the transport would block,
// with no state advanced, and PollComplete once all nine bytes have
// been accepted. A transport error abandons the exchange.
func (t *Transceiver) PollWrite() (PollStatus, error) {
	if t.sent >= FrameSize {
		return PollComplete, nil
	}
	ok, err := t.transport.TryWriteByte(t.request[t.sent])
	if err != nil {
		t.reset()
		return PollInProgress, &TransportError{Op: "write frame byte", Err: err}
	}
	if !ok {
		return PollInProgress, nil
	}
	t.sent++
	if t.sent >= FrameSize {
		return PollComplete, nil
	}
	return PollInProgress, nil
}

// PollRead attempts to read the next response byte. Accumulated bytes
// survive any number of would-block outcomes. Once nine bytes are
// buffered the frame is validated: on success the state returns to idle
// and the frame is returned with PollComplete; on a validation failure
// the state likewise returns to idle, the bad frame is discarded and
// the error is returned. A corrupted frame is never re-read; the caller
// must issue a new exchange to retry.
func (t *Transceiver) PollRead() (Frame, PollStatus, error) {
	var zero Frame
	b, ok, err := t.transport.TryReadByte()
	if err != nil {
		t.reset()
		return zero, PollInProgress, &TransportError{Op: "read frame byte", Err: err}
	}
	if !ok {
		return zero, PollInProgress, nil
	}
	t.rx[t.received] = b
	t.received++
	if t.received < FrameSize {
		return zero, PollInProgress, nil
	}
	t.received = 0
	frame, err := ParseFrame(t.rx[:])
	if err != nil {
		return zero, PollInProgress, err
	}
	return frame, PollComplete, nil
}
