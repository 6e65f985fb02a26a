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
	"testing"

	"github.com/stretchr/testify/require"
)

var readCO2Response = Frame{0xFF, 0x86, 0x02, 0x3C, 0x00, 0x00, 0x00, 0x00, 0x3C}

func TestPollWriteCompletesFrame(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	for i := 0; i < FrameSize-1; i++ {
		status, err := tcv.PollWrite()
		require.NoError(t, err)
		require.Equal(t, PollInProgress, status)
	}
	status, err := tcv.PollWrite()
	require.NoError(t, err)
	require.Equal(t, PollComplete, status)

	want := []byte{0xFF, 0x01, 0x86, 0x00, 0x00, 0x00, 0x00, 0x00, 0x79}
	require.Equal(t, want, mock.Written())
}

// TestPollWriteWouldBlockKeepsPosition intersperses would-block outcomes
// between accepted bytes and verifies no byte is lost or duplicated.
func TestPollWriteWouldBlockKeepsPosition(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	for i := 0; i < FrameSize; i++ {
		mock.QueueWriteWouldBlock(2)
		mock.QueueWriteOK(1)
	}

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var status PollStatus
	var err error
	polls := 0
	for status != PollComplete {
		status, err = tcv.PollWrite()
		require.NoError(t, err)
		polls++
		require.LessOrEqual(t, polls, 3*FrameSize)
	}

	want := BuildFrame(CmdReadCO2, [PayloadSize]byte{}).Bytes()
	require.Equal(t, want, mock.Written())
}

func TestPollWriteTransportError(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	cause := errors.New("uart gone")
	mock.QueueWriteOK(3)
	mock.QueueWriteError(cause)

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var err error
	for err == nil {
		_, err = tcv.PollWrite()
	}
	require.ErrorIs(t, err, cause)
	var tErr *TransportError
	require.ErrorAs(t, err, &tErr)
}

func TestPollReadAllBytesAvailable(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	mock.QueueFrame(readCO2Response)
	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var frame Frame
	var status PollStatus
	var err error
	for status != PollComplete {
		frame, status, err = tcv.PollRead()
		require.NoError(t, err)
	}
	require.Equal(t, readCO2Response, frame)
	require.Equal(t, uint16(572), frame.CO2PPM())
}

// TestPollReadPartialResilience drip-feeds the response one byte per
// poll with arbitrary would-block gaps and expects the same frame as an
// uninterrupted read.
func TestPollReadPartialResilience(t *testing.T) {
	t.Parallel()
	gaps := []int{0, 1, 5, 0, 3, 2, 0, 7, 1}
	mock := NewMockTransport()
	for i, b := range readCO2Response {
		mock.QueueReadWouldBlock(gaps[i])
		mock.QueueRead(b)
	}

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var frame Frame
	var status PollStatus
	var err error
	polls := 0
	for status != PollComplete {
		frame, status, err = tcv.PollRead()
		require.NoError(t, err)
		polls++
		require.LessOrEqual(t, polls, 64)
	}
	require.Equal(t, readCO2Response, frame)
}

func TestPollReadChecksumFailureResetsToIdle(t *testing.T) {
	t.Parallel()
	corrupted := readCO2Response
	corrupted[8] = 0x00
	mock := NewMockTransport()
	mock.QueueFrame(corrupted)

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var err error
	for err == nil {
		_, _, err = tcv.PollRead()
	}
	require.ErrorIs(t, err, ErrChecksumMismatch)

	// Idle after the failure: no leftover bytes, no spurious completion.
	_, status, err := tcv.PollRead()
	require.NoError(t, err)
	require.Equal(t, PollInProgress, status)
}

func TestPollReadStartByteFailure(t *testing.T) {
	t.Parallel()
	corrupted := readCO2Response
	corrupted[0] = 0x42
	corrupted[8] = Checksum(corrupted[1:8])
	mock := NewMockTransport()
	mock.QueueFrame(corrupted)

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var err error
	for err == nil {
		_, _, err = tcv.PollRead()
	}
	require.ErrorIs(t, err, ErrUnexpectedStartByte)
}

// TestPollReadNoDoubleConsumption verifies that after a completed read
// the accumulator is idle: polling again does not resurface the frame.
func TestPollReadNoDoubleConsumption(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	mock.QueueFrame(readCO2Response)
	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var status PollStatus
	var err error
	for status != PollComplete {
		_, status, err = tcv.PollRead()
		require.NoError(t, err)
	}

	_, status, err = tcv.PollRead()
	require.NoError(t, err)
	require.Equal(t, PollInProgress, status)
}

func TestPollReadTransportError(t *testing.T) {
	t.Parallel()
	cause := errors.New("read fault")
	mock := NewMockTransport()
	mock.QueueRead(0xFF, 0x86)
	mock.QueueReadError(cause)

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})

	var err error
	for err == nil {
		_, _, err = tcv.PollRead()
	}
	require.ErrorIs(t, err, cause)
}

// TestBeginExchangeDiscardsPartialState starts a read, abandons it
// mid-frame, and verifies the next exchange is unaffected by the
// leftover bytes of the first.
func TestBeginExchangeDiscardsPartialState(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	mock.QueueRead(readCO2Response[:4]...)

	tcv := NewTransceiver(mock)
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})
	for i := 0; i < 4; i++ {
		_, status, err := tcv.PollRead()
		require.NoError(t, err)
		require.Equal(t, PollInProgress, status)
	}

	// Abandon and start over; the four buffered bytes must be gone.
	tcv.BeginExchange(CmdReadCO2, [PayloadSize]byte{})
	mock.QueueFrame(readCO2Response)

	var frame Frame
	var status PollStatus
	var err error
	for status != PollComplete {
		frame, status, err = tcv.PollRead()
		require.NoError(t, err)
	}
	require.Equal(t, readCO2Response, frame)
}
