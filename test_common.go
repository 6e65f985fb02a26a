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

//go:build !prod

package mhz19

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// maxTestPolls bounds the poll loops in tests so a state machine bug
// fails the test instead of hanging it.
const maxTestPolls = 256

// newTestDevice creates a device over a fresh mock transport.
func newTestDevice(t *testing.T) (*Device, *MockTransport) {
	t.Helper()
	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)
	return device, mock
}

// responseFrame builds a checksummed response frame for cmd with the
// given payload bytes (up to six).
func responseFrame(t *testing.T, cmd Command, payload ...byte) Frame {
	t.Helper()
	require.LessOrEqual(t, len(payload), 6)
	var f Frame
	f[0] = StartByte
	f[1] = byte(cmd)
	copy(f[2:8], payload)
	f[8] = Checksum(f[1:8])
	return f
}
