// Copyright 2026 The Zaparoo Project Contributors.
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

package gt511

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScanner(t *testing.T) (*Scanner, *MockTransport) {
	t.Helper()
	mock := NewMockTransport()
	device, err := New(mock, WithRetryConfig(fastRetryConfig()))
	require.NoError(t, err)
	return NewScanner(device), mock
}

// TestScanner_EnrollIdentifyDeleteCycle drives the classic access-control
// flow end to end through the boolean facade.
func TestScanner_EnrollIdentifyDeleteCycle(t *testing.T) {
	t.Parallel()

	scanner, mock := newScanner(t)

	require.True(t, scanner.Init())
	require.NoError(t, scanner.LastError())

	mock.SetResponse(cmdGetEnrollCount, AckResponse(0))
	assert.Equal(t, 0, scanner.GetEnrolledCnt())

	assert.Equal(t, 1, scanner.Enroll(1))

	mock.SetResponse(cmdGetEnrollCount, AckResponse(1))
	assert.Equal(t, 1, scanner.GetEnrolledCnt())

	mock.SetResponse(cmdIdentify, AckResponse(1))
	assert.Equal(t, 1, scanner.Identify())

	assert.True(t, scanner.Delete(1))

	mock.SetResponse(cmdGetEnrollCount, AckResponse(0))
	assert.Equal(t, 0, scanner.GetEnrolledCnt())

	assert.True(t, scanner.Close())
}

func TestScanner_FailuresCollapse(t *testing.T) {
	t.Parallel()

	t.Run("Count_Failure_Is_Minus_One", func(t *testing.T) {
		t.Parallel()
		scanner, mock := newScanner(t)
		require.True(t, scanner.Init())

		mock.SetError(cmdGetEnrollCount, NewTransportReadError("SendCommand", "mock"))
		assert.Equal(t, -1, scanner.GetEnrolledCnt())
		assert.ErrorIs(t, scanner.LastError(), ErrTransportRead)

		// A subsequent success clears the recorded error
		mock.ClearError(cmdGetEnrollCount)
		mock.SetResponse(cmdGetEnrollCount, AckResponse(4))
		assert.Equal(t, 4, scanner.GetEnrolledCnt())
		require.NoError(t, scanner.LastError())
	})

	t.Run("Identify_No_Match_Is_Minus_One", func(t *testing.T) {
		t.Parallel()
		scanner, mock := newScanner(t)
		require.True(t, scanner.Init())

		mock.SetResponse(cmdIdentify, NackResponse(NackIdentifyFailed))
		assert.Equal(t, -1, scanner.Identify())
		assert.True(t, IsNoMatch(scanner.LastError()), "the structured cause stays available")
	})

	t.Run("Enroll_Failure_Is_Minus_One", func(t *testing.T) {
		t.Parallel()
		scanner, mock := newScanner(t)
		require.True(t, scanner.Init())

		mock.SetResponse(cmdEnrollStart, NackResponse(NackDBIsFull))
		assert.Equal(t, -1, scanner.Enroll(5))
		require.Error(t, scanner.LastError())
	})

	t.Run("Verify_No_Match_Is_False", func(t *testing.T) {
		t.Parallel()
		scanner, mock := newScanner(t)
		require.True(t, scanner.Init())

		mock.SetResponse(cmdVerify, NackResponse(NackVerifyFailed))
		assert.False(t, scanner.Verify(3))
		assert.True(t, IsNoMatch(scanner.LastError()))
	})

	t.Run("Init_Failure_Is_False", func(t *testing.T) {
		t.Parallel()
		scanner, mock := newScanner(t)
		mock.SetError(cmdOpen, NewInvalidResponseError("SendCommand", "mock"))

		assert.False(t, scanner.Init())
		assert.ErrorIs(t, scanner.LastError(), ErrInvalidResponse)
	})
}

func TestScanner_CheckEnrolled(t *testing.T) {
	t.Parallel()

	scanner, mock := newScanner(t)
	require.True(t, scanner.Init())

	assert.True(t, scanner.CheckEnrolled(2))

	mock.SetResponse(cmdCheckEnrolled, NackResponse(NackIsNotUsed))
	assert.False(t, scanner.CheckEnrolled(2))
	require.NoError(t, scanner.LastError(), "an empty slot is not an error")
}

func TestScanner_IsFingerPressed_WrapsLED(t *testing.T) {
	t.Parallel()

	scanner, mock := newScanner(t)
	require.True(t, scanner.Init())
	mock.SetResponse(cmdIsPressFinger, AckResponse(0))

	assert.True(t, scanner.IsFingerPressed())
	assert.Equal(t, []uint32{1, 0}, mock.SentParameters(cmdCmosLed),
		"the light goes on for the check and off after")

	mock.SetResponse(cmdIsPressFinger, AckResponse(1))
	assert.False(t, scanner.IsFingerPressed())
}

func TestScanner_ChangeBaud(t *testing.T) {
	t.Parallel()

	scanner, mock := newScanner(t)
	require.True(t, scanner.Init())

	assert.True(t, scanner.ChangeBaud(115200))
	assert.Equal(t, 115200, mock.BaudRate())

	assert.False(t, scanner.ChangeBaud(4800))
	assert.ErrorIs(t, scanner.LastError(), ErrInvalidBaudRate)
	assert.Equal(t, 115200, mock.BaudRate())
}

func TestScanner_DeleteAll(t *testing.T) {
	t.Parallel()

	scanner, mock := newScanner(t)
	require.True(t, scanner.Init())

	assert.True(t, scanner.DeleteAll())

	mock.SetResponse(cmdDeleteAll, NackResponse(NackDBIsEmpty))
	assert.False(t, scanner.DeleteAll())
}

func TestScanner_OperationsAfterClose(t *testing.T) {
	t.Parallel()

	scanner, _ := newScanner(t)
	require.True(t, scanner.Init())
	require.True(t, scanner.Close())

	assert.False(t, scanner.SetLED(true))
	assert.ErrorIs(t, scanner.LastError(), ErrNotOpen)
	assert.Equal(t, -1, scanner.GetEnrolledCnt())
	assert.Equal(t, -1, scanner.Identify())

	// Closing again stays a clean no-op
	assert.True(t, scanner.Close())
}

func TestScanner_DeviceAccessor(t *testing.T) {
	t.Parallel()

	scanner, _ := newScanner(t)
	require.NotNil(t, scanner.Device())
	assert.Equal(t, TransportMock, scanner.Device().Transport().Type())
}
