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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnroll_Success(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)

	require.NoError(t, device.Enroll(7))

	assert.Equal(t, []uint32{7}, mock.SentParameters(cmdEnrollStart))
	assert.Equal(t, 1, mock.GetCallCount(cmdEnroll1))
	assert.Equal(t, 1, mock.GetCallCount(cmdEnroll2))
	assert.Equal(t, 1, mock.GetCallCount(cmdEnroll3))
	assert.Equal(t, 3, mock.GetCallCount(cmdCaptureFinger), "one capture per template")
	assert.Equal(t, []uint32{1, 1, 1}, mock.SentParameters(cmdCaptureFinger),
		"enrollment captures at best quality")
}

func TestEnroll_PollsUntilFingerLands(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)
	// First capture finds no finger, the poll retries and succeeds.
	mock.QueueResponses(cmdCaptureFinger,
		NackResponse(NackFingerIsNotPressed),
		AckResponse(0),
	)

	require.NoError(t, device.Enroll(0))
	assert.Equal(t, 4, mock.GetCallCount(cmdCaptureFinger))
}

func TestEnroll_FingerNeverLands(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)
	mock.SetResponse(cmdCaptureFinger, NackResponse(NackFingerIsNotPressed))

	err := device.Enroll(0)
	require.Error(t, err)

	var deviceErr *DeviceError
	require.True(t, errors.As(err, &deviceErr))
	assert.True(t, deviceErr.IsFingerNotPressed())
	assert.Equal(t, 0, mock.GetCallCount(cmdEnroll1), "no template without a capture")
}

func TestEnroll_StartRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		code uint32
	}{
		{name: "Database_Full", code: NackDBIsFull},
		{name: "Already_Used", code: NackIsAlreadyUsed},
		{name: "Invalid_Position", code: NackInvalidPosition},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := NewMockTransport()
			device := newOpenDevice(t, mock)
			mock.SetResponse(cmdEnrollStart, NackResponse(tt.code))

			err := device.Enroll(0)
			require.Error(t, err)

			var deviceErr *DeviceError
			require.True(t, errors.As(err, &deviceErr))
			assert.Equal(t, tt.code, deviceErr.Code)
			assert.Equal(t, 0, mock.GetCallCount(cmdCaptureFinger),
				"a rejected start must not proceed to captures")
		})
	}
}

func TestEnroll_StepRejected(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)
	mock.SetResponse(cmdEnroll2, NackResponse(NackBadFinger))

	err := device.Enroll(0)
	require.Error(t, err)

	var deviceErr *DeviceError
	require.True(t, errors.As(err, &deviceErr))
	assert.Equal(t, NackBadFinger, deviceErr.Code)
	assert.Equal(t, 1, mock.GetCallCount(cmdEnroll1))
	assert.Equal(t, 0, mock.GetCallCount(cmdEnroll3), "the sequence aborts at the failed step")
}

func TestEnroll_TransportFailureMidSequence(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)
	mock.SetError(cmdEnroll3, NewTransportClosedError("SendCommand", "mock"))

	err := device.Enroll(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportClosed)
}

func TestEnroll_InvalidID(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)

	for _, id := range []int{-1, 200, 1000} {
		err := device.Enroll(id)
		require.Error(t, err, "id %d", id)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	}
	assert.Equal(t, 0, mock.GetCallCount(cmdEnrollStart))
}

func TestEnroll_ContextCanceled(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := device.EnrollWithContext(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, mock.GetCallCount(cmdEnrollStart))
}

func TestEnroll_RequiresOpenSession(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport())
	require.NoError(t, err)

	err = device.Enroll(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestEnrollState_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want  string
		state enrollState
	}{
		{state: stateStartEnroll, want: "StartEnroll"},
		{state: stateCapture1, want: "Capture1"},
		{state: stateCapture2, want: "Capture2"},
		{state: stateCapture3, want: "Capture3"},
		{state: stateDone, want: "Done"},
		{state: enrollState(99), want: "enrollState(99)"},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, tt.state.String())
	}
}
