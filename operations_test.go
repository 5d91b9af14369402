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

//nolint:funlen // Test file - long funcs acceptable
package gt511

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetLED(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)

	require.NoError(t, device.SetLED(true))
	require.NoError(t, device.SetLED(false))

	assert.Equal(t, []uint32{1, 0}, mock.SentParameters(cmdCmosLed))
}

func TestGetEnrollCount(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device := newOpenDevice(t, mock)
	mock.SetResponse(cmdGetEnrollCount, AckResponse(17))

	count, err := device.GetEnrollCount()
	require.NoError(t, err)
	assert.Equal(t, 17, count)
}

func TestCheckEnrolled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		response     *Response
		name         string
		wantEnrolled bool
		wantErr      bool
	}{
		{
			name:         "Enrolled",
			response:     AckResponse(0),
			wantEnrolled: true,
		},
		{
			name:     "Empty_Slot",
			response: NackResponse(NackIsNotUsed),
		},
		{
			name:     "Device_Error",
			response: NackResponse(NackDevErr),
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := NewMockTransport()
			device := newOpenDevice(t, mock)
			mock.SetResponse(cmdCheckEnrolled, tt.response)

			enrolled, err := device.CheckEnrolled(3)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnrolled, enrolled)
			assert.Equal(t, []uint32{3}, mock.SentParameters(cmdCheckEnrolled))
		})
	}

	t.Run("Invalid_ID", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		_, err := device.CheckEnrolled(200)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidParameter)
		assert.Equal(t, 0, mock.GetCallCount(cmdCheckEnrolled), "invalid IDs should not reach the device")
	})
}

func TestIsFingerPressed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		parameter   uint32
		wantPressed bool
	}{
		{name: "Pressed", parameter: 0, wantPressed: true},
		{name: "Not_Pressed", parameter: 1, wantPressed: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := NewMockTransport()
			device := newOpenDevice(t, mock)
			mock.SetResponse(cmdIsPressFinger, AckResponse(tt.parameter))

			pressed, err := device.IsFingerPressed()
			require.NoError(t, err)
			assert.Equal(t, tt.wantPressed, pressed)
		})
	}
}

func TestChangeBaudRate(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		require.NoError(t, device.ChangeBaudRate(115200))
		assert.Equal(t, []uint32{115200}, mock.SentParameters(cmdChangeBaudrate))
		assert.Equal(t, 115200, mock.BaudRate())
		assert.True(t, device.IsOpen())
	})

	t.Run("Out_Of_Range", func(t *testing.T) {
		t.Parallel()
		for _, baud := range []int{0, 4800, 9599, 115201, 230400} {
			mock := NewMockTransport()
			device := newOpenDevice(t, mock)

			err := device.ChangeBaudRate(baud)
			require.Error(t, err, "baud %d", baud)
			assert.ErrorIs(t, err, ErrInvalidBaudRate)
			assert.Equal(t, 0, mock.GetCallCount(cmdChangeBaudrate),
				"out-of-range rates must be rejected before any I/O")
		}
	})

	t.Run("Device_Refuses", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdChangeBaudrate, NackResponse(NackInvalidBaudrate))

		err := device.ChangeBaudRate(57600)
		require.Error(t, err)

		var deviceErr *DeviceError
		require.True(t, errors.As(err, &deviceErr))
		assert.Equal(t, NackInvalidBaudrate, deviceErr.Code)
		assert.True(t, device.IsOpen(), "a refused switch leaves the session intact")
	})

	t.Run("Transport_Reconfigure_Fails", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetBaudRateError(errors.New("port gone"))

		err := device.ChangeBaudRate(115200)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSessionDegraded)
		assert.False(t, device.IsOpen())

		// Every further operation fails until the session is reopened
		_, err = device.GetEnrollCount()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSessionDegraded)
	})
}

func TestCaptureFinger(t *testing.T) {
	t.Parallel()

	t.Run("Quality_Parameter", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		require.NoError(t, device.CaptureFinger(false))
		require.NoError(t, device.CaptureFinger(true))
		assert.Equal(t, []uint32{0, 1}, mock.SentParameters(cmdCaptureFinger))
	})

	t.Run("No_Finger", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdCaptureFinger, NackResponse(NackFingerIsNotPressed))

		err := device.CaptureFinger(false)
		require.Error(t, err)

		var deviceErr *DeviceError
		require.True(t, errors.As(err, &deviceErr))
		assert.True(t, deviceErr.IsFingerNotPressed())
		assert.True(t, IsRetryable(err), "missing finger should be a retryable condition")
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("Sends_ID", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		require.NoError(t, device.Delete(5))
		assert.Equal(t, []uint32{5}, mock.SentParameters(cmdDeleteID))
	})

	t.Run("Empty_Slot", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdDeleteID, NackResponse(NackIsNotUsed))

		err := device.Delete(5)
		require.Error(t, err)

		var deviceErr *DeviceError
		require.True(t, errors.As(err, &deviceErr))
		assert.Equal(t, NackIsNotUsed, deviceErr.Code)
	})

	t.Run("Invalid_ID", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		require.Error(t, device.Delete(-1))
		require.Error(t, device.Delete(200))
		assert.Equal(t, 0, mock.GetCallCount(cmdDeleteID))
	})
}

func TestDeleteAll(t *testing.T) {
	t.Parallel()

	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		require.NoError(t, device.DeleteAll())
		assert.Equal(t, 1, mock.GetCallCount(cmdDeleteAll))
	})

	t.Run("Empty_Database", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdDeleteAll, NackResponse(NackDBIsEmpty))

		err := device.DeleteAll()
		require.Error(t, err)

		var deviceErr *DeviceError
		require.True(t, errors.As(err, &deviceErr))
		assert.Equal(t, NackDBIsEmpty, deviceErr.Code)
	})
}

func TestVerify(t *testing.T) {
	t.Parallel()

	t.Run("Captures_Then_Matches", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		require.NoError(t, device.Verify(8))
		assert.Equal(t, []uint32{0}, mock.SentParameters(cmdCaptureFinger), "verify uses a fast capture")
		assert.Equal(t, []uint32{8}, mock.SentParameters(cmdVerify))
	})

	t.Run("No_Match", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdVerify, NackResponse(NackVerifyFailed))

		err := device.Verify(8)
		require.Error(t, err)
		assert.True(t, IsNoMatch(err))
	})

	t.Run("Capture_Failure_Skips_Match", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdCaptureFinger, NackResponse(NackFingerIsNotPressed))

		err := device.Verify(8)
		require.Error(t, err)
		assert.Equal(t, 0, mock.GetCallCount(cmdVerify))
	})
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	t.Run("Match", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdIdentify, AckResponse(42))

		id, err := device.Identify()
		require.NoError(t, err)
		assert.Equal(t, 42, id)
		assert.Equal(t, 1, mock.GetCallCount(cmdCaptureFinger), "identify captures before matching")
	})

	t.Run("No_Match", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdIdentify, NackResponse(NackIdentifyFailed))

		_, err := device.Identify()
		require.Error(t, err)
		assert.True(t, IsNoMatch(err))
	})

	t.Run("Context_Canceled", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := device.IdentifyContext(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStartEnroll(t *testing.T) {
	t.Parallel()

	t.Run("Occupied_ID", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		mock.SetResponse(cmdEnrollStart, NackResponse(NackIsAlreadyUsed))

		err := device.StartEnroll(3)
		require.Error(t, err)

		var deviceErr *DeviceError
		require.True(t, errors.As(err, &deviceErr))
		assert.Equal(t, NackIsAlreadyUsed, deviceErr.Code)
	})

	t.Run("Duplicate_Finger_Reports_ID", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device := newOpenDevice(t, mock)
		// The device reports a duplicate finger by NACKing with the ID it
		// is already stored under.
		mock.SetResponse(cmdEnrollStart, NackResponse(12))

		err := device.StartEnroll(3)
		require.Error(t, err)

		var deviceErr *DeviceError
		require.True(t, errors.As(err, &deviceErr))
		id, ok := deviceErr.EnrolledID()
		assert.True(t, ok)
		assert.Equal(t, 12, id)
	})
}

func TestOperationsRequireOpenSession(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)

	tests := []struct {
		op   func() error
		name string
	}{
		{name: "SetLED", op: func() error { return device.SetLED(true) }},
		{name: "GetEnrollCount", op: func() error { _, err := device.GetEnrollCount(); return err }},
		{name: "CheckEnrolled", op: func() error { _, err := device.CheckEnrolled(0); return err }},
		{name: "IsFingerPressed", op: func() error { _, err := device.IsFingerPressed(); return err }},
		{name: "ChangeBaudRate", op: func() error { return device.ChangeBaudRate(115200) }},
		{name: "CaptureFinger", op: func() error { return device.CaptureFinger(false) }},
		{name: "Delete", op: func() error { return device.Delete(0) }},
		{name: "DeleteAll", op: func() error { return device.DeleteAll() }},
		{name: "Verify", op: func() error { return device.Verify(0) }},
		{name: "Identify", op: func() error { _, err := device.Identify(); return err }},
		{name: "StartEnroll", op: func() error { return device.StartEnroll(0) }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNotOpen)
		})
	}

	assert.Equal(t, 0, mock.GetCallCount(cmdCmosLed))
}
