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
	"errors"
	"fmt"
	"io"
	"syscall"
)

// Error categories for error handling and retry logic
var (
	// Transport errors - potentially retryable
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportClosed  = errors.New("transport is closed")

	// Frame errors - potentially retryable
	ErrFrameCorrupted   = errors.New("frame corrupted")
	ErrChecksumMismatch = errors.New("response checksum mismatch")
	ErrDeviceIDMismatch = errors.New("response device ID mismatch")
	ErrInvalidResponse  = errors.New("invalid response format")

	// Session errors - caller misuse, not retryable
	ErrNotOpen         = errors.New("session not open")
	ErrSessionDegraded = errors.New("session degraded after failed baud switch")

	// Data errors - not retryable
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidBaudRate  = errors.New("baud rate outside 9600..115200")

	// Device errors - not retryable
	ErrDeviceNotFound = errors.New("device not found")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
	// ErrorTypeTimeout indicates a timeout error (special handling)
	ErrorTypeTimeout
)

// TransportError wraps transport-level errors with additional context
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeviceError is a NACK from the sensor: the device answered but rejected
// the request. Code carries the raw parameter field of the NACK response.
type DeviceError struct {
	Command string
	Code    uint32
}

func (e *DeviceError) Error() string {
	if id, ok := e.EnrolledID(); ok {
		return fmt.Sprintf("%s rejected: finger already enrolled at ID %d", e.Command, id)
	}
	return fmt.Sprintf("%s rejected: device error 0x%04X (%s)", e.Command, e.Code, deviceErrorMeaning(e.Code))
}

// EnrolledID decodes the duplicate-finger form of an EnrollStart NACK,
// where the parameter is the ID the finger is already stored under rather
// than an error code.
func (e *DeviceError) EnrolledID() (int, bool) {
	if e.Code <= MaxEnrollID {
		return int(e.Code), true
	}
	return 0, false
}

// IsNoMatch returns true if the device reported a failed match rather
// than a malfunction.
func (e *DeviceError) IsNoMatch() bool {
	return e.Code == NackIdentifyFailed || e.Code == NackVerifyFailed
}

// IsFingerNotPressed returns true if the rejection only means no finger
// was on the sensor when a capture was requested.
func (e *DeviceError) IsFingerNotPressed() bool {
	return e.Code == NackFingerIsNotPressed
}

// deviceErrorMeaning returns a human-readable meaning for GT-511C3 NACK
// error codes, per the device datasheet response table.
func deviceErrorMeaning(code uint32) string {
	meanings := map[uint32]string{
		NackTimeout:            "capture timeout",
		NackInvalidBaudrate:    "invalid baud rate",
		NackInvalidPosition:    "template ID out of range",
		NackIsNotUsed:          "template ID not in use",
		NackIsAlreadyUsed:      "template ID already in use",
		NackCommErr:            "communication error",
		NackVerifyFailed:       "verification failed",
		NackIdentifyFailed:     "no matching fingerprint",
		NackDBIsFull:           "template database full",
		NackDBIsEmpty:          "template database empty",
		NackTurnErr:            "enrollment step out of order",
		NackBadFinger:          "fingerprint image too poor",
		NackEnrollFailed:       "enrollment failed",
		NackIsNotSupported:     "command not supported",
		NackDevErr:             "device error",
		NackCaptureCanceled:    "capture canceled",
		NackInvalidParam:       "invalid parameter",
		NackFingerIsNotPressed: "finger is not pressed",
	}
	if m, ok := meanings[code]; ok {
		return m
	}
	return "unknown error"
}

// NewDeviceError creates a DeviceError for a NACKed command
func NewDeviceError(command string, code uint32) *DeviceError {
	return &DeviceError{Command: command, Code: code}
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	var de *DeviceError
	if errors.As(err, &de) {
		// A missing finger or a poor image clears up when the user
		// presses again; everything else reflects device state that a
		// bare retry cannot change.
		switch de.Code {
		case NackFingerIsNotPressed, NackBadFinger, NackTimeout, NackCommErr:
			return true
		default:
			return false
		}
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch):
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error indicates the device or connection is
// gone and the session cannot continue. This is distinct from IsRetryable,
// which says whether a single operation can be re-issued.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	if isDeviceGoneError(err) {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, ErrSessionDegraded),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// IsNoMatch reports whether err is a device NACK meaning "no matching
// fingerprint" from Identify or Verify.
func IsNoMatch(err error) bool {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.IsNoMatch()
	}
	return false
}

// isDeviceGoneError checks for OS-level errors indicating the USB serial
// adapter was unplugged during I/O.
func isDeviceGoneError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		//nolint:exhaustive // Only checking specific device-gone errors
		switch errno {
		case syscall.EIO, syscall.ENXIO, syscall.ENODEV:
			return true
		}
	}

	return false
}

// Error constructors for consistent error creation

// NewTransportError creates a standard transport error with consistent formatting
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a timeout error for transport operations
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewTransportWriteError creates a write error (transient)
func NewTransportWriteError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportWrite, ErrorTypeTransient)
}

// NewTransportReadError creates a read error (transient)
func NewTransportReadError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportRead, ErrorTypeTransient)
}

// NewFrameCorruptedError creates a frame corruption error (transient)
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, ErrorTypeTransient)
}

// NewChecksumMismatchError creates a checksum mismatch error (transient)
func NewChecksumMismatchError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrChecksumMismatch, ErrorTypeTransient)
}

// NewDeviceIDMismatchError creates an error for a response echoing an
// unexpected device ID (transient; usually stale bytes from another rate)
func NewDeviceIDMismatchError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDeviceIDMismatch, ErrorTypeTransient)
}

// NewInvalidResponseError creates an invalid response error (permanent)
func NewInvalidResponseError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrInvalidResponse, ErrorTypePermanent)
}

// NewTransportClosedError creates an error for operations on a closed
// transport (permanent)
func NewTransportClosedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportClosed, ErrorTypePermanent)
}
