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
	"fmt"
)

// Open starts a protocol session. Init calls this as part of its
// handshake; calling it again on an open session is harmless, the device
// ACKs Open at any time.
func (d *Device) Open() error {
	if d.transport == nil || !d.transport.IsConnected() {
		return NewTransportClosedError("Open", "")
	}
	return d.openSession(context.Background())
}

// CloseSession sends the Close command without releasing the transport.
// Most callers want Close, which does both.
func (d *Device) CloseSession() error {
	_, err := d.transact("Close", cmdClose, 0)
	if err != nil {
		return err
	}
	d.opened = false
	return nil
}

// SetLED switches the CMOS backlight LED. The sensor can only capture
// while the LED is on.
func (d *Device) SetLED(on bool) error {
	var parameter uint32
	if on {
		parameter = 1
	}
	_, err := d.transact("CmosLed", cmdCmosLed, parameter)
	return err
}

// GetEnrollCount returns the number of enrolled fingerprints.
func (d *Device) GetEnrollCount() (int, error) {
	resp, err := d.transact("GetEnrollCount", cmdGetEnrollCount, 0)
	if err != nil {
		return 0, err
	}
	return int(resp.Parameter), nil
}

// CheckEnrolled reports whether the given template ID holds a
// fingerprint.
func (d *Device) CheckEnrolled(id int) (bool, error) {
	if err := validateEnrollID(id); err != nil {
		return false, err
	}
	_, err := d.transact("CheckEnrolled", cmdCheckEnrolled, uint32(id))
	if err != nil {
		var de *DeviceError
		if errors.As(err, &de) && de.Code == NackIsNotUsed {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsFingerPressed reports whether a finger is on the sensor window. The
// LED must be on for the detection to work.
func (d *Device) IsFingerPressed() (bool, error) {
	resp, err := d.transact("IsPressFinger", cmdIsPressFinger, 0)
	if err != nil {
		return false, err
	}
	// Parameter 0 means pressed, non-zero means not pressed.
	return resp.Parameter == 0, nil
}

// ChangeBaudRate switches the sensor and the transport to a new line
// speed. The sensor switches immediately after ACKing, so the transport
// must follow before any further command; if the transport-side change
// fails the session is degraded and only Close followed by Init recovers
// it.
func (d *Device) ChangeBaudRate(baud int) error {
	if baud < MinBaudRate || baud > MaxBaudRate {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
	}

	_, err := d.transact("ChangeBaudrate", cmdChangeBaudrate, uint32(baud))
	if err != nil {
		return err
	}

	if err := d.transport.SetBaudRate(baud); err != nil {
		// The device already switched; the session is unusable until
		// it is reopened.
		d.degraded = true
		return fmt.Errorf("%w: device at %d baud but transport reconfigure failed: %w",
			ErrSessionDegraded, baud, err)
	}
	d.config.BaudRate = baud
	return nil
}

// CaptureFinger captures a fingerprint image into the sensor's working
// buffer. With best set, the sensor takes a slower, higher quality
// capture suited to enrollment. Fails with a device NACK
// (NackFingerIsNotPressed) when no finger is on the window.
func (d *Device) CaptureFinger(best bool) error {
	return d.CaptureFingerContext(context.Background(), best)
}

// CaptureFingerContext is CaptureFinger with context support
func (d *Device) CaptureFingerContext(ctx context.Context, best bool) error {
	var parameter uint32
	if best {
		parameter = 1
	}
	_, err := d.transactContext(ctx, "CaptureFinger", cmdCaptureFinger, parameter)
	return err
}

// Delete removes the template stored at the given ID.
func (d *Device) Delete(id int) error {
	if err := validateEnrollID(id); err != nil {
		return err
	}
	_, err := d.transact("DeleteID", cmdDeleteID, uint32(id))
	return err
}

// DeleteAll removes every template from the database.
func (d *Device) DeleteAll() error {
	_, err := d.transact("DeleteAll", cmdDeleteAll, 0)
	return err
}

// Verify captures the presented finger and matches it 1:1 against the
// template at the given ID. A non-match surfaces as a DeviceError with
// NackVerifyFailed; use IsNoMatch to distinguish it from malfunctions.
func (d *Device) Verify(id int) error {
	if err := validateEnrollID(id); err != nil {
		return err
	}
	if err := d.CaptureFinger(false); err != nil {
		return err
	}
	_, err := d.transact("Verify", cmdVerify, uint32(id))
	return err
}

// Identify captures the presented finger and searches the whole database
// 1:N. It returns the matched template ID; a no-match surfaces as a
// DeviceError with NackIdentifyFailed (see IsNoMatch). The matching runs
// entirely in the sensor firmware.
func (d *Device) Identify() (int, error) {
	return d.IdentifyContext(context.Background())
}

// IdentifyContext is Identify with context support
func (d *Device) IdentifyContext(ctx context.Context) (int, error) {
	if err := d.CaptureFingerContext(ctx, false); err != nil {
		return 0, err
	}
	resp, err := d.transactContext(ctx, "Identify", cmdIdentify, 0)
	if err != nil {
		return 0, err
	}
	return int(resp.Parameter), nil
}

// StartEnroll begins an enrollment for the given template ID. The device
// NACKs when the ID is occupied, out of range, or the database is full;
// whether an occupied ID is overwritten or rejected is firmware-defined,
// so the device's own answer is surfaced unmodified.
func (d *Device) StartEnroll(id int) error {
	if err := validateEnrollID(id); err != nil {
		return err
	}
	_, err := d.transact("EnrollStart", cmdEnrollStart, uint32(id))
	return err
}

// enrollTemplate issues the Enroll1/2/3 command for a capture step.
func (d *Device) enrollTemplate(ctx context.Context, step int) error {
	var code uint16
	switch step {
	case 1:
		code = cmdEnroll1
	case 2:
		code = cmdEnroll2
	case 3:
		code = cmdEnroll3
	default:
		return fmt.Errorf("%w: enrollment step %d", ErrInvalidParameter, step)
	}
	_, err := d.transactContext(ctx, fmt.Sprintf("Enroll%d", step), code, 0)
	return err
}

func validateEnrollID(id int) error {
	if id < 0 || id > MaxEnrollID {
		return fmt.Errorf("%w: template ID %d outside 0..%d", ErrInvalidParameter, id, MaxEnrollID)
	}
	return nil
}
