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

// Scanner is a compatibility facade over Device exposing the classic
// GT-511 driver surface: lifecycle and control operations collapse every
// failure into false, ID-returning operations collapse into -1. The
// structured cause of the most recent failure stays available through
// LastError, so diagnostics are not lost to the simplified contract.
//
// Scanner adds no synchronization; like Device it assumes one caller at
// a time.
type Scanner struct {
	device  *Device
	lastErr error
}

// NewScanner wraps a Device in the boolean/sentinel interface:
//
//	transport, err := uart.New("/dev/ttyUSB0")
//	device, err := gt511.New(transport)
//	scanner := gt511.NewScanner(device)
//	if !scanner.Init() {
//	    log.Fatal(scanner.LastError())
//	}
func NewScanner(device *Device) *Scanner {
	return &Scanner{device: device}
}

// Device returns the wrapped Device for callers that want structured
// errors.
func (s *Scanner) Device() *Device {
	return s.device
}

// LastError returns the structured error behind the most recent false or
// -1 result, or nil if the last operation succeeded.
func (s *Scanner) LastError() error {
	return s.lastErr
}

func (s *Scanner) record(err error) bool {
	s.lastErr = err
	return err == nil
}

// Init connects to the sensor and confirms it answers.
func (s *Scanner) Init() bool {
	return s.record(s.device.Init())
}

// Open starts a protocol session.
func (s *Scanner) Open() bool {
	return s.record(s.device.Open())
}

// Close ends the session and releases the port. Closing an
// already-closed scanner is a no-op success.
func (s *Scanner) Close() bool {
	return s.record(s.device.Close())
}

// SetLED switches the sensor backlight.
func (s *Scanner) SetLED(on bool) bool {
	return s.record(s.device.SetLED(on))
}

// GetEnrolledCnt returns the number of enrolled fingerprints, or -1 on
// any failure (including an unopened session).
func (s *Scanner) GetEnrolledCnt() int {
	count, err := s.device.GetEnrollCount()
	if !s.record(err) {
		return -1
	}
	return count
}

// CheckEnrolled reports whether a template is stored at the given ID.
func (s *Scanner) CheckEnrolled(id int) bool {
	enrolled, err := s.device.CheckEnrolled(id)
	return s.record(err) && enrolled
}

// IsFingerPressed lights the sensor, checks for a finger and switches the
// light back off.
func (s *Scanner) IsFingerPressed() bool {
	if !s.record(s.device.SetLED(true)) {
		return false
	}
	pressed, err := s.device.IsFingerPressed()
	ledErr := s.device.SetLED(false)
	if !s.record(err) {
		return false
	}
	s.lastErr = ledErr
	return pressed
}

// ChangeBaud switches the line speed. It returns false without touching
// the device for rates outside 9600..115200.
func (s *Scanner) ChangeBaud(baud int) bool {
	return s.record(s.device.ChangeBaudRate(baud))
}

// Enroll runs the three-capture enrollment for a template ID and returns
// that ID, or -1 on any failure at any step.
func (s *Scanner) Enroll(id int) int {
	if !s.record(s.device.Enroll(id)) {
		return -1
	}
	return id
}

// Delete removes one template.
func (s *Scanner) Delete(id int) bool {
	return s.record(s.device.Delete(id))
}

// DeleteAll wipes the template database.
func (s *Scanner) DeleteAll() bool {
	return s.record(s.device.DeleteAll())
}

// Verify matches the presented finger against one template ID.
func (s *Scanner) Verify(id int) bool {
	return s.record(s.device.Verify(id))
}

// Identify searches the database for the presented finger and returns the
// matched ID, or -1 when nothing matches or anything fails.
func (s *Scanner) Identify() int {
	id, err := s.device.Identify()
	if !s.record(err) {
		return -1
	}
	return id
}
