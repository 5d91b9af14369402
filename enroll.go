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
	"fmt"
)

// enrollState is the finite state machine for the three-capture
// enrollment sequence. Transitions only move forward; any failure aborts
// the whole sequence and the device discards its partial enrollment
// state, so a retry restarts from StartEnroll.
type enrollState int

const (
	stateStartEnroll enrollState = iota
	stateCapture1
	stateCapture2
	stateCapture3
	stateDone
)

func (s enrollState) String() string {
	switch s {
	case stateStartEnroll:
		return "StartEnroll"
	case stateCapture1:
		return "Capture1"
	case stateCapture2:
		return "Capture2"
	case stateCapture3:
		return "Capture3"
	case stateDone:
		return "Done"
	default:
		return fmt.Sprintf("enrollState(%d)", int(s))
	}
}

// enrollment carries one enrollment run through the state machine.
type enrollment struct {
	dev   *Device
	id    int
	state enrollState
}

// Enroll runs the full enrollment sequence for a template ID: EnrollStart,
// then three capture-and-template rounds. Each capture step polls the
// sensor until a finger is read, bounded by the device's retry
// configuration. The user must lift and press the finger between
// captures.
//
// A NACK, transport error or timeout at any step aborts the sequence with
// the structured cause; the caller may retry the whole call.
func (d *Device) Enroll(id int) error {
	return d.EnrollWithContext(context.Background(), id)
}

// EnrollWithContext is Enroll with context support
func (d *Device) EnrollWithContext(ctx context.Context, id int) error {
	if err := validateEnrollID(id); err != nil {
		return err
	}

	e := &enrollment{dev: d, id: id, state: stateStartEnroll}
	for e.state != stateDone {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("enrollment canceled in %s: %w", e.state, err)
		}

		var err error
		switch e.state {
		case stateStartEnroll:
			err = e.start()
		case stateCapture1, stateCapture2, stateCapture3:
			err = e.capture(ctx)
		case stateDone:
		}
		if err != nil {
			return fmt.Errorf("enrollment failed in %s: %w", e.state, err)
		}
	}
	return nil
}

// start issues EnrollStart and advances to the first capture.
func (e *enrollment) start() error {
	if err := e.dev.StartEnroll(e.id); err != nil {
		return err
	}
	e.state = stateCapture1
	return nil
}

// step returns the 1-based capture number for the current state.
func (e *enrollment) step() int {
	return int(e.state-stateCapture1) + 1
}

// capture polls CaptureFinger until the sensor reads a finger, then
// issues the matching EnrollN command and advances the machine. Capture
// polling uses best-quality captures, which the datasheet recommends for
// enrollment.
func (e *enrollment) capture(ctx context.Context) error {
	step := e.step()
	Debugf("enrollment capture %d/3 for ID %d", step, e.id)

	err := RetryWithConfig(ctx, e.dev.config.RetryConfig, func() error {
		return e.dev.CaptureFingerContext(ctx, true)
	})
	if err != nil {
		return err
	}

	if err := e.dev.enrollTemplate(ctx, step); err != nil {
		return err
	}

	if e.state == stateCapture3 {
		e.state = stateDone
	} else {
		e.state++
	}
	return nil
}
