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

// Package testing provides test utilities including a wire-level GT-511C3
// simulator.
//
// The VirtualGT511 type implements io.ReadWriter and simulates the sensor
// at the frame protocol level: 12-byte command packets in, 12-byte
// ACK/NACK responses out, with a template database and the three-capture
// enrollment sequence behind them. It deliberately builds and checks
// frames with its own code so transport tests do not validate the
// implementation against itself.
package testing

import (
	"bytes"
	"encoding/binary"
)

// Frame constants, duplicated from the GT-511C3 datasheet on purpose.
const (
	commandStart1 = 0x55
	commandStart2 = 0xAA
	frameLength   = 12

	responseAck  uint16 = 0x30
	responseNack uint16 = 0x31
)

// Command codes handled by the simulator
const (
	CmdOpen           uint16 = 0x01
	CmdClose          uint16 = 0x02
	CmdChangeBaudrate uint16 = 0x04
	CmdCmosLed        uint16 = 0x12
	CmdGetEnrollCount uint16 = 0x20
	CmdCheckEnrolled  uint16 = 0x21
	CmdEnrollStart    uint16 = 0x22
	CmdEnroll1        uint16 = 0x23
	CmdEnroll2        uint16 = 0x24
	CmdEnroll3        uint16 = 0x25
	CmdIsPressFinger  uint16 = 0x26
	CmdDeleteID       uint16 = 0x40
	CmdDeleteAll      uint16 = 0x41
	CmdVerify         uint16 = 0x50
	CmdIdentify       uint16 = 0x51
	CmdCaptureFinger  uint16 = 0x60
)

// Device error codes the simulator emits
const (
	NackInvalidBaudrate    uint32 = 0x1002
	NackInvalidPosition    uint32 = 0x1003
	NackIsNotUsed          uint32 = 0x1004
	NackIsAlreadyUsed      uint32 = 0x1005
	NackCommErr            uint32 = 0x1006
	NackVerifyFailed       uint32 = 0x1007
	NackIdentifyFailed     uint32 = 0x1008
	NackDBIsFull           uint32 = 0x1009
	NackDBIsEmpty          uint32 = 0x100A
	NackTurnErr            uint32 = 0x100B
	NackEnrollFailed       uint32 = 0x100D
	NackIsNotSupported     uint32 = 0x100E
	NackFingerIsNotPressed uint32 = 0x1012
)

const maxTemplates = 200

// validBaudRates are the rates the real sensor accepts for
// ChangeBaudrate.
var validBaudRates = map[uint32]bool{
	9600: true, 19200: true, 38400: true, 57600: true, 115200: true,
}

// VirtualGT511 simulates a GT-511C3 sensor at the wire protocol level.
// It implements io.ReadWriter to plug directly into transport tests.
//
// Not safe for concurrent use; the transport under test serializes
// access, matching the single request/response nature of the protocol.
type VirtualGT511 struct {
	rxBuffer bytes.Buffer
	txBuffer bytes.Buffer

	opened    bool
	ledOn     bool
	baudRate  uint32
	templates map[int]bool

	// Presented finger: present on the window, and which enrolled ID it
	// would match (-1 for an unknown finger).
	fingerPresent bool
	fingerID      int
	captured      bool

	// Enrollment in progress: target ID and next expected step (1-3).
	enrollID   int
	enrollStep int

	// Fault injection
	corruptNextChecksum bool
	dropResponses       map[uint16]bool
	forcedNacks         map[uint16]uint32
	echoDeviceID        uint16
}

// NewVirtualGT511 creates a simulator with an empty template database and
// no finger on the window.
func NewVirtualGT511() *VirtualGT511 {
	return &VirtualGT511{
		echoDeviceID:  0x0001,
		baudRate:      9600,
		templates:     make(map[int]bool),
		fingerID:      -1,
		enrollID:      -1,
		dropResponses: make(map[uint16]bool),
		forcedNacks:   make(map[uint16]uint32),
	}
}

// Write accepts bytes from the host. Complete 12-byte frames are handled
// immediately and their responses queued for Read.
func (v *VirtualGT511) Write(p []byte) (int, error) {
	v.rxBuffer.Write(p)
	for v.rxBuffer.Len() >= frameLength {
		cmd := make([]byte, frameLength)
		_, _ = v.rxBuffer.Read(cmd)
		v.handleFrame(cmd)
	}
	return len(p), nil
}

// Read hands queued response bytes to the host. An empty queue reads as
// zero bytes, which a transport sees as a pending timeout.
func (v *VirtualGT511) Read(p []byte) (int, error) {
	if v.txBuffer.Len() == 0 {
		return 0, nil
	}
	return v.txBuffer.Read(p)
}

// handleFrame validates one command frame and queues the response.
func (v *VirtualGT511) handleFrame(buf []byte) {
	if buf[0] != commandStart1 || buf[1] != commandStart2 {
		// Garbage between frames; the real sensor stays silent.
		return
	}
	if checksum(buf[:10]) != binary.LittleEndian.Uint16(buf[10:12]) {
		v.respond(CmdOpen, responseNack, NackCommErr)
		return
	}

	code := binary.LittleEndian.Uint16(buf[8:10])
	parameter := binary.LittleEndian.Uint32(buf[4:8])

	if v.dropResponses[code] {
		return
	}
	if nackCode, ok := v.forcedNacks[code]; ok {
		v.respond(code, responseNack, nackCode)
		return
	}

	v.dispatch(code, parameter)
}

//nolint:gocyclo // One branch per device command keeps the map readable
func (v *VirtualGT511) dispatch(code uint16, parameter uint32) {
	switch code {
	case CmdOpen:
		v.opened = true
		v.ack(code, 0)
	case CmdClose:
		v.opened = false
		v.ack(code, 0)
	case CmdChangeBaudrate:
		if !validBaudRates[parameter] {
			v.nack(code, NackInvalidBaudrate)
			return
		}
		v.baudRate = parameter
		v.ack(code, 0)
	case CmdCmosLed:
		v.ledOn = parameter != 0
		v.ack(code, 0)
	case CmdGetEnrollCount:
		v.ack(code, uint32(len(v.templates)))
	case CmdCheckEnrolled:
		v.checkEnrolled(code, parameter)
	case CmdEnrollStart:
		v.enrollStart(code, parameter)
	case CmdEnroll1, CmdEnroll2, CmdEnroll3:
		v.enrollTemplate(code)
	case CmdIsPressFinger:
		if v.fingerPresent {
			v.ack(code, 0)
		} else {
			v.ack(code, 1)
		}
	case CmdDeleteID:
		v.deleteID(code, parameter)
	case CmdDeleteAll:
		if len(v.templates) == 0 {
			v.nack(code, NackDBIsEmpty)
			return
		}
		v.templates = make(map[int]bool)
		v.ack(code, 0)
	case CmdVerify:
		v.verify(code, parameter)
	case CmdIdentify:
		v.identify(code)
	case CmdCaptureFinger:
		if !v.fingerPresent {
			v.nack(code, NackFingerIsNotPressed)
			return
		}
		v.captured = true
		v.ack(code, 0)
	default:
		v.nack(code, NackIsNotSupported)
	}
}

func (v *VirtualGT511) checkEnrolled(code uint16, parameter uint32) {
	if parameter >= maxTemplates {
		v.nack(code, NackInvalidPosition)
		return
	}
	if !v.templates[int(parameter)] {
		v.nack(code, NackIsNotUsed)
		return
	}
	v.ack(code, 0)
}

func (v *VirtualGT511) enrollStart(code uint16, parameter uint32) {
	switch {
	case parameter >= maxTemplates:
		v.nack(code, NackInvalidPosition)
	case v.templates[int(parameter)]:
		v.nack(code, NackIsAlreadyUsed)
	case len(v.templates) >= maxTemplates:
		v.nack(code, NackDBIsFull)
	default:
		v.enrollID = int(parameter)
		v.enrollStep = 1
		v.captured = false
		v.ack(code, 0)
	}
}

func (v *VirtualGT511) enrollTemplate(code uint16) {
	step := int(code-CmdEnroll1) + 1
	if v.enrollID < 0 || step != v.enrollStep {
		v.nack(code, NackTurnErr)
		return
	}
	if !v.captured {
		v.nack(code, NackEnrollFailed)
		return
	}
	v.captured = false
	if step == 3 {
		v.templates[v.enrollID] = true
		v.fingerID = v.enrollID
		v.enrollID = -1
		v.enrollStep = 0
	} else {
		v.enrollStep++
	}
	v.ack(code, 0)
}

func (v *VirtualGT511) deleteID(code uint16, parameter uint32) {
	if parameter >= maxTemplates {
		v.nack(code, NackInvalidPosition)
		return
	}
	if !v.templates[int(parameter)] {
		v.nack(code, NackIsNotUsed)
		return
	}
	delete(v.templates, int(parameter))
	v.ack(code, 0)
}

func (v *VirtualGT511) verify(code uint16, parameter uint32) {
	if parameter >= maxTemplates {
		v.nack(code, NackInvalidPosition)
		return
	}
	if !v.templates[int(parameter)] {
		v.nack(code, NackIsNotUsed)
		return
	}
	if !v.captured || v.fingerID != int(parameter) {
		v.nack(code, NackVerifyFailed)
		return
	}
	v.captured = false
	v.ack(code, 0)
}

func (v *VirtualGT511) identify(code uint16) {
	if v.captured && v.fingerID >= 0 && v.templates[v.fingerID] {
		v.captured = false
		v.ack(code, uint32(v.fingerID))
		return
	}
	v.captured = false
	v.nack(code, NackIdentifyFailed)
}

func (v *VirtualGT511) ack(code uint16, parameter uint32) {
	v.respond(code, responseAck, parameter)
}

func (v *VirtualGT511) nack(code uint16, errorCode uint32) {
	v.respond(code, responseNack, errorCode)
}

// respond queues one response frame, applying checksum fault injection.
func (v *VirtualGT511) respond(_, response uint16, parameter uint32) {
	buf := make([]byte, frameLength)
	buf[0] = commandStart1
	buf[1] = commandStart2
	binary.LittleEndian.PutUint16(buf[2:4], v.echoDeviceID)
	binary.LittleEndian.PutUint32(buf[4:8], parameter)
	binary.LittleEndian.PutUint16(buf[8:10], response)
	binary.LittleEndian.PutUint16(buf[10:12], checksum(buf[:10]))

	if v.corruptNextChecksum {
		buf[10] ^= 0xFF
		v.corruptNextChecksum = false
	}

	v.txBuffer.Write(buf)
}

func checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// Test helper methods

// PressFinger puts a finger on the window. matchID is the enrolled ID
// the finger would match, or -1 for an unknown finger.
func (v *VirtualGT511) PressFinger(matchID int) {
	v.fingerPresent = true
	v.fingerID = matchID
}

// ReleaseFinger removes the finger from the window
func (v *VirtualGT511) ReleaseFinger() {
	v.fingerPresent = false
}

// AddTemplate stores a template directly, bypassing enrollment
func (v *VirtualGT511) AddTemplate(id int) {
	v.templates[id] = true
}

// TemplateCount returns the number of stored templates
func (v *VirtualGT511) TemplateCount() int {
	return len(v.templates)
}

// HasTemplate reports whether a template is stored at id
func (v *VirtualGT511) HasTemplate(id int) bool {
	return v.templates[id]
}

// Opened reports whether a session is open
func (v *VirtualGT511) Opened() bool {
	return v.opened
}

// LEDOn reports the backlight state
func (v *VirtualGT511) LEDOn() bool {
	return v.ledOn
}

// BaudRate returns the simulated line speed
func (v *VirtualGT511) BaudRate() uint32 {
	return v.baudRate
}

// CorruptNextChecksum makes the next response frame carry a bad checksum
func (v *VirtualGT511) CorruptNextChecksum() {
	v.corruptNextChecksum = true
}

// DropResponses makes the simulator swallow commands with the given
// code, so the host times out
func (v *VirtualGT511) DropResponses(code uint16) {
	v.dropResponses[code] = true
}

// ForceNack makes every command with the given code NACK with errorCode
func (v *VirtualGT511) ForceNack(code uint16, errorCode uint32) {
	v.forcedNacks[code] = errorCode
}

// ClearFaults removes all fault injection
func (v *VirtualGT511) ClearFaults() {
	v.corruptNextChecksum = false
	v.dropResponses = make(map[uint16]bool)
	v.forcedNacks = make(map[uint16]uint32)
}

// SetEchoDeviceID changes the device ID echoed in responses, simulating
// a sensor configured with a different ID
func (v *VirtualGT511) SetEchoDeviceID(id uint16) {
	v.echoDeviceID = id
}

// QueueGarbage prepends raw bytes to the response stream, simulating
// line noise ahead of a frame
func (v *VirtualGT511) QueueGarbage(data []byte) {
	old := v.txBuffer.Bytes()
	combined := append(append([]byte{}, data...), old...)
	v.txBuffer.Reset()
	v.txBuffer.Write(combined)
}
