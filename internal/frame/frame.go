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

// Package frame implements the GT-511C3 command/response frame format.
//
// Every command and response packet is a fixed 12-byte frame:
//
//	offset 0  : start code 1 (0x55)
//	offset 1  : start code 2 (0xAA)
//	offset 2  : device ID, little-endian uint16 (0x0001 by default)
//	offset 4  : parameter, little-endian uint32
//	offset 8  : command or response code, little-endian uint16
//	offset 10 : checksum, little-endian uint16
//
// The checksum is the 16-bit wraparound sum of the ten bytes that precede
// it. Data packets (start code 0x5A 0xA5) carry template and image
// payloads; this driver never exchanges them, but the parser recognizes
// their marker so they are rejected distinctly from garbage.
package frame

import (
	"encoding/binary"
	"errors"
)

// Frame markers and fixed sizes from the GT-511C3 datasheet.
const (
	CommandStart1 = 0x55 // first byte of a command/response packet
	CommandStart2 = 0xAA // second byte of a command/response packet
	DataStart1    = 0x5A // first byte of a data packet
	DataStart2    = 0xA5 // second byte of a data packet

	// Length is the size of every command and response packet.
	Length = 12

	// DefaultDeviceID is the device ID the GT-511C3 ships with. The
	// device echoes it back in every response.
	DefaultDeviceID uint16 = 0x0001
)

// Parse reject reasons. Callers wrap these into their own error types.
var (
	ErrTooShort     = errors.New("frame shorter than 12 bytes")
	ErrBadStartCode = errors.New("frame start code missing")
	ErrDataFrame    = errors.New("data frame received where response expected")
	ErrChecksum     = errors.New("frame checksum mismatch")
)

// Frame holds the decoded fields of a command or response packet.
type Frame struct {
	DeviceID  uint16
	Code      uint16
	Parameter uint32
}

// Checksum computes the 16-bit wraparound sum over data.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return sum
}

// Build serializes a command packet. It is pure and always succeeds for
// well-formed inputs; the result is a fresh 12-byte slice.
func Build(deviceID, code uint16, parameter uint32) []byte {
	buf := make([]byte, Length)
	buf[0] = CommandStart1
	buf[1] = CommandStart2
	binary.LittleEndian.PutUint16(buf[2:4], deviceID)
	binary.LittleEndian.PutUint32(buf[4:8], parameter)
	binary.LittleEndian.PutUint16(buf[8:10], code)
	binary.LittleEndian.PutUint16(buf[10:12], Checksum(buf[:10]))
	return buf
}

// Parse validates and decodes a 12-byte packet. It rejects short input,
// a wrong or missing start marker, and any checksum mismatch. Extra bytes
// after the first 12 are ignored; resynchronization on a byte stream is
// the transport's job.
func Parse(buf []byte) (*Frame, error) {
	if len(buf) < Length {
		return nil, ErrTooShort
	}
	if buf[0] == DataStart1 && buf[1] == DataStart2 {
		return nil, ErrDataFrame
	}
	if buf[0] != CommandStart1 || buf[1] != CommandStart2 {
		return nil, ErrBadStartCode
	}
	if binary.LittleEndian.Uint16(buf[10:12]) != Checksum(buf[:10]) {
		return nil, ErrChecksum
	}
	return &Frame{
		DeviceID:  binary.LittleEndian.Uint16(buf[2:4]),
		Parameter: binary.LittleEndian.Uint32(buf[4:8]),
		Code:      binary.LittleEndian.Uint16(buf[8:10]),
	}, nil
}
