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

// GT-511C3 command codes
const (
	cmdOpen             uint16 = 0x01 // Open session, optionally returning device info
	cmdClose            uint16 = 0x02 // Close session
	cmdUsbInternalCheck uint16 = 0x03 // Check if the connected USB device is valid
	cmdChangeBaudrate   uint16 = 0x04 // Change UART baud rate
	cmdSetIAPMode       uint16 = 0x05 // Enter IAP mode for firmware upgrade
	cmdCmosLed          uint16 = 0x12 // Control the CMOS backlight LED
	cmdGetEnrollCount   uint16 = 0x20 // Get enrolled fingerprint count
	cmdCheckEnrolled    uint16 = 0x21 // Check whether the specified ID is enrolled
	cmdEnrollStart      uint16 = 0x22 // Start an enrollment
	cmdEnroll1          uint16 = 0x23 // Make the 1st enrollment template
	cmdEnroll2          uint16 = 0x24 // Make the 2nd enrollment template
	cmdEnroll3          uint16 = 0x25 // Make the 3rd template, merge and store
	cmdIsPressFinger    uint16 = 0x26 // Check if a finger is on the sensor
	cmdDeleteID         uint16 = 0x40 // Delete the template with the specified ID
	cmdDeleteAll        uint16 = 0x41 // Delete all templates
	cmdVerify           uint16 = 0x50 // 1:1 verification against the specified ID
	cmdIdentify         uint16 = 0x51 // 1:N identification against the database
	cmdVerifyTemplate   uint16 = 0x52 // 1:1 verification of an uploaded template
	cmdIdentifyTemplate uint16 = 0x53 // 1:N identification of an uploaded template
	cmdCaptureFinger    uint16 = 0x60 // Capture a fingerprint image
	cmdMakeTemplate     uint16 = 0x61 // Make a template for transmission
	cmdGetImage         uint16 = 0x62 // Download the captured image
	cmdGetRawImage      uint16 = 0x63 // Capture and download a raw image
	cmdGetTemplate      uint16 = 0x70 // Download the template of the specified ID
	cmdSetTemplate      uint16 = 0x71 // Upload a template to the specified ID
)

// Response codes carried in the code field of a response packet.
const (
	// ResponseAck is the positive acknowledgment code.
	ResponseAck uint16 = 0x30
	// ResponseNack is the negative acknowledgment code. The parameter
	// field then carries a device error code.
	ResponseNack uint16 = 0x31
)

// Device error codes returned in the parameter field of a NACK response.
// Values below 0x1000 are not error codes: EnrollStart reports a duplicate
// finger by NACKing with the ID it is already enrolled under.
const (
	NackTimeout            uint32 = 0x1001 // capture timeout expired
	NackInvalidBaudrate    uint32 = 0x1002 // unsupported baud rate requested
	NackInvalidPosition    uint32 = 0x1003 // template ID out of range
	NackIsNotUsed          uint32 = 0x1004 // template ID is not in use
	NackIsAlreadyUsed      uint32 = 0x1005 // template ID is already in use
	NackCommErr            uint32 = 0x1006 // communication error
	NackVerifyFailed       uint32 = 0x1007 // 1:1 verification failed
	NackIdentifyFailed     uint32 = 0x1008 // 1:N identification found no match
	NackDBIsFull           uint32 = 0x1009 // template database is full
	NackDBIsEmpty          uint32 = 0x100A // template database is empty
	NackTurnErr            uint32 = 0x100B // enrollment steps issued out of order
	NackBadFinger          uint32 = 0x100C // fingerprint image too poor to use
	NackEnrollFailed       uint32 = 0x100D // enrollment failed
	NackIsNotSupported     uint32 = 0x100E // command not supported
	NackDevErr             uint32 = 0x100F // device error
	NackCaptureCanceled    uint32 = 0x1010 // capture was canceled
	NackInvalidParam       uint32 = 0x1011 // invalid command parameter
	NackFingerIsNotPressed uint32 = 0x1012 // no finger on the sensor
)

// Baud rates the GT-511C3 accepts for ChangeBaudrate.
const (
	// MinBaudRate is the slowest supported UART rate.
	MinBaudRate = 9600
	// MaxBaudRate is the fastest supported UART rate and the usual
	// operating rate.
	MaxBaudRate = 115200
	// DefaultBaudRate is the rate the sensor uses after power-on.
	DefaultBaudRate = 9600
)

// MaxEnrollID is the highest template ID the GT-511C3 can store. The
// database holds 200 templates at IDs 0..199.
const MaxEnrollID = 199
