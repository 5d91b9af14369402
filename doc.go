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

/*
Package gt511 provides a pure Go driver for the GT-511C3 optical
fingerprint sensor over a serial transport.

The GT-511C3 stores up to 200 fingerprint templates in its own flash and
performs all image processing and matching in firmware. This driver speaks
the sensor's 12-byte framed command/response protocol: it encodes
commands, verifies response checksums and device-ID echoes, and maps the
sensor's ACK/NACK answers to typed results and errors. Template bytes
never leave the device.

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-gt511"
	    "github.com/ZaparooProject/go-gt511/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	device, err := gt511.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	count, err := device.GetEnrollCount()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("%d fingerprints enrolled\n", count)

	// Enroll a finger at ID 0: three captures, lifting between each
	if err := device.Enroll(0); err != nil {
	    log.Fatal(err)
	}

	// Identify the presented finger
	id, err := device.Identify()
	if gt511.IsNoMatch(err) {
	    fmt.Println("unknown finger")
	} else if err == nil {
	    fmt.Printf("matched ID %d\n", id)
	}

Compatibility Facade:

The Scanner type wraps a Device in the boolean/sentinel interface that
classic GT-511 drivers expose (false or -1 on any failure), while
LastError keeps the structured cause available:

	scanner := gt511.NewScanner(device)
	if scanner.Init() {
	    id := scanner.Identify() // -1 on no match or any failure
	}

Error Handling:

All Device operations return structured errors that can be inspected:

	if errors.Is(err, gt511.ErrNotOpen) {
	    // session was closed
	}

	var de *gt511.DeviceError
	if errors.As(err, &de) {
	    // the sensor NACKed; de.Code carries its status code
	}

Thread Safety:

Device operations are not thread-safe. The protocol allows one
transaction in flight per session; serialize access externally if
multiple goroutines share a device.
*/
package gt511
