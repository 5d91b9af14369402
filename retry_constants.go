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

import "time"

// Capture polling constants bound the wait for a finger during
// enrollment and identification.
const (
	// DefaultCaptureAttempts is the number of CaptureFinger polls before
	// a capture step gives up.
	DefaultCaptureAttempts = 10
	// CaptureInitialBackoff is the delay after the first missed capture.
	CaptureInitialBackoff = 250 * time.Millisecond
	// CaptureMaxBackoff caps the delay between capture polls.
	CaptureMaxBackoff = 1 * time.Second
	// CaptureBackoffMultiplier grows the poll delay while waiting for a
	// finger.
	CaptureBackoffMultiplier = 1.5
	// CaptureJitter is the random jitter factor applied to poll delays.
	CaptureJitter = 0.1
	// CaptureRetryTimeout is the overall budget for one capture step.
	CaptureRetryTimeout = 10 * time.Second
)

// Connection retry constants control ConnectDevice behavior.
const (
	// DefaultConnectionRetries is the number of attempts to connect.
	DefaultConnectionRetries = 3
	// ConnectionInitialBackoff is the initial delay between attempts.
	ConnectionInitialBackoff = 100 * time.Millisecond
	// ConnectionMaxBackoff is the maximum delay between attempts.
	ConnectionMaxBackoff = 500 * time.Millisecond
	// ConnectionBackoffMultiplier is the exponential backoff multiplier.
	ConnectionBackoffMultiplier = 2.0
	// ConnectionJitter is the random jitter factor between attempts.
	ConnectionJitter = 0.1
	// ConnectionRetryTimeout is the overall timeout for all attempts.
	ConnectionRetryTimeout = 10 * time.Second
)
