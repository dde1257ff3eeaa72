/*
Copyright (c) The go-blemidi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package blemidi

import "errors"

// Parser error kinds. All are recoverable: they never reach the Sink
// callbacks, and the parser resynchronizes at the next valid packet or
// event boundary.
var (
	// ErrInvalidHeader is returned when a packet's first byte does not
	// match the 10xxxxxx header pattern. The whole packet is discarded.
	ErrInvalidHeader = errors.New("blemidi: invalid packet header")
	// ErrUnexpectedDataByte is returned when a data byte is encountered
	// with no current status and no running status to attribute it to.
	ErrUnexpectedDataByte = errors.New("blemidi: unexpected data byte")
	// ErrTruncatedEvent is returned when a packet ends in the middle of
	// an event. A SysEx accumulator in progress is preserved across the
	// truncation for the next packet.
	ErrTruncatedEvent = errors.New("blemidi: truncated event")
	// ErrSysExOverflow is returned when a SysEx message exceeds the
	// parser's accumulator capacity. The in-progress SysEx is discarded
	// and the parser returns to Idle at once, skipping the rest of that
	// run of data bytes. It does not wait for the SysEx end byte: bytes of
	// the same SysEx arriving in later packets are not recognized as such
	// and are dropped as unexpected data.
	ErrSysExOverflow = errors.New("blemidi: sysex accumulator overflow")
)

// errInvalidMTU is returned by ForceMinMTU for an MTU below the 5-byte
// floor (header + tsLow + status, the smallest possible event).
var errInvalidMTU = errors.New("blemidi: mtu must be >= 5")
