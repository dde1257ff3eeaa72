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

// Package blemidi implements the BLE-MIDI wire format defined by the
// Apple/MMA specification: a bidirectional packetizer and parser that
// multiplexes MIDI channel, system-real-time and system-exclusive messages
// into variable-length BLE attribute payloads, with running status and
// interleaved 13-bit timestamps.
//
// The physical BLE transport (GATT notify/write) is not part of this
// package; callers supply an outbound notify function and feed received
// attribute payloads to Decoder.Parse.
package blemidi

import "fmt"

// Status nibbles for channel voice messages (Table: MIDI 1.0 channel
// voice messages).
const (
	StatusNoteOff         = 0x80
	StatusNoteOn          = 0x90
	StatusPolyAftertouch  = 0xA0
	StatusControlChange   = 0xB0
	StatusProgramChange   = 0xC0
	StatusChannelPressure = 0xD0
	StatusPitchBend       = 0xE0
)

// SysEx framing bytes.
const (
	SysExStart = 0xF0
	SysExEnd   = 0xF7
)

// realTimeFloor is the lowest status value reserved for system real-time
// messages (spec: 0xF8..0xFF).
const realTimeFloor = 0xF8

// ChannelMessage is a MIDI channel voice message: status high nibble
// encodes the message type, low nibble the channel. Data2 is zero for
// two-byte (one data byte) messages.
type ChannelMessage struct {
	Status byte
	Data1  byte
	Data2  byte
}

// Channel returns the 0-based MIDI channel encoded in the low nibble of
// Status.
func (m ChannelMessage) Channel() byte {
	return m.Status & 0x0F
}

// Type returns the message type encoded in the high nibble of Status
// (e.g. StatusNoteOn).
func (m ChannelMessage) Type() byte {
	return m.Status & 0xF0
}

// hasTwoDataBytes reports whether a channel voice status carries two data
// bytes on the wire (note on/off, poly aftertouch, control change, pitch
// bend) as opposed to one (program change, channel pressure).
func hasTwoDataBytes(status byte) bool {
	switch status & 0xF0 {
	case StatusNoteOff, StatusNoteOn, StatusPolyAftertouch, StatusControlChange, StatusPitchBend:
		return true
	case StatusProgramChange, StatusChannelPressure:
		return false
	default:
		return false
	}
}

// isChannelStatus reports whether status is a channel voice status byte
// (0x80-0xEF).
func isChannelStatus(status byte) bool {
	return status >= 0x80 && status < SysExStart
}

// dataLength returns how many data bytes follow a channel voice status
// byte, or -1 if status is not a recognized channel voice status.
func dataLength(status byte) int {
	if !isChannelStatus(status) {
		return -1
	}
	if hasTwoDataBytes(status) {
		return 2
	}
	return 1
}

// RealTimeMessage is a single-byte MIDI system real-time message
// (0xF8-0xFF), permitted anywhere in the stream including mid-SysEx.
type RealTimeMessage struct {
	Status byte
}

// Valid reports whether Status falls in the real-time range.
func (m RealTimeMessage) Valid() bool {
	return m.Status >= realTimeFloor
}

// SysExMessage is a well-formed system-exclusive message: it begins with
// SysExStart and ends with SysExEnd, with all interior bytes below 0x80.
type SysExMessage struct {
	Data []byte
}

// Valid reports whether the message is correctly framed.
func (m SysExMessage) Valid() bool {
	if len(m.Data) < 2 {
		return false
	}
	if m.Data[0] != SysExStart || m.Data[len(m.Data)-1] != SysExEnd {
		return false
	}
	for _, b := range m.Data[1 : len(m.Data)-1] {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

func (m ChannelMessage) String() string {
	return fmt.Sprintf("Channel{status=%#02x ch=%d d1=%#02x d2=%#02x}", m.Status, m.Channel(), m.Data1, m.Data2)
}

func (m RealTimeMessage) String() string {
	return fmt.Sprintf("RealTime{status=%#02x}", m.Status)
}

func (m SysExMessage) String() string {
	return fmt.Sprintf("SysEx{%d bytes}", len(m.Data))
}
