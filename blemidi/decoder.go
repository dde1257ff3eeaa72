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

import (
	log "github.com/sirupsen/logrus"
)

// parserState is the inbound parser's top-level state.
type parserState int

const (
	stateIdle parserState = iota
	stateInSysEx
)

// defaultSysExCapacity is the fixed-size SysEx accumulator budget; it
// bounds how large an inbound SysEx message may grow across packets
// before ErrSysExOverflow discards it.
const defaultSysExCapacity = 256

// defaultQueueCapacity bounds the inbound event queue between parse()
// and update(). Parse never blocks on a full queue: it drops the event
// and counts it, matching the "never fails, transport-level concern"
// posture outbound also takes.
const defaultQueueCapacity = 256

type eventKind int

const (
	eventChannel eventKind = iota
	eventRealTime
	eventSysEx
)

// queuedEvent is the internal tagged-union representation appended to the
// inbound queue by parse() and drained by Update().
type queuedEvent struct {
	kind     eventKind
	channel  ChannelMessage
	realTime RealTimeMessage
	sysex    []byte
}

// Sink receives decoded BLE-MIDI events from Decoder.Update. Implementations
// must not call back into the Decoder that is invoking them.
type Sink interface {
	OnChannelMessage(ChannelMessage)
	OnSysExMessage(data []byte)
	OnRealTimeMessage(RealTimeMessage)
}

// SinkFuncs is a convenience adapter letting callers register Sink methods
// as plain functions instead of implementing the interface on a type.
type SinkFuncs struct {
	ChannelMessage  func(ChannelMessage)
	SysExMessage    func([]byte)
	RealTimeMessage func(RealTimeMessage)
}

// OnChannelMessage implements Sink.
func (f SinkFuncs) OnChannelMessage(m ChannelMessage) {
	if f.ChannelMessage != nil {
		f.ChannelMessage(m)
	}
}

// OnSysExMessage implements Sink.
func (f SinkFuncs) OnSysExMessage(data []byte) {
	if f.SysExMessage != nil {
		f.SysExMessage(data)
	}
}

// OnRealTimeMessage implements Sink.
func (f SinkFuncs) OnRealTimeMessage(m RealTimeMessage) {
	if f.RealTimeMessage != nil {
		f.RealTimeMessage(m)
	}
}

// Decoder is an incremental BLE-MIDI parser. Each call to Parse consumes
// exactly one BLE packet's attribute payload; running status and
// timestamps are packet-local, but a SysEx accumulator may span packets.
//
// Parse is intended to be called from the transport's receive path and
// Update from a single consumer goroutine that owns the Sink; the two may
// run concurrently, decoupled by a bounded channel.
type Decoder struct {
	Sink Sink

	// Log receives parser diagnostics (malformed packets, overflow). A
	// nil Log is valid; diagnostics are then dropped.
	Log *log.Entry

	Stats *Stats

	state    parserState
	sysexBuf []byte

	queue chan queuedEvent
}

// NewDecoder returns a Decoder ready to Parse packets. sink may be nil and
// set later via the Sink field before the first Update call.
func NewDecoder(sink Sink) *Decoder {
	return &Decoder{
		Sink:     sink,
		sysexBuf: make([]byte, 0, defaultSysExCapacity),
		queue:    make(chan queuedEvent, defaultQueueCapacity),
	}
}

// enqueue appends an event to the bounded inbound queue, dropping it (and
// counting the drop) if the queue is full rather than blocking the
// transport's receive path.
func (d *Decoder) enqueue(e queuedEvent) {
	select {
	case d.queue <- e:
	default:
		d.logf("inbound queue full, dropping %d event", e.kind)
		if d.Stats != nil {
			d.Stats.incDropped()
		}
	}
}

func (d *Decoder) logf(format string, args ...interface{}) {
	if d.Log != nil {
		d.Log.Debugf(format, args...)
	}
}

// Parse decodes one BLE packet (one BLE-MIDI attribute write/notify
// payload) and enqueues any resulting events. It never returns an error:
// malformed input is dropped and logged, per spec (§7 Error handling).
func (d *Decoder) Parse(packet []byte) {
	if len(packet) == 0 {
		return
	}
	if !isValidHeader(packet[0]) {
		d.logf("%v: first byte %#02x", ErrInvalidHeader, packet[0])
		d.countError()
		return
	}

	pos := 1
	var runningStatus byte

	for pos < len(packet) {
		consumed, err := d.parseEvent(packet, pos, &runningStatus)
		if err != nil {
			d.logf("%v at offset %d", err, pos)
			d.countError()
			// Resynchronize: advance past the offending byte and keep
			// trying the rest of the packet, except a truncated event
			// which by definition has nothing left to parse.
			if err == ErrTruncatedEvent {
				return
			}
			// Most errors (e.g. a stray data byte) consume nothing and we
			// advance by one to guarantee progress. Overflow is
			// different: parseSysExContinuation already scanned consumed
			// bytes into sysexBuf before hitting the cap, so skip those
			// too instead of re-parsing each one individually.
			if consumed > 0 {
				pos += consumed
			} else {
				pos++
			}
			continue
		}
		pos += consumed
	}
}

// countError increments the parser's error counter, if Stats is wired.
func (d *Decoder) countError() {
	if d.Stats != nil {
		d.Stats.incParseErrors()
	}
}

// parseEvent decodes a single event (optional timestamp-low, then a
// status+data event, a running-status data-only event, a SysEx
// continuation, or a real-time message) starting at packet[pos]. It
// returns the number of bytes consumed.
func (d *Decoder) parseEvent(packet []byte, pos int, runningStatus *byte) (int, error) {
	start := pos

	if d.state == stateInSysEx {
		return d.parseSysExContinuation(packet, pos)
	}

	b := packet[pos]

	if isTimestampLow(b) {
		pos++
		if pos >= len(packet) {
			return 0, ErrTruncatedEvent
		}
		b = packet[pos]
	}

	if b >= realTimeFloor {
		pos++
		d.enqueue(queuedEvent{kind: eventRealTime, realTime: RealTimeMessage{Status: b}})
		if d.Stats != nil {
			d.Stats.incRealTimeRecv()
		}
		return pos - start, nil
	}

	if b&0x80 != 0 {
		// Explicit status byte.
		switch {
		case b == SysExStart:
			pos++
			d.state = stateInSysEx
			d.sysexBuf = append(d.sysexBuf[:0], SysExStart)
			return pos - start, nil
		case isChannelStatus(b):
			n := dataLength(b)
			if pos+1+n > len(packet) {
				return 0, ErrTruncatedEvent
			}
			msg := ChannelMessage{Status: b, Data1: packet[pos+1]}
			if n == 2 {
				msg.Data2 = packet[pos+2]
			}
			*runningStatus = b
			d.enqueue(queuedEvent{kind: eventChannel, channel: msg})
			if d.Stats != nil {
				d.Stats.incChannelRecv()
			}
			return pos + 1 + n - start, nil
		default:
			// e.g. a stray 0xF7 outside SysEx, or an unsupported system
			// common status. Drop just this byte and resync.
			return 0, ErrUnexpectedDataByte
		}
	}

	// High bit clear: running-status data-only event.
	if *runningStatus == 0 {
		return 0, ErrUnexpectedDataByte
	}
	n := dataLength(*runningStatus)
	if pos+n > len(packet) {
		return 0, ErrTruncatedEvent
	}
	msg := ChannelMessage{Status: *runningStatus, Data1: packet[pos]}
	if n == 2 {
		msg.Data2 = packet[pos+1]
	}
	d.enqueue(queuedEvent{kind: eventChannel, channel: msg})
	if d.Stats != nil {
		d.Stats.incChannelRecv()
	}
	return pos + n - start, nil
}

// parseSysExContinuation consumes bytes while accumulating a SysEx
// message that may have started in an earlier packet. It handles the two
// ways a high-bit byte can interrupt raw SysEx data: a timestamp-low
// preceding the SysEx end byte, or a timestamp-low preceding an
// interleaved real-time message (spec §4.2 step 7).
func (d *Decoder) parseSysExContinuation(packet []byte, pos int) (int, error) {
	start := pos

	overflowed := false
	for pos < len(packet) && packet[pos]&0x80 == 0 {
		if !overflowed && len(d.sysexBuf) >= defaultSysExCapacity {
			d.state = stateIdle
			d.sysexBuf = d.sysexBuf[:0]
			overflowed = true
		}
		if !overflowed {
			d.sysexBuf = append(d.sysexBuf, packet[pos])
		}
		// Once over capacity, keep advancing through the rest of this
		// contiguous run of data bytes: they belong to the same abandoned
		// SysEx message, not to independent events, so there is nothing
		// left to resynchronize on until a status byte shows up.
		pos++
	}
	if overflowed {
		return pos - start, ErrSysExOverflow
	}
	if pos == len(packet) {
		// Ran off the end of the packet mid-SysEx-data: not an error, the
		// accumulator simply continues in the next packet.
		return pos - start, nil
	}

	b := packet[pos]
	if !isTimestampLow(b) {
		// A real-time byte may appear without us having consumed a
		// preceding tsLow if the sender deviated from spec; tolerate it.
		if b >= realTimeFloor {
			pos++
			d.enqueue(queuedEvent{kind: eventRealTime, realTime: RealTimeMessage{Status: b}})
			if d.Stats != nil {
				d.Stats.incRealTimeRecv()
			}
			return pos - start, nil
		}
		return 0, ErrUnexpectedDataByte
	}
	pos++
	if pos >= len(packet) {
		return 0, ErrTruncatedEvent
	}
	b = packet[pos]
	switch {
	case b == SysExEnd:
		pos++
		d.sysexBuf = append(d.sysexBuf, SysExEnd)
		out := make([]byte, len(d.sysexBuf))
		copy(out, d.sysexBuf)
		d.enqueue(queuedEvent{kind: eventSysEx, sysex: out})
		if d.Stats != nil {
			d.Stats.incSysExRecv()
		}
		d.state = stateIdle
		d.sysexBuf = d.sysexBuf[:0]
		return pos - start, nil
	case b >= realTimeFloor:
		pos++
		d.enqueue(queuedEvent{kind: eventRealTime, realTime: RealTimeMessage{Status: b}})
		if d.Stats != nil {
			d.Stats.incRealTimeRecv()
		}
		return pos - start, nil
	default:
		return 0, ErrUnexpectedDataByte
	}
}

// Update drains the inbound queue, invoking the registered Sink once per
// queued event, in submission order. It returns the number of events
// delivered. Update is meant to be called from a single consumer
// goroutine; Sink methods run synchronously on the caller's goroutine.
func (d *Decoder) Update() int {
	delivered := 0
	for {
		select {
		case e := <-d.queue:
			d.deliver(e)
			delivered++
		default:
			return delivered
		}
	}
}

func (d *Decoder) deliver(e queuedEvent) {
	if d.Sink == nil {
		return
	}
	switch e.kind {
	case eventChannel:
		d.Sink.OnChannelMessage(e.channel)
	case eventRealTime:
		d.Sink.OnRealTimeMessage(e.realTime)
	case eventSysEx:
		d.Sink.OnSysExMessage(e.sysex)
	}
}
