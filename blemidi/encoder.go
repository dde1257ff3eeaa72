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
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Clock abstracts now_ms(): callers inject their own millisecond clock so
// the packetizer never depends on wall-clock time directly. Only the low
// 13 bits of the returned value are significant to the wire format.
type Clock interface {
	NowMS() uint32
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() uint32

// NowMS implements Clock.
func (f ClockFunc) NowMS() uint32 { return f() }

// NotifyFunc is called with a complete outbound BLE-MIDI packet (header +
// events), length always in [3, mtu]. It is never called with an empty
// payload. notifyMIDIBLE is assumed to succeed; transport-level failures
// are the transport's concern, not the packetizer's (spec §7).
type NotifyFunc func(packet []byte)

const (
	// DefaultMTU matches the BLE default ATT MTU (23 bytes), giving a
	// 20-byte usable payload once the 3-byte ATT write/notify overhead is
	// subtracted.
	DefaultMTU = 23
	// DefaultTimeout is the default flush dwell window.
	DefaultTimeout = 10 * time.Millisecond
	// minMTU is the smallest MTU ForceMinMTU accepts: header + tsLow +
	// status is the smallest possible event (spec §6).
	minMTU = 5
)

// Packetizer accepts outbound MIDI messages and buffers them into
// BLE-MIDI packets, honoring running status, timestamp re-emission and
// SysEx fragmentation, flushing on MTU exhaustion, explicit Flush, or the
// background scheduler's timeout (spec §4.3-§4.4).
//
// A single mutex protects the packet buffer and all of its metadata;
// NotifyFunc is invoked with the lock held so that emit-then-reset is
// atomic relative to other senders (spec §5).
type Packetizer struct {
	mu sync.Mutex

	clock  Clock
	notify NotifyFunc
	log    *log.Entry
	stats  *Stats
	dedupe *dedupeCache

	mtu     int
	timeout time.Duration
	buf     *packetBuffer

	bufOpenedAtMS uint32
	haveOpenedAt  bool

	activity chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  bool
	closed   bool
}

// NewPacketizer returns a Packetizer using DefaultMTU and DefaultTimeout.
// clock and notify must not be nil.
func NewPacketizer(clock Clock, notify NotifyFunc) *Packetizer {
	p := &Packetizer{
		clock:    clock,
		notify:   notify,
		mtu:      DefaultMTU,
		timeout:  DefaultTimeout,
		activity: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	p.buf = newPacketBuffer(p.mtu - 3)
	return p
}

// Start launches the background flush scheduler (spec §4.4). It is safe
// to never call Start; Close is then a synchronous final flush with no
// goroutine to join.
func (p *Packetizer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.runScheduler()
}

// Close signals the flush scheduler to stop, joins it, and performs a
// final flush of any pending buffer. Safe to call even if Start was never
// invoked, and safe to call more than once.
func (p *Packetizer) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	started := p.started
	p.mu.Unlock()

	if started {
		close(p.stopCh)
		<-p.doneCh
		return
	}
	p.mu.Lock()
	if !p.buf.empty() {
		p.emitLocked()
	}
	p.mu.Unlock()
}

// ForceMinMTU sets the working MTU (a testing hook per spec §4.3); n must
// be >= 5. Pending buffered data is unaffected, but the new capacity
// applies to the next buffer the packetizer opens.
func (p *Packetizer) ForceMinMTU(n int) error {
	if n < minMTU {
		return errInvalidMTU
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mtu = n
	if p.buf.empty() {
		p.buf.reset(p.mtu - 3)
	}
	return nil
}

// SetTimeout sets the flush dwell window applied to subsequent idle
// windows. Zero or negative means flush immediately when idle.
func (p *Packetizer) SetTimeout(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = d
}

// SetLog attaches a logger used for scheduler/parse diagnostics.
func (p *Packetizer) SetLog(l *log.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = l
}

// SetStats attaches a Stats collector. Pass nil to detach.
func (p *Packetizer) SetStats(s *Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = s
}

// SetDedupe enables or disables SysEx dedupe accounting. Pass nil to
// disable. Dedupe is advisory metadata only: it never changes what bytes
// are emitted on the wire (see SPEC_FULL.md §4.5).
func (p *Packetizer) SetDedupe(d *dedupeCache) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dedupe = d
}

func (p *Packetizer) logf(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Debugf(format, args...)
	}
}

// now13 returns the current 13-bit timestamp and the raw millisecond
// reading it was derived from.
func (p *Packetizer) now13() (uint16, uint32) {
	raw := p.clock.NowMS()
	return timestamp13(raw), raw
}

// SendChannelMessage appends a channel voice message, honoring running
// status and timestamp re-emission, emitting the current buffer first if
// it would overflow (spec §4.3 steps 1-5).
func (p *Packetizer) SendChannelMessage(msg ChannelMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, raw := p.now13()
	n := dataLength(msg.Status)
	if n < 0 {
		// Not a recognized channel voice status; nothing sane to encode.
		p.logf("blemidi: SendChannelMessage: unrecognized status %#02x", msg.Status)
		return
	}

	needed := p.channelEventSize(msg.Status, t, n)
	if !p.buf.empty() && needed > p.buf.remaining() {
		p.emitLocked()
	}
	if p.buf.empty() {
		p.openBufferLocked(t, raw)
		p.buf.buf = append(p.buf.buf, encodeTimestampLow(t))
		p.appendStatusAndData(msg, n)
		p.buf.runningStatus = msg.Status
		p.setPrevTSLocked(t)
	} else {
		sameStatus := p.buf.runningStatus == msg.Status
		sameTS := p.buf.havePrevTS && p.buf.prevTimestampLow == byte(t&0x7F)
		switch {
		case sameStatus && sameTS:
			// data bytes only
		case sameStatus:
			p.buf.buf = append(p.buf.buf, encodeTimestampLow(t))
		default:
			p.buf.buf = append(p.buf.buf, encodeTimestampLow(t), msg.Status)
		}
		p.appendStatusAndData(msg, n)
		p.buf.runningStatus = msg.Status
		p.setPrevTSLocked(t)
	}

	if p.stats != nil {
		p.stats.incChannelSent()
	}
}

// appendStatusAndData appends msg's data bytes (n of them) to the buffer.
// It relies on the caller having already appended any status/tsLow bytes
// the event needs.
func (p *Packetizer) appendStatusAndData(msg ChannelMessage, n int) {
	p.buf.buf = append(p.buf.buf, msg.Data1)
	if n == 2 {
		p.buf.buf = append(p.buf.buf, msg.Data2)
	}
}

// channelEventSize computes how many bytes a channel event needs given
// the buffer's current state: data-only (running status + same
// timestamp), tsLow+data (running status, new timestamp), or
// tsLow+status+data (new status), or header+tsLow+status+data if the
// buffer is currently empty.
func (p *Packetizer) channelEventSize(status byte, t uint16, n int) int {
	if p.buf.empty() {
		return 1 + 1 + 1 + n // header + tsLow + status + data
	}
	sameStatus := p.buf.runningStatus == status
	sameTS := p.buf.havePrevTS && p.buf.prevTimestampLow == byte(t&0x7F)
	switch {
	case sameStatus && sameTS:
		return n
	case sameStatus:
		return 1 + n
	default:
		return 1 + 1 + n
	}
}

// openBufferLocked writes the header byte for a fresh buffer and arms the
// flush scheduler's dwell timer.
func (p *Packetizer) openBufferLocked(t uint16, raw uint32) {
	p.buf.writeHeader(t)
	p.bufOpenedAtMS = raw
	p.haveOpenedAt = true
	p.signalActivity()
}

func (p *Packetizer) setPrevTSLocked(t uint16) {
	p.buf.prevTimestampLow = byte(t & 0x7F)
	p.buf.havePrevTS = true
}

// SendRealTime appends a single-byte real-time message. Real-time
// messages are always preceded by a timestamp-low byte, even when the
// buffer is non-empty, and never modify running status (spec §4.3).
func (p *Packetizer) SendRealTime(status byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, raw := p.now13()
	needed := 2 // tsLow + status
	if p.buf.empty() {
		needed += 1 // header
	}
	if !p.buf.empty() && needed > p.buf.remaining() {
		p.emitLocked()
	}
	if p.buf.empty() {
		p.openBufferLocked(t, raw)
	}
	p.buf.buf = append(p.buf.buf, encodeTimestampLow(t), status)
	// Real-time does not alter running status or prevTimestampLow: a
	// subsequent channel event still compares against the last channel
	// event's timestamp, not this one.

	if p.stats != nil {
		p.stats.incRealTimeSent()
	}
}

// Send emits msg as one or more BLE-MIDI packets, fragmenting across the
// MTU as needed (spec §4.3 SysEx algorithm). SysEx always starts in a
// fresh packet: any pending buffer is flushed first. The final fragment
// may remain buffered, to be flushed by Flush, the scheduler's timeout,
// or Close.
func (p *Packetizer) Send(msg SysExMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !msg.Valid() {
		p.logf("blemidi: Send: malformed sysex, %d bytes", len(msg.Data))
		return
	}

	if p.dedupe != nil {
		if p.dedupe.noteAndCheck(msg.Data) && p.stats != nil {
			p.stats.incDedupeHits()
		}
	}

	if !p.buf.empty() {
		p.emitLocked()
	}

	interior := msg.Data[1 : len(msg.Data)-1]
	t, raw := p.now13()
	p.openBufferLocked(t, raw)
	p.buf.buf = append(p.buf.buf, encodeTimestampLow(t), SysExStart)
	p.buf.runningStatus = 0
	p.buf.havePrevTS = false

	for {
		room := p.buf.remaining()
		if len(interior)+2 <= room {
			p.buf.buf = append(p.buf.buf, interior...)
			tf, _ := p.now13()
			p.buf.buf = append(p.buf.buf, encodeTimestampLow(tf), SysExEnd)
			if p.stats != nil {
				p.stats.incSysExSent()
			}
			return
		}
		n := room
		if n > len(interior) {
			n = len(interior)
		}
		p.buf.buf = append(p.buf.buf, interior[:n]...)
		interior = interior[n:]
		p.emitLocked()

		tc, rawc := p.now13()
		p.openBufferLocked(tc, rawc)
		// Continuation packets carry only the header, no timestamp-low
		// byte (spec §9 design note, resolved per spec.md's stated
		// preference).
	}
}

// Flush force-emits any non-empty buffer immediately.
func (p *Packetizer) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.buf.empty() {
		p.emitLocked()
	}
}

// emitLocked calls notify with the buffer's contents, updates stats, and
// resets the buffer. Caller must hold p.mu.
func (p *Packetizer) emitLocked() {
	packet := p.buf.bytes()
	if p.stats != nil {
		p.stats.incPacketsEmitted()
		p.stats.addBytesSent(len(packet))
		if p.haveOpenedAt {
			raw := p.clock.NowMS()
			p.stats.recordFlushLatency(float64(raw - p.bufOpenedAtMS))
		}
	}
	p.notify(packet)
	p.buf.reset(p.mtu - 3)
	p.haveOpenedAt = false
}
