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
	"time"

	log "github.com/sirupsen/logrus"
)

// Link bundles a Decoder and a Packetizer sharing one Stats (the optional
// dedupe cache belongs to the Packetizer alone), the shape a transport implementation wires up on both ends of a
// BLE-MIDI characteristic (spec §6). It is the package's main entry
// point for callers that want both directions rather than assembling
// Decoder/Packetizer by hand.
type Link struct {
	Decoder    *Decoder
	Packetizer *Packetizer
	Stats      *Stats
}

// Options configures NewLink. Zero value uses DefaultMTU, DefaultTimeout,
// no dedupe window, and a nil logger.
type Options struct {
	MTU            int
	TimeoutMS      int // 0 means DefaultTimeout
	DedupeCapacity int // 0 disables dedupe accounting
	Log            *log.Entry
}

// NewLink wires a Decoder and Packetizer together over clock and notify,
// sharing a single Stats instance so both directions report through the
// same Snapshot/PrometheusExporter.
func NewLink(clock Clock, notify NotifyFunc, sink Sink, opts Options) *Link {
	stats := NewStats()

	dec := NewDecoder(sink)
	dec.Stats = stats
	dec.Log = opts.Log

	pkt := NewPacketizer(clock, notify)
	if opts.MTU > 0 {
		_ = pkt.ForceMinMTU(opts.MTU)
	}
	if opts.TimeoutMS > 0 {
		pkt.SetTimeout(time.Duration(opts.TimeoutMS) * time.Millisecond)
	}
	if opts.DedupeCapacity > 0 {
		pkt.SetDedupe(newDedupeCache(opts.DedupeCapacity))
	}
	pkt.SetStats(stats)
	pkt.SetLog(opts.Log)

	return &Link{Decoder: dec, Packetizer: pkt, Stats: stats}
}

// Start launches the packetizer's background flush scheduler.
func (l *Link) Start() {
	l.Packetizer.Start()
}

// Close stops the packetizer's scheduler and flushes any pending buffer.
func (l *Link) Close() {
	l.Packetizer.Close()
}
