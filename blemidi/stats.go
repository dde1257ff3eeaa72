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

	"github.com/eclesh/welford"
	"github.com/prometheus/client_golang/prometheus"
)

// Stats collects counters and a running flush-latency distribution for a
// Packetizer/Decoder pair. It is safe for concurrent use: every counter is
// guarded by a single mutex, matching sptp/stats.Stats's approach of a
// plain locked struct rather than atomics scattered across call sites.
type Stats struct {
	mu sync.Mutex

	channelSent   uint64
	channelRecv   uint64
	realTimeSent  uint64
	realTimeRecv  uint64
	sysexSent     uint64
	sysexRecv     uint64
	bytesSent     uint64
	parseErrors   uint64
	dropped       uint64
	packetsEmit   uint64
	dedupeHits    uint64
	flushLatency  *welford.Stats
}

// NewStats returns an empty Stats ready for use.
func NewStats() *Stats {
	return &Stats{flushLatency: welford.New()}
}

func (s *Stats) incChannelSent()  { s.mu.Lock(); s.channelSent++; s.mu.Unlock() }
func (s *Stats) incChannelRecv()  { s.mu.Lock(); s.channelRecv++; s.mu.Unlock() }
func (s *Stats) incRealTimeSent() { s.mu.Lock(); s.realTimeSent++; s.mu.Unlock() }
func (s *Stats) incRealTimeRecv() { s.mu.Lock(); s.realTimeRecv++; s.mu.Unlock() }
func (s *Stats) incSysExSent()    { s.mu.Lock(); s.sysexSent++; s.mu.Unlock() }
func (s *Stats) incSysExRecv()    { s.mu.Lock(); s.sysexRecv++; s.mu.Unlock() }
func (s *Stats) incParseErrors()  { s.mu.Lock(); s.parseErrors++; s.mu.Unlock() }
func (s *Stats) incDropped()      { s.mu.Lock(); s.dropped++; s.mu.Unlock() }
func (s *Stats) incPacketsEmitted() { s.mu.Lock(); s.packetsEmit++; s.mu.Unlock() }
func (s *Stats) incDedupeHits()   { s.mu.Lock(); s.dedupeHits++; s.mu.Unlock() }

func (s *Stats) addBytesSent(n int) {
	s.mu.Lock()
	s.bytesSent += uint64(n)
	s.mu.Unlock()
}

func (s *Stats) recordFlushLatency(ms float64) {
	s.mu.Lock()
	s.flushLatency.Add(ms)
	s.mu.Unlock()
}

// Snapshot is a point-in-time, JSON-able copy of Stats, mirroring
// sptp/stats.Stats's role as the shape handed to the HTTP stats endpoint.
type Snapshot struct {
	ChannelMessagesSent uint64  `json:"channel_messages_sent"`
	ChannelMessagesRecv uint64  `json:"channel_messages_recv"`
	RealTimeSent        uint64  `json:"real_time_sent"`
	RealTimeRecv        uint64  `json:"real_time_recv"`
	SysExSent           uint64  `json:"sysex_sent"`
	SysExRecv           uint64  `json:"sysex_recv"`
	BytesSent           uint64  `json:"bytes_sent"`
	ParseErrors         uint64  `json:"parse_errors"`
	Dropped             uint64  `json:"dropped"`
	PacketsEmitted      uint64  `json:"packets_emitted"`
	DedupeHits          uint64  `json:"dedupe_hits"`
	FlushLatencyMeanMS  float64 `json:"flush_latency_mean_ms"`
	FlushLatencyStdDevMS float64 `json:"flush_latency_stddev_ms"`
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ChannelMessagesSent:   s.channelSent,
		ChannelMessagesRecv:   s.channelRecv,
		RealTimeSent:          s.realTimeSent,
		RealTimeRecv:          s.realTimeRecv,
		SysExSent:             s.sysexSent,
		SysExRecv:             s.sysexRecv,
		BytesSent:             s.bytesSent,
		ParseErrors:           s.parseErrors,
		Dropped:               s.dropped,
		PacketsEmitted:        s.packetsEmit,
		DedupeHits:            s.dedupeHits,
		FlushLatencyMeanMS:    s.flushLatency.Mean(),
		FlushLatencyStdDevMS:  s.flushLatency.Stddev(),
	}
}

// PrometheusExporter registers gauge/counter collectors that read through
// to a Stats on every scrape, following sptp/stats's pattern of a thin
// prometheus.Collector wrapper around an existing stats struct rather than
// threading prometheus types through the hot path.
type PrometheusExporter struct {
	stats *Stats

	channelSent  *prometheus.Desc
	channelRecv  *prometheus.Desc
	realTimeSent *prometheus.Desc
	realTimeRecv *prometheus.Desc
	sysexSent    *prometheus.Desc
	sysexRecv    *prometheus.Desc
	bytesSent    *prometheus.Desc
	parseErrors  *prometheus.Desc
	dropped      *prometheus.Desc
	packetsEmit  *prometheus.Desc
	dedupeHits   *prometheus.Desc
	flushMean    *prometheus.Desc
	flushStddev  *prometheus.Desc
}

// NewPrometheusExporter wraps stats as a prometheus.Collector.
func NewPrometheusExporter(stats *Stats) *PrometheusExporter {
	ns := "blemidi"
	return &PrometheusExporter{
		stats:        stats,
		channelSent:  prometheus.NewDesc(ns+"_channel_messages_sent_total", "Channel voice messages sent", nil, nil),
		channelRecv:  prometheus.NewDesc(ns+"_channel_messages_recv_total", "Channel voice messages received", nil, nil),
		realTimeSent: prometheus.NewDesc(ns+"_real_time_sent_total", "Real-time messages sent", nil, nil),
		realTimeRecv: prometheus.NewDesc(ns+"_real_time_recv_total", "Real-time messages received", nil, nil),
		sysexSent:    prometheus.NewDesc(ns+"_sysex_sent_total", "SysEx messages sent", nil, nil),
		sysexRecv:    prometheus.NewDesc(ns+"_sysex_recv_total", "SysEx messages received", nil, nil),
		bytesSent:    prometheus.NewDesc(ns+"_bytes_sent_total", "Bytes emitted onto the transport", nil, nil),
		parseErrors:  prometheus.NewDesc(ns+"_parse_errors_total", "Inbound parse errors", nil, nil),
		dropped:      prometheus.NewDesc(ns+"_dropped_events_total", "Inbound events dropped due to a full queue", nil, nil),
		packetsEmit:  prometheus.NewDesc(ns+"_packets_emitted_total", "BLE-MIDI packets emitted", nil, nil),
		dedupeHits:   prometheus.NewDesc(ns+"_dedupe_hits_total", "SysEx messages repeating a payload already in the dedupe window", nil, nil),
		flushMean:    prometheus.NewDesc(ns+"_flush_latency_ms_mean", "Mean packet dwell time before flush", nil, nil),
		flushStddev:  prometheus.NewDesc(ns+"_flush_latency_ms_stddev", "Stddev of packet dwell time before flush", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (e *PrometheusExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.channelSent
	ch <- e.channelRecv
	ch <- e.realTimeSent
	ch <- e.realTimeRecv
	ch <- e.sysexSent
	ch <- e.sysexRecv
	ch <- e.bytesSent
	ch <- e.parseErrors
	ch <- e.dropped
	ch <- e.packetsEmit
	ch <- e.dedupeHits
	ch <- e.flushMean
	ch <- e.flushStddev
}

// Collect implements prometheus.Collector.
func (e *PrometheusExporter) Collect(ch chan<- prometheus.Metric) {
	snap := e.stats.Snapshot()
	ch <- prometheus.MustNewConstMetric(e.channelSent, prometheus.CounterValue, float64(snap.ChannelMessagesSent))
	ch <- prometheus.MustNewConstMetric(e.channelRecv, prometheus.CounterValue, float64(snap.ChannelMessagesRecv))
	ch <- prometheus.MustNewConstMetric(e.realTimeSent, prometheus.CounterValue, float64(snap.RealTimeSent))
	ch <- prometheus.MustNewConstMetric(e.realTimeRecv, prometheus.CounterValue, float64(snap.RealTimeRecv))
	ch <- prometheus.MustNewConstMetric(e.sysexSent, prometheus.CounterValue, float64(snap.SysExSent))
	ch <- prometheus.MustNewConstMetric(e.sysexRecv, prometheus.CounterValue, float64(snap.SysExRecv))
	ch <- prometheus.MustNewConstMetric(e.bytesSent, prometheus.CounterValue, float64(snap.BytesSent))
	ch <- prometheus.MustNewConstMetric(e.parseErrors, prometheus.CounterValue, float64(snap.ParseErrors))
	ch <- prometheus.MustNewConstMetric(e.dropped, prometheus.CounterValue, float64(snap.Dropped))
	ch <- prometheus.MustNewConstMetric(e.packetsEmit, prometheus.CounterValue, float64(snap.PacketsEmitted))
	ch <- prometheus.MustNewConstMetric(e.dedupeHits, prometheus.CounterValue, float64(snap.DedupeHits))
	ch <- prometheus.MustNewConstMetric(e.flushMean, prometheus.GaugeValue, snap.FlushLatencyMeanMS)
	ch <- prometheus.MustNewConstMetric(e.flushStddev, prometheus.GaugeValue, snap.FlushLatencyStdDevMS)
}
