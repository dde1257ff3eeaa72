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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestStatsConcurrentIncrement(t *testing.T) {
	s := NewStats()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.incChannelSent()
			s.incRealTimeRecv()
			s.addBytesSent(5)
		}()
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Equal(t, uint64(100), snap.ChannelMessagesSent)
	require.Equal(t, uint64(100), snap.RealTimeRecv)
	require.Equal(t, uint64(500), snap.BytesSent)
}

func TestStatsFlushLatency(t *testing.T) {
	s := NewStats()
	s.recordFlushLatency(10)
	s.recordFlushLatency(20)
	s.recordFlushLatency(30)

	snap := s.Snapshot()
	require.InDelta(t, 20, snap.FlushLatencyMeanMS, 0.001)
}

func TestPrometheusExporterCollect(t *testing.T) {
	s := NewStats()
	s.incPacketsEmitted()
	exp := NewPrometheusExporter(s)

	descCh := make(chan *prometheus.Desc, 16)
	exp.Describe(descCh)
	close(descCh)
	count := 0
	for range descCh {
		count++
	}
	require.Equal(t, 13, count)

	metricCh := make(chan prometheus.Metric, 16)
	exp.Collect(metricCh)
	close(metricCh)
	metricCount := 0
	for range metricCh {
		metricCount++
	}
	require.Equal(t, 13, metricCount)
}
