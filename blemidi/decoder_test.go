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
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	channel  []ChannelMessage
	realTime []RealTimeMessage
	sysex    [][]byte
}

func (s *recordingSink) OnChannelMessage(m ChannelMessage)   { s.channel = append(s.channel, m) }
func (s *recordingSink) OnRealTimeMessage(m RealTimeMessage) { s.realTime = append(s.realTime, m) }
func (s *recordingSink) OnSysExMessage(d []byte) {
	cp := make([]byte, len(d))
	copy(cp, d)
	s.sysex = append(s.sysex, cp)
}

func TestScenario4RunningStatusAndInterleavedRealTime(t *testing.T) {
	sink := &recordingSink{}
	d := NewDecoder(sink)

	packet := []byte{0x81, 0x82, 0x90, 0x3C, 0x7F, 0x82, 0xF8, 0x82, 0x3D, 0x7E, 0x82, 0xB1, 0x10, 0x40}
	d.Parse(packet)
	d.Update()

	require.Equal(t, []ChannelMessage{
		{Status: 0x90, Data1: 0x3C, Data2: 0x7F},
		{Status: 0x90, Data1: 0x3D, Data2: 0x7E},
		{Status: 0xB1, Data1: 0x10, Data2: 0x40},
	}, sink.channel)
	require.Equal(t, []RealTimeMessage{{Status: 0xF8}}, sink.realTime)
	require.Empty(t, sink.sysex)
}

func TestScenario6InvalidPacketNoHeader(t *testing.T) {
	sink := &recordingSink{}
	d := NewDecoder(sink)

	d.Parse([]byte{0x12, 0x13, 0x14})
	n := d.Update()

	require.Equal(t, 0, n)
	require.Empty(t, sink.channel)
	require.Empty(t, sink.realTime)
	require.Empty(t, sink.sysex)
}

func TestDecodeEmptyPacketIsNoop(t *testing.T) {
	sink := &recordingSink{}
	d := NewDecoder(sink)
	d.Parse(nil)
	require.Equal(t, 0, d.Update())
}

func TestEncodeDecodeRoundTripSysEx(t *testing.T) {
	packets, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)
	require.NoError(t, p.ForceMinMTU(8))

	sent := SysExMessage{Data: []byte{0xF0, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0xF7}}
	p.Send(sent)
	p.Flush()

	sink := &recordingSink{}
	d := NewDecoder(sink)
	for _, pkt := range *packets {
		d.Parse(pkt)
	}
	d.Update()

	require.Len(t, sink.sysex, 1)
	require.Equal(t, sent.Data, sink.sysex[0])
}

func TestDecodeSysExOverflowDrops(t *testing.T) {
	sink := &recordingSink{}
	d := NewDecoder(sink)
	d.Stats = NewStats()

	packet := make([]byte, 0, defaultSysExCapacity+8)
	packet = append(packet, 0x81, 0x82, 0xF0)
	for i := 0; i < defaultSysExCapacity+4; i++ {
		packet = append(packet, byte(i%0x70))
	}
	d.Parse(packet)
	require.Equal(t, uint64(1), d.Stats.Snapshot().ParseErrors)

	// The decoder must be usable again on the very next packet: it should
	// not still be stuck mid-resync from the dropped SysEx.
	d.Parse([]byte{0x80, 0x80, 0x90, 0x3C, 0x7F})
	d.Update()
	require.Equal(t, uint64(1), d.Stats.Snapshot().ParseErrors)
	require.Len(t, sink.channel, 1)
	require.Equal(t, ChannelMessage{Status: 0x90, Data1: 0x3C, Data2: 0x7F}, sink.channel[0])
}
