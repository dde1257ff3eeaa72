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
	"time"

	"github.com/stretchr/testify/require"
)

// stepClock returns a fixed ms value, advancing by one step per call so
// tests can control exactly when the 13-bit timestamp changes.
type stepClock struct {
	values []uint32
	idx    int
}

func (c *stepClock) NowMS() uint32 {
	v := c.values[c.idx]
	if c.idx < len(c.values)-1 {
		c.idx++
	}
	return v
}

func newConstClock(ms uint32) *stepClock {
	return &stepClock{values: []uint32{ms}}
}

func collectPackets(t *testing.T) (*[][]byte, NotifyFunc) {
	t.Helper()
	packets := &[][]byte{}
	return packets, func(p []byte) {
		cp := make([]byte, len(p))
		copy(cp, p)
		*packets = append(*packets, cp)
	}
}

func TestScenario1SingleNoteOn(t *testing.T) {
	packets, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)

	p.SendChannelMessage(ChannelMessage{Status: 0x92, Data1: 0x12, Data2: 0x34})
	p.Flush()

	require.Equal(t, [][]byte{{0x81, 0x82, 0x92, 0x12, 0x34}}, *packets)
}

func TestScenario2RunningStatusSameTimestamp(t *testing.T) {
	packets, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)

	p.SendChannelMessage(ChannelMessage{Status: 0x92, Data1: 0x12, Data2: 0x34})
	p.SendChannelMessage(ChannelMessage{Status: 0x92, Data1: 0x56, Data2: 0x78})
	p.Flush()

	require.Equal(t, [][]byte{{0x81, 0x82, 0x92, 0x12, 0x34, 0x56, 0x78}}, *packets)
}

func TestScenario3DifferentChannelsMTU10(t *testing.T) {
	packets, notify := collectPackets(t)
	clock := &stepClock{values: []uint32{0x82, 0x83}}
	p := NewPacketizer(clock, notify)
	require.NoError(t, p.ForceMinMTU(10))

	p.SendChannelMessage(ChannelMessage{Status: 0x85, Data1: 0x56, Data2: 0x78})
	p.SendChannelMessage(ChannelMessage{Status: 0x86, Data1: 0x66, Data2: 0x79})
	p.Flush()

	require.Equal(t, [][]byte{
		{0x81, 0x82, 0x85, 0x56, 0x78},
		{0x81, 0x83, 0x86, 0x66, 0x79},
	}, *packets)
}

func TestScenario5LongSysExMTU8(t *testing.T) {
	packets, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)
	require.NoError(t, p.ForceMinMTU(8))

	p.Send(SysExMessage{Data: []byte{0xF0, 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0xF7}})

	require.Len(t, *packets, 2, "first two fragments emit immediately")
	require.Equal(t, []byte{0x81, 0x82, 0xF0, 0x10, 0x11}, (*packets)[0])
	require.Equal(t, []byte{0x81, 0x12, 0x13, 0x14, 0x15}, (*packets)[1])

	p.Flush()
	require.Len(t, *packets, 3)
	require.Equal(t, []byte{0x81, 0x16, 0x82, 0xF7}, (*packets)[2])
}

func TestFlushOnTimeout(t *testing.T) {
	packets, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)
	p.SetTimeout(5 * time.Millisecond)
	p.Start()
	defer p.Close()

	p.SendChannelMessage(ChannelMessage{Status: 0x92, Data1: 0x12, Data2: 0x34})

	require.Eventually(t, func() bool {
		return len(*packets) == 1
	}, time.Second, time.Millisecond)
}

func TestCloseFlushesPending(t *testing.T) {
	packets, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)
	p.Start()

	p.SendChannelMessage(ChannelMessage{Status: 0x92, Data1: 0x12, Data2: 0x34})
	p.Close()

	require.Equal(t, [][]byte{{0x81, 0x82, 0x92, 0x12, 0x34}}, *packets)
}

func TestForceMinMTURejectsTooSmall(t *testing.T) {
	_, notify := collectPackets(t)
	p := NewPacketizer(newConstClock(0x82), notify)
	require.Error(t, p.ForceMinMTU(4))
}
