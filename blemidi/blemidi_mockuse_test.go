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

	"go.uber.org/mock/gomock"
)

func TestPacketizerUsesInjectedClock(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := NewMockClock(ctrl)
	clock.EXPECT().NowMS().Return(uint32(0x82)).AnyTimes()

	packets, notify := collectPackets(t)
	p := NewPacketizer(clock, notify)
	p.SendChannelMessage(ChannelMessage{Status: 0x92, Data1: 0x12, Data2: 0x34})
	p.Flush()

	if len(*packets) != 1 {
		t.Fatalf("expected 1 packet, got %d", len(*packets))
	}
}

func TestDecoderDeliversToMockSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockSink(ctrl)
	sink.EXPECT().OnChannelMessage(ChannelMessage{Status: 0x90, Data1: 0x3C, Data2: 0x7F})
	sink.EXPECT().OnChannelMessage(ChannelMessage{Status: 0x90, Data1: 0x3D, Data2: 0x7E})
	sink.EXPECT().OnChannelMessage(ChannelMessage{Status: 0xB1, Data1: 0x10, Data2: 0x40})
	sink.EXPECT().OnRealTimeMessage(RealTimeMessage{Status: 0xF8})

	d := NewDecoder(sink)
	d.Parse([]byte{0x81, 0x82, 0x90, 0x3C, 0x7F, 0x82, 0xF8, 0x82, 0x3D, 0x7E, 0x82, 0xB1, 0x10, 0x40})
	d.Update()
}
