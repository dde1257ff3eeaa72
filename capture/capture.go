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

// Package capture records and replays raw BLE-MIDI attribute payloads to
// and from pcapng files, the same poor-man's-tshark approach used
// elsewhere in this stack for wire-level debugging: each packet is
// wrapped in a tiny custom gopacket layer so a capture can be filtered
// and pretty-printed without reimplementing pcap file handling.
package capture

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// LayerBLEMIDI wraps one captured BLE-MIDI attribute payload.
type LayerBLEMIDI struct {
	gopacket.BaseLayer
}

// LayerTypeBLEMIDI is registered with gopacket so capture files can be
// read back through the normal packet-source/layer API.
var LayerTypeBLEMIDI = gopacket.RegisterLayerType(
	4950, // unassigned in gopacket's default registry
	gopacket.LayerTypeMetadata{
		Name:    "BLEMIDI",
		Decoder: gopacket.DecodeFunc(decodeBLEMIDI),
	},
)

// LayerType implements gopacket.Layer.
func (l *LayerBLEMIDI) LayerType() gopacket.LayerType { return LayerTypeBLEMIDI }

// Payload returns the raw BLE-MIDI packet bytes.
func (l *LayerBLEMIDI) Payload() []byte { return l.Contents }

func decodeBLEMIDI(data []byte, p gopacket.PacketBuilder) error {
	l := &LayerBLEMIDI{BaseLayer: gopacket.BaseLayer{Contents: data, Payload: data}}
	p.AddLayer(l)
	p.SetApplicationLayer(l)
	return nil
}

// Recorder appends raw BLE-MIDI packets to a pcapng capture file.
type Recorder struct {
	w   *pcapgo.NgWriter
	f   *os.File
}

// NewRecorder creates (or truncates) path and prepares it to receive
// captured packets.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeRaw)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: creating writer: %w", err)
	}
	return &Recorder{w: w, f: f}, nil
}

// Write appends one packet captured at ts.
func (r *Recorder) Write(ts time.Time, packet []byte) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(packet),
		Length:        len(packet),
	}
	return r.w.WritePacket(ci, packet)
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}

// Player replays packets from a pcap or pcapng capture file in order.
type Player struct {
	source *gopacket.PacketSource
	f      *os.File
}

type packetHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// OpenPlayer opens path for replay, trying the newer pcapng format first
// and falling back to classic pcap.
func OpenPlayer(path string) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	var handle packetHandle
	handle, err = pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			f.Close()
			return nil, fmt.Errorf("capture: seeking in %s: %w", path, serr)
		}
		r, rerr := pcapgo.NewReader(f)
		if rerr != nil {
			f.Close()
			return nil, fmt.Errorf("capture: opening %s: %w", path, rerr)
		}
		handle = r
	}

	return &Player{
		source: gopacket.NewPacketSource(handle, LayerTypeBLEMIDI),
		f:      f,
	}, nil
}

// Next returns the next captured packet's payload and timestamp, or
// io.EOF once the capture is exhausted.
func (p *Player) Next() ([]byte, time.Time, error) {
	packet, ok := <-p.source.Packets()
	if !ok {
		return nil, time.Time{}, io.EOF
	}
	layer := packet.Layer(LayerTypeBLEMIDI)
	if layer == nil {
		return nil, time.Time{}, fmt.Errorf("capture: packet missing BLE-MIDI layer")
	}
	md := packet.Metadata()
	return layer.LayerPayload(), md.Timestamp, nil
}

// Close releases the underlying file.
func (p *Player) Close() error {
	return p.f.Close()
}
