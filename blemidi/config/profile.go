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

package config

import (
	"bytes"
	"strconv"

	"github.com/go-ini/ini"
)

// InstrumentProfile describes a known MIDI instrument's transport
// preferences in a simple INI file a technician can hand-edit, the same
// flat key=value shape used for device settings elsewhere in this stack.
type InstrumentProfile struct {
	Name         string
	PreferredMTU int
	ChannelMask  uint16
	Notes        string
}

// LoadInstrumentProfile parses an INI file into an InstrumentProfile. The
// file is expected to have a single [instrument] section.
func LoadInstrumentProfile(path string) (*InstrumentProfile, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	sec := f.Section("instrument")
	p := &InstrumentProfile{
		Name:  sec.Key("name").String(),
		Notes: sec.Key("notes").String(),
	}
	p.PreferredMTU, err = sec.Key("preferred_mtu").Int()
	if err != nil {
		p.PreferredMTU = 0
	}
	mask, err := sec.Key("channel_mask").Int()
	if err != nil {
		mask = 0xFFFF
	}
	p.ChannelMask = uint16(mask)
	return p, nil
}

// ToBuffer renders an INI file compactly, matching the flat single-line
// style instrument profiles are hand-edited in.
func ToBuffer(f *ini.File) (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	ini.PrettyFormat = false
	ini.PrettySection = false
	_, err := f.WriteTo(buf)
	return buf, err
}

// Save serializes p back to an INI file at path.
func (p *InstrumentProfile) Save(path string) error {
	f := ini.Empty()
	sec, err := f.NewSection("instrument")
	if err != nil {
		return err
	}
	if _, err := sec.NewKey("name", p.Name); err != nil {
		return err
	}
	if _, err := sec.NewKey("preferred_mtu", strconv.Itoa(p.PreferredMTU)); err != nil {
		return err
	}
	if _, err := sec.NewKey("channel_mask", strconv.Itoa(int(p.ChannelMask))); err != nil {
		return err
	}
	if _, err := sec.NewKey("notes", p.Notes); err != nil {
		return err
	}
	return f.SaveTo(path)
}
