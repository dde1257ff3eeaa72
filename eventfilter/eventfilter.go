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

// Package eventfilter evaluates a govaluate boolean expression against a
// decoded BLE-MIDI event's fields, for tooling (the blemidi-pcap dump
// display) that wants to select a subset of a stream. It never touches
// the core decoder: a filter is applied only after events have already
// been decoded, and it cannot change what Decoder emits (SPEC_FULL.md
// §4.6).
package eventfilter

import (
	"fmt"

	"github.com/Knetic/govaluate"

	"github.com/go-blemidi/blemidi/blemidi"
)

// FilterHelp documents the variables a filter expression may reference.
const FilterHelp = `When composing a filter expression, here is what you can use:
evaluation is done with govaluate, please check https://github.com/Knetic/govaluate/blob/master/MANUAL.md
supported variables:
  status       (int)  the raw MIDI status byte, 0 for sysex
  channel      (int)  0-based MIDI channel for channel voice messages, -1 otherwise
  data1        (int)  first data byte, 0 for sysex/real-time
  data2        (int)  second data byte, 0 if not present
  isChannel    (bool) true for channel voice messages
  isRealTime   (bool) true for real-time messages
  isSysEx      (bool) true for sysex messages
  sysexLen     (int)  length of the sysex payload, 0 otherwise`

// Filter is a compiled govaluate expression over event fields.
type Filter struct {
	expr   string
	parsed *govaluate.EvaluableExpression
}

// Compile parses expr. An empty expr compiles to a filter that always
// matches.
func Compile(expr string) (*Filter, error) {
	if expr == "" {
		return &Filter{expr: expr}, nil
	}
	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("eventfilter: compiling %q: %w", expr, err)
	}
	return &Filter{expr: expr, parsed: parsed}, nil
}

// Parameters builds the govaluate parameter set for one event. Exactly
// one of channel/realTime/sysex should be non-zero/non-nil per call,
// matching how a Sink implementation dispatches.
func Parameters(channel *blemidi.ChannelMessage, realTime *blemidi.RealTimeMessage, sysex []byte) map[string]interface{} {
	p := map[string]interface{}{
		"status":     0,
		"channel":    -1,
		"data1":      0,
		"data2":      0,
		"isChannel":  false,
		"isRealTime": false,
		"isSysEx":    false,
		"sysexLen":   0,
	}
	switch {
	case channel != nil:
		p["status"] = int(channel.Status)
		p["channel"] = int(channel.Channel())
		p["data1"] = int(channel.Data1)
		p["data2"] = int(channel.Data2)
		p["isChannel"] = true
	case realTime != nil:
		p["status"] = int(realTime.Status)
		p["isRealTime"] = true
	case sysex != nil:
		p["isSysEx"] = true
		p["sysexLen"] = len(sysex)
	}
	return p
}

// Match evaluates the filter against params, returning true if the event
// should be kept. A filter compiled from an empty expression always
// matches. A non-boolean result is treated as a configuration error.
func (f *Filter) Match(params map[string]interface{}) (bool, error) {
	if f.parsed == nil {
		return true, nil
	}
	result, err := f.parsed.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("eventfilter: evaluating %q: %w", f.expr, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("eventfilter: expression %q did not evaluate to a bool", f.expr)
	}
	return b, nil
}

// String returns the original expression text.
func (f *Filter) String() string {
	return f.expr
}
