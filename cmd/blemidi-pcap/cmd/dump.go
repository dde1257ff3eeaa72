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

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/go-blemidi/blemidi/blemidi"
	"github.com/go-blemidi/blemidi/capture"
	"github.com/go-blemidi/blemidi/eventfilter"
)

func init() {
	RootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVar(&filterExpr, "filter", "", eventfilter.FilterHelp)
	var verbose bool
	dumpCmd.Flags().BoolVar(&verbose, "verbose", false, "spew.Dump each decoded event instead of one table row per event")
	dumpCmd.Run = func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Fatal("usage: blemidi-pcap dump <file>")
		}
		if err := runDump(args[0], filterExpr, verbose); err != nil {
			log.Fatal(err)
		}
	}
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "pretty-print BLE-MIDI packets from a capture file",
}

// dumpSink renders decoded events into the capture-dump table, applying
// an optional eventfilter expression.
type dumpSink struct {
	table  *tablewriter.Table
	filter *eventfilter.Filter
	verbose bool
}

func (s *dumpSink) OnChannelMessage(m blemidi.ChannelMessage) {
	ok, err := s.filter.Match(eventfilter.Parameters(&m, nil, nil))
	if err != nil || !ok {
		return
	}
	if s.verbose {
		spew.Dump(m)
		return
	}
	s.table.Append([]string{"channel", m.String(), ""})
}

func (s *dumpSink) OnRealTimeMessage(m blemidi.RealTimeMessage) {
	ok, err := s.filter.Match(eventfilter.Parameters(nil, &m, nil))
	if err != nil || !ok {
		return
	}
	if s.verbose {
		spew.Dump(m)
		return
	}
	s.table.Append([]string{"realtime", m.String(), ""})
}

func (s *dumpSink) OnSysExMessage(data []byte) {
	ok, err := s.filter.Match(eventfilter.Parameters(nil, nil, data))
	if err != nil || !ok {
		return
	}
	if s.verbose {
		spew.Dump(data)
		return
	}
	s.table.Append([]string{"sysex", fmt.Sprintf("%d bytes", len(data)), fmt.Sprintf("% x", data)})
}

func runDump(path string, filterExpr string, verbose bool) error {
	filter, err := eventfilter.Compile(filterExpr)
	if err != nil {
		return err
	}

	player, err := capture.OpenPlayer(path)
	if err != nil {
		return err
	}
	defer player.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetColWidth(40)
	table.SetHeader([]string{"kind", "event", "detail"})
	sink := &dumpSink{table: table, filter: filter, verbose: verbose}
	dec := blemidi.NewDecoder(sink)

	count := 0
	for {
		pkt, _, err := player.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		dec.Parse(pkt)
		dec.Update()
		count++
	}

	if !verbose {
		table.Render()
	}
	color.Green("decoded %d packets from %s", count, path)
	return nil
}
