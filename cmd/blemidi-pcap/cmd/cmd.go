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

// Package cmd implements blemidi-pcap's cobra subcommands: record,
// replay and dump, covering capture, playback and pretty-printing of
// BLE-MIDI traffic saved to a pcap/pcapng file, plus keytest, which sends
// notes typed at the terminal to a serial device.
package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootCmd is blemidi-pcap's entry point.
var RootCmd = &cobra.Command{
	Use:   "blemidi-pcap",
	Short: "capture, replay and inspect BLE-MIDI traffic",
}

var (
	filterExpr string
	replaySpeed float64
)

// Execute runs the CLI, exiting non-zero on error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
