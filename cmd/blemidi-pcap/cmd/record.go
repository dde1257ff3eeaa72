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
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"github.com/spf13/cobra"

	"github.com/go-blemidi/blemidi/capture"
)

var recordDevice string

func init() {
	RootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordDevice, "device", "/dev/ttyACM0", "Serial device to capture from")
	recordCmd.Run = func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Fatal("usage: blemidi-pcap record <output file>")
		}
		if err := runRecord(recordDevice, args[0]); err != nil {
			log.Fatal(err)
		}
	}
}

var recordCmd = &cobra.Command{
	Use:   "record <output file>",
	Short: "record raw BLE-MIDI traffic from a serial device to a capture file",
}

func runRecord(device, outPath string) error {
	mode := &serial.Mode{BaudRate: 115200}
	port, err := serial.Open(device, mode)
	if err != nil {
		return err
	}
	defer port.Close()

	rec, err := capture.NewRecorder(outPath)
	if err != nil {
		return err
	}
	defer rec.Close()

	color.Cyan("recording %s -> %s, Ctrl-C to stop", device, outPath)
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if err := rec.Write(time.Now(), buf[:n]); err != nil {
			return err
		}
	}
}
