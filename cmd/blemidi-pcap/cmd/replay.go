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
	"io"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"github.com/spf13/cobra"

	"github.com/go-blemidi/blemidi/capture"
)

var replayDevice string

func init() {
	RootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayDevice, "device", "/dev/ttyACM0", "Serial device to replay onto")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier; 0 replays as fast as possible")
	replayCmd.Run = func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			log.Fatal("usage: blemidi-pcap replay <capture file>")
		}
		if err := runReplay(args[0], replayDevice, replaySpeed); err != nil {
			log.Fatal(err)
		}
	}
}

var replayCmd = &cobra.Command{
	Use:   "replay <capture file>",
	Short: "replay a capture file's BLE-MIDI packets onto a serial device",
}

func runReplay(path, device string, speed float64) error {
	player, err := capture.OpenPlayer(path)
	if err != nil {
		return err
	}
	defer player.Close()

	mode := &serial.Mode{BaudRate: 115200}
	port, err := serial.Open(device, mode)
	if err != nil {
		return err
	}
	defer port.Close()

	var prevTS time.Time
	count := 0
	for {
		pkt, ts, err := player.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if speed > 0 && !prevTS.IsZero() {
			gap := ts.Sub(prevTS)
			if gap > 0 {
				time.Sleep(time.Duration(float64(gap) / speed))
			}
		}
		prevTS = ts

		if _, err := port.Write(pkt); err != nil {
			return err
		}
		count++
	}
	color.Cyan("replayed %d packets from %s onto %s", count, path, device)
	return nil
}
