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
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/go-blemidi/blemidi/blemidi"
)

var keytestDevice string

func init() {
	RootCmd.AddCommand(keytestCmd)
	keytestCmd.Flags().StringVar(&keytestDevice, "device", "/dev/ttyACM0", "Serial device to send generated BLE-MIDI packets to")
	keytestCmd.Run = func(cmd *cobra.Command, args []string) {
		if err := runKeytest(keytestDevice); err != nil {
			color.Red("%v", err)
			os.Exit(1)
		}
	}
}

var keytestCmd = &cobra.Command{
	Use:   "keytest",
	Short: "play a one-octave keyboard from the terminal, useful for probing a bridge by hand",
}

// keytestKeys maps the home row to an ascending C-major scale on MIDI
// channel 0, one note at a time: each mapped key sends note-off for the
// previous note and note-on for its own, unmapped keys are ignored, and q
// sends a final note-off and quits.
var keytestKeys = map[rune]byte{
	'a': 60, 's': 62, 'd': 64, 'f': 65, 'g': 67, 'h': 69, 'j': 71, 'k': 72,
}

type monotonicClock struct{ start time.Time }

func (c monotonicClock) NowMS() uint32 { return uint32(time.Since(c.start).Milliseconds()) }

func runKeytest(device string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("keytest requires an interactive terminal")
	}

	mode := &serial.Mode{BaudRate: 115200}
	port, err := serial.Open(device, mode)
	if err != nil {
		return fmt.Errorf("opening serial device %s: %w", device, err)
	}
	defer port.Close()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("putting terminal in raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	p := blemidi.NewPacketizer(monotonicClock{start: time.Now()}, func(packet []byte) {
		_, _ = port.Write(packet)
	})
	p.Start()
	defer p.Close()

	color.Green("keytest: a-s-d-f-g-h-j-k play a C major scale, q quits\r\n")

	var lastNote byte
	haveLast := false
	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		r := rune(buf[0])
		if r == 'q' {
			if haveLast {
				p.SendChannelMessage(blemidi.ChannelMessage{Status: 0x80, Data1: lastNote, Data2: 0})
			}
			return nil
		}
		note, ok := keytestKeys[r]
		if !ok {
			continue
		}
		if haveLast {
			p.SendChannelMessage(blemidi.ChannelMessage{Status: 0x80, Data1: lastNote, Data2: 0})
		}
		p.SendChannelMessage(blemidi.ChannelMessage{Status: 0x90, Data1: note, Data2: 0x60})
		lastNote, haveLast = note, true
	}
}
