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

// blemidi-pcap is a poor man's tshark for BLE-MIDI: it records, replays
// and pretty-prints captured traffic.
package main

import "github.com/go-blemidi/blemidi/cmd/blemidi-pcap/cmd"

func main() {
	cmd.Execute()
}
