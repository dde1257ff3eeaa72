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

package main

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/shirou/gopsutil/process"
)

// logHealthStats logs process CPU/memory/FD usage on every tick until ctx
// is cancelled. It runs alongside the bridge's serial read loop so an
// operator watching logs can correlate a stall with resource pressure.
func logHealthStats(ctx context.Context, entry *log.Entry, interval time.Duration) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		entry.Warningf("health stats disabled: %v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fields := log.Fields{}
			if pct, err := proc.Percent(0); err == nil {
				fields["cpu_pct"] = pct
			}
			if mem, err := proc.MemoryInfo(); err == nil {
				fields["rss"] = mem.RSS
				fields["vms"] = mem.VMS
			}
			if fds, err := proc.NumFDs(); err == nil {
				fields["num_fds"] = fds
			}
			entry.WithFields(fields).Debug("health stats")
		}
	}
}
