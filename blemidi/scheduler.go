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

package blemidi

import "time"

// runScheduler is the flush scheduler's background loop (spec §4.4). It
// owns no state of its own beyond the timer: all buffer state lives on
// Packetizer, guarded by Packetizer.mu, exactly like ptp4u's
// SubscriptionClient ticker loop guards its subscription state with its
// own embedded mutex.
//
// The loop wakes on three events: a fresh activity signal (a buffer just
// received its first byte, so a timeout dwell window starts), the timer
// firing (dwell elapsed, flush if anything is pending), or stop (shutdown,
// flush once more and exit). An explicit Flush() call does not need to
// signal this loop: it flushes synchronously under the same mutex, after
// which the next timer fire is a harmless no-op against an empty buffer.
func (p *Packetizer) runScheduler() {
	defer close(p.doneCh)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-p.activity:
			if !armed {
				timer.Reset(p.currentTimeout())
				armed = true
			}
		case <-timer.C:
			armed = false
			p.mu.Lock()
			if !p.buf.empty() {
				p.emitLocked()
			}
			p.mu.Unlock()
		case <-p.stopCh:
			if armed && !timer.Stop() {
				<-timer.C
			}
			p.mu.Lock()
			if !p.buf.empty() {
				p.emitLocked()
			}
			p.mu.Unlock()
			return
		}
	}
}

// currentTimeout reads the configured flush timeout under lock.
func (p *Packetizer) currentTimeout() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeout
}

// signalActivity tells the scheduler a fresh dwell window has begun. The
// send is non-blocking: the channel has capacity 1 and the scheduler only
// needs to know "there is now something pending", not how many times.
func (p *Packetizer) signalActivity() {
	select {
	case p.activity <- struct{}{}:
	default:
	}
}
