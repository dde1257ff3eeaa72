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

import (
	"bytes"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// dedupeEntry is one remembered payload, keyed by the insertion order used
// for FIFO eviction.
type dedupeEntry struct {
	hash uint64
	data []byte
}

// dedupeCache is advisory bookkeeping only (SPEC_FULL.md §4.5): it tracks
// a bounded window of recently-sent SysEx payloads so a caller can be told
// "this looks like a repeat" for metrics/UI purposes. It never suppresses
// or alters what Packetizer.Send puts on the wire.
//
// A digest match alone isn't proof of equality, so the last-seen bytes for
// each hash are kept and compared with bytes.Equal before reporting a hit
// (SPEC_FULL.md §8: two different payloads must not be treated as
// identical on a hash collision).
type dedupeCache struct {
	mu       sync.Mutex
	capacity int
	order    []dedupeEntry
	seen     map[uint64][][]byte // hash -> payloads currently in the window sharing that hash
}

// newDedupeCache returns a cache remembering up to capacity distinct
// recent SysEx payloads, evicting the oldest once full.
func newDedupeCache(capacity int) *dedupeCache {
	return &dedupeCache{
		capacity: capacity,
		order:    make([]dedupeEntry, 0, capacity),
		seen:     make(map[uint64][][]byte, capacity),
	}
}

// noteAndCheck hashes data, records it, and reports whether an identical
// payload was already present in the window.
func (c *dedupeCache) noteAndCheck(data []byte) bool {
	h := xxhash.Sum64(data)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, prev := range c.seen[h] {
		if bytes.Equal(prev, data) {
			return true
		}
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		bucket := c.seen[oldest.hash]
		for i, prev := range bucket {
			if bytes.Equal(prev, oldest.data) {
				bucket = append(bucket[:i], bucket[i+1:]...)
				break
			}
		}
		if len(bucket) == 0 {
			delete(c.seen, oldest.hash)
		} else {
			c.seen[oldest.hash] = bucket
		}
	}

	stored := append([]byte(nil), data...)
	c.order = append(c.order, dedupeEntry{hash: h, data: stored})
	c.seen[h] = append(c.seen[h], stored)
	return false
}
