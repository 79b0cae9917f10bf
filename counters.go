// Copyright 2024 The lelcache Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lelcache

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// counterRecordSize is the on-disk size of Counters: two u32s and a u64,
// spec §6's "(hits: u32, misses: u32, size_bytes: u64)".
const counterRecordSize = 4 + 4 + 8

// Counters is the tiny persisted record from spec §3/§4.G/§6: hit/miss
// counts and cumulative deposited bytes. Monotonic nondecreasing; nothing
// here ever adjusts size_bytes downward (eviction is out of scope).
type Counters struct {
	Hits      uint32
	Misses    uint32
	SizeBytes uint64
}

// CounterStore persists Counters under cache_root, serialized across
// processes by a single named advisory lock. Name is a fixed string
// constant (spec §4.G) so any number of independent launcher invocations
// sharing this cache root coordinate through the same lock file.
type CounterStore struct {
	path     string
	lockPath string
}

// NewCounterStore returns a CounterStore backed by cache.info under
// cacheRoot/.lelcache, matching the on-disk layout spec §6 specifies.
func NewCounterStore(cacheRoot string) *CounterStore {
	dir := filepath.Join(cacheRoot, ".lelcache")
	return &CounterStore{
		path:     filepath.Join(dir, "cache.info"),
		lockPath: filepath.Join(dir, "cache.info.lock"),
	}
}

// withLock holds the cross-process lock for the minimum interval covering
// a load-modify-store, per spec §4.F's invariant.
func (c *CounterStore) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o777); err != nil {
		return fmt.Errorf("lelcache: creating counter store dir: %w", err)
	}
	fl := flock.New(c.lockPath)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lelcache: acquiring counter lock: %w", err)
	}
	defer fl.Unlock()
	return fn()
}

// Load reads the counter record, returning the zero value if the file does
// not exist yet (spec §4.G "Initial state: all zeros").
func (c *CounterStore) Load() (Counters, error) {
	var counters Counters
	err := c.withLock(func() error {
		var loadErr error
		counters, loadErr = c.loadLocked()
		return loadErr
	})
	return counters, err
}

func (c *CounterStore) loadLocked() (Counters, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return Counters{}, nil
	}
	if err != nil {
		return Counters{}, fmt.Errorf("lelcache: reading counter store: %w", err)
	}
	var counters Counters
	if err := binary.Read(bytes.NewReader(data), binary.NativeEndian, &counters); err != nil {
		return Counters{}, fmt.Errorf("lelcache: decoding counter store: %w", err)
	}
	return counters, nil
}

func (c *CounterStore) storeLocked(counters Counters) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, counters); err != nil {
		return fmt.Errorf("lelcache: encoding counter store: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o666); err != nil {
		return fmt.Errorf("lelcache: writing counter store: %w", err)
	}
	return os.Rename(tmp, c.path)
}

// RecordHit increments the hit counter atomically with respect to every
// other launcher process sharing this cache root.
func (c *CounterStore) RecordHit() error {
	return c.withLock(func() error {
		counters, err := c.loadLocked()
		if err != nil {
			return err
		}
		counters.Hits++
		return c.storeLocked(counters)
	})
}

// RecordMiss increments the miss counter and adds depositedBytes to the
// running size total. Concurrent duplicate deposits double-count bytes;
// this is accepted accounting drift (spec §4.D).
func (c *CounterStore) RecordMiss(depositedBytes int64) error {
	return c.withLock(func() error {
		counters, err := c.loadLocked()
		if err != nil {
			return err
		}
		counters.Misses++
		counters.SizeBytes += uint64(depositedBytes)
		return c.storeLocked(counters)
	})
}
