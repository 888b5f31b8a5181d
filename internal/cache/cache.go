// Copyright 2026 The Biu Authors
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

// Package cache implements the persistent target cache: a
// target -> (prereqs, command, isObject) map that, on Save, diffs the
// current build's rule set against the previous run's and deletes stale
// outputs with cascade semantics, since `make` alone cannot detect a
// flag-only change (source mtimes are unchanged).
package cache

import (
	"bytes"
	"encoding/gob"
	"os"
	"sort"

	"github.com/golang/glog"
	"github.com/samber/lo"
)

// Record is one persisted cache entry.
type Record struct {
	Prereqs  []string
	Command  string
	IsObject bool
}

// Diff summarizes what a Save call classified and deleted.
type Diff struct {
	Dirty    []string // updated targets: prereqs or command changed
	Expired  []string // targets present before, absent now
	Cascaded []string // non-object rules invalidated transitively
}

// Cache is the in-memory working set for one run, plus the previously
// persisted set it will be diffed against on Save.
type Cache struct {
	path     string
	current  map[string]Record
	previous map[string]Record
}

// Open loads the persisted cache at path (under the build root, e.g.
// ".biu/targets"). A missing or corrupt file is treated as
// CacheCorruption: the policy is to discard and proceed with an empty
// previous snapshot, at the cost of one over-build.
func Open(path string) *Cache {
	c := &Cache{path: path, current: map[string]Record{}, previous: map[string]Record{}}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	dec := gob.NewDecoder(bytes.NewReader(data))
	var previous map[string]Record
	if err := dec.Decode(&previous); err != nil {
		return c // corruption: proceed with empty previous snapshot
	}
	c.previous = previous
	return c
}

// Set records one target's current-run prereqs, command, and kind.
func (c *Cache) Set(target string, prereqs []string, command string, isObject bool) {
	c.current[target] = Record{Prereqs: append([]string(nil), prereqs...), Command: command, IsObject: isObject}
}

// Save computes the diff against the previous snapshot, deletes every
// target classified dirty, expired, or cascaded, and persists the new
// snapshot to disk (fsync'd) in place of the old one.
func (c *Cache) Save() (Diff, error) {
	diff := c.compareAndDelete()
	glog.V(1).Infof("target cache: %d dirty, %d expired, %d cascaded",
		len(diff.Dirty), len(diff.Expired), len(diff.Cascaded))

	f, err := os.Create(c.path)
	if err != nil {
		return diff, err
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(c.current); err != nil {
		return diff, err
	}
	if err := f.Sync(); err != nil {
		return diff, err
	}
	return diff, nil
}

func (c *Cache) compareAndDelete() Diff {
	var diff Diff
	dirtyOrExpired := map[string]bool{}

	// 1. Updated targets: prereqs or command changed since last run.
	for target, rec := range c.current {
		old, existed := c.previous[target]
		if !existed {
			continue
		}
		if !equalRecord(rec, old) {
			remove(target)
			diff.Dirty = append(diff.Dirty, target)
			dirtyOrExpired[target] = true
		}
	}

	// 2. Expired targets: were built before, no longer declared.
	currentKeys := make([]string, 0, len(c.current))
	for t := range c.current {
		currentKeys = append(currentKeys, t)
	}
	previousKeys := make([]string, 0, len(c.previous))
	for t := range c.previous {
		previousKeys = append(previousKeys, t)
	}
	for _, target := range lo.Without(previousKeys, currentKeys...) {
		remove(target)
		diff.Expired = append(diff.Expired, target)
		dirtyOrExpired[target] = true
	}

	// 3. Cascade: any non-object rule whose current prereq set
	// intersects dirty ∪ expired has its output deleted too, because
	// flags upstream of linking may have changed even though the
	// individual object file would be regenerated identically, and the
	// inverse: a library invalidation must force the consumer to relink.
	for target, rec := range c.current {
		if rec.IsObject {
			continue
		}
		if len(lo.Intersect(rec.Prereqs, keys(dirtyOrExpired))) > 0 {
			remove(target)
			diff.Cascaded = append(diff.Cascaded, target)
		}
	}

	sort.Strings(diff.Dirty)
	sort.Strings(diff.Expired)
	sort.Strings(diff.Cascaded)
	return diff
}

func equalRecord(a, b Record) bool {
	if a.Command != b.Command || len(a.Prereqs) != len(b.Prereqs) {
		return false
	}
	for i := range a.Prereqs {
		if a.Prereqs[i] != b.Prereqs[i] {
			return false
		}
	}
	return true
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func remove(target string) {
	if _, err := os.Stat(target); err == nil {
		os.Remove(target)
	}
}
