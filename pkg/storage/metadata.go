// Copyright 2025 The quickshare Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Record is the sidecar metadata kept for one stored item, keyed by the
// on-disk filename in files.json.
type Record struct {
	OriginalName string    `json:"original_name"`
	SavedAt      time.Time `json:"saved_at"`
}

// metaFile owns reads and writes of the files.json sidecar document. Every
// mutation is a full read-modify-write of the document; callers must hold
// the store mutex so no two cycles interleave.
type metaFile struct {
	path string
}

// load returns the current sidecar mapping. A missing or unparseable file
// degrades to an empty mapping, never an error.
func (m *metaFile) load() map[string]Record {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return map[string]Record{}
	}
	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil || records == nil {
		return map[string]Record{}
	}
	return records
}

func (m *metaFile) save(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

func (m *metaFile) upsert(name string, rec Record) error {
	records := m.load()
	records[name] = rec
	return m.save(records)
}

// remove drops the given names from the sidecar. Names with no entry are
// ignored; the document is rewritten only when something changed.
func (m *metaFile) remove(names ...string) error {
	records := m.load()
	changed := false
	for _, name := range names {
		if _, ok := records[name]; ok {
			delete(records, name)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return m.save(records)
}

// prune drops the named entries plus every entry whose recorded save time
// precedes the cutoff, so a sweep leaves no sidecar row pointing at a
// removed file.
func (m *metaFile) prune(removed map[string]bool, cutoff time.Time) error {
	records := m.load()
	kept := make(map[string]Record, len(records))
	for name, rec := range records {
		if removed[name] || rec.SavedAt.Before(cutoff) {
			continue
		}
		kept[name] = rec
	}
	if len(kept) == len(records) {
		return nil
	}
	return m.save(kept)
}
