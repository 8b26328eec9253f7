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
	"os"
	"path/filepath"
	"strings"

	"github.com/odysafe/quickshare/pkg/qslog"
)

// Delete removes a stored item and its metadata entry. The client-supplied
// identifier is tried as several name variants, first existing match wins:
// the sanitized name, the name with traversal sequences stripped out, then
// the verbatim name, under
// uploads before text shares. When no variant matches, both directories are
// scanned for an exact filename match as a last resort. On success the
// metadata entries for every variant tried are pruned so no stale sidecar
// row survives.
//
// A miss is a valid outcome, not an error: Delete returns false and nothing
// else happens.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	variants := deleteCandidates(name)

	for _, loc := range s.locations() {
		for _, variant := range variants {
			path := filepath.Join(loc.dir, variant)
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if err := os.Remove(path); err != nil {
				qslog.Errorf("Failed to delete %s: %v", path, err)
				continue
			}
			if err := s.meta.remove(variants...); err != nil {
				qslog.Errorf("Failed to prune metadata for %s: %v", variant, err)
			}
			qslog.Debugf("Deleted %s", path)
			return true
		}
	}

	// Last resort: the client may send an identifier none of the variants
	// reproduce; scan for an exact filename match.
	for _, loc := range s.locations() {
		entries, err := os.ReadDir(loc.dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() || entry.Name() != name {
				continue
			}
			path := filepath.Join(loc.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				qslog.Errorf("Failed to delete %s: %v", path, err)
				continue
			}
			if err := s.meta.remove(entry.Name()); err != nil {
				qslog.Errorf("Failed to prune metadata for %s: %v", entry.Name(), err)
			}
			qslog.Debugf("Deleted %s (found by scan)", path)
			return true
		}
	}

	return false
}

// deleteCandidates builds the ordered, deduplicated list of name variants
// to try. Variants that could leave the storage directories (path
// separators, dot segments) are excluded; the directory scan still covers
// such identifiers by exact match.
func deleteCandidates(name string) []string {
	stripped := strings.ReplaceAll(name, "..", "")
	stripped = strings.ReplaceAll(stripped, "/", "")
	stripped = strings.ReplaceAll(stripped, `\`, "")

	seen := make(map[string]bool)
	var variants []string
	for _, candidate := range []string{SanitizeName(name), stripped, name} {
		if candidate == "" || candidate == "." || candidate == ".." || seen[candidate] {
			continue
		}
		if strings.ContainsAny(candidate, `/\`) {
			continue
		}
		seen[candidate] = true
		variants = append(variants, candidate)
	}
	return variants
}
