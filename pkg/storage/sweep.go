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
	"time"

	"github.com/odysafe/quickshare/pkg/qslog"
)

// Sweep removes every stored item older than the retention window and
// prunes the corresponding metadata entries, as one critical section so a
// concurrent upload or delete cannot interleave with the prune. Individual
// deletion failures are logged and skipped. Returns the number of removed
// files.
func (s *Store) Sweep() int {
	cutoff := time.Now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	removedNames := make(map[string]bool)
	for _, loc := range s.locations() {
		entries, err := os.ReadDir(loc.dir)
		if err != nil {
			qslog.Errorf("Sweep: listing %s: %v", loc.dir, err)
			continue
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(loc.dir, entry.Name())
			if err := os.Remove(path); err != nil {
				qslog.Errorf("Sweep: removing %s: %v", path, err)
				continue
			}
			removedNames[entry.Name()] = true
			removed++
		}
	}

	if err := s.meta.prune(removedNames, cutoff); err != nil {
		qslog.Errorf("Sweep: pruning metadata: %v", err)
	}

	if removed > 0 {
		qslog.Infof("Cleaned up %d old file(s)", removed)
	}
	return removed
}

// sweepLoop runs Sweep on the configured interval until Close. A failing
// iteration never terminates the loop.
func (s *Store) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.done:
			return
		}
	}
}
