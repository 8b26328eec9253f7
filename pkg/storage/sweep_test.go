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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ageFile(t *testing.T, path string, age time.Duration) {
	t.Helper()
	when := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, when, when))
}

func TestSweepRemovesExpiredItems(t *testing.T) {
	s := newTestStore(t, 1<<20)

	fileName, _, err := s.Save("stale.txt", KindFile, strings.NewReader("old"), 3)
	require.NoError(t, err)
	textName, _, err := s.Save("", KindText, strings.NewReader("old note"), 8)
	require.NoError(t, err)

	ageFile(t, filepath.Join(s.uploadsDir, fileName), 25*time.Hour)
	ageFile(t, filepath.Join(s.textDir, textName), 25*time.Hour)

	assert.Equal(t, 2, s.Sweep())

	assert.Empty(t, uploadsEntries(t, s))
	textEntries, err := os.ReadDir(s.textDir)
	require.NoError(t, err)
	assert.Empty(t, textEntries)

	// The sidecar entries go with the files.
	assert.Empty(t, s.meta.load())
}

func TestSweepKeepsRecentItems(t *testing.T) {
	s := newTestStore(t, 1<<20)

	keep, _, err := s.Save("keep.txt", KindFile, strings.NewReader("fresh"), 5)
	require.NoError(t, err)
	drop, _, err := s.Save("drop.txt", KindFile, strings.NewReader("stale"), 5)
	require.NoError(t, err)

	ageFile(t, filepath.Join(s.uploadsDir, keep), 23*time.Hour)
	ageFile(t, filepath.Join(s.uploadsDir, drop), 25*time.Hour)

	assert.Equal(t, 1, s.Sweep())

	entries := uploadsEntries(t, s)
	require.Len(t, entries, 1)
	assert.Equal(t, keep, entries[0].Name())

	records := s.meta.load()
	assert.Contains(t, records, keep)
	assert.NotContains(t, records, drop)
}

func TestSweepIsIdempotent(t *testing.T) {
	s := newTestStore(t, 1<<20)

	name, _, err := s.Save("stale.txt", KindFile, strings.NewReader("old"), 3)
	require.NoError(t, err)
	ageFile(t, filepath.Join(s.uploadsDir, name), 48*time.Hour)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())
}

func TestSweepOnEmptyStore(t *testing.T) {
	s := newTestStore(t, 1<<20)
	assert.Equal(t, 0, s.Sweep())
}

func TestNewSweepsAtStartup(t *testing.T) {
	root := t.TempDir()
	uploads := filepath.Join(root, uploadsDirName)
	require.NoError(t, os.MkdirAll(uploads, 0o755))

	stale := filepath.Join(uploads, "leftover.txt")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))
	ageFile(t, stale, 48*time.Hour)

	s, err := New(Config{Root: root, Retention: 24 * time.Hour, MaxBytes: 1 << 20, SweepInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr))
}
