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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMeta(t *testing.T) *metaFile {
	t.Helper()
	return &metaFile{path: filepath.Join(t.TempDir(), "files.json")}
}

func TestMetaLoadMissingFile(t *testing.T) {
	m := newTestMeta(t)
	assert.Empty(t, m.load())
}

func TestMetaLoadCorruptFile(t *testing.T) {
	m := newTestMeta(t)
	require.NoError(t, os.WriteFile(m.path, []byte("{not json"), 0o644))
	assert.Empty(t, m.load())
}

func TestMetaUpsertAndLoad(t *testing.T) {
	m := newTestMeta(t)
	rec := Record{OriginalName: "report.txt", SavedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, m.upsert("report_20250101_120000.txt", rec))

	records := m.load()
	require.Len(t, records, 1)
	got := records["report_20250101_120000.txt"]
	assert.Equal(t, rec.OriginalName, got.OriginalName)
	assert.True(t, rec.SavedAt.Equal(got.SavedAt))
}

func TestMetaRemove(t *testing.T) {
	m := newTestMeta(t)
	require.NoError(t, m.upsert("a.txt", Record{OriginalName: "a.txt", SavedAt: time.Now()}))
	require.NoError(t, m.upsert("b.txt", Record{OriginalName: "b.txt", SavedAt: time.Now()}))

	require.NoError(t, m.remove("a.txt", "missing.txt"))

	records := m.load()
	assert.Len(t, records, 1)
	assert.Contains(t, records, "b.txt")
}

func TestMetaRemoveOnEmptySidecarWritesNothing(t *testing.T) {
	m := newTestMeta(t)
	require.NoError(t, m.remove("anything.txt"))
	_, err := os.Stat(m.path)
	assert.True(t, os.IsNotExist(err))
}

func TestMetaPrune(t *testing.T) {
	m := newTestMeta(t)
	now := time.Now()
	require.NoError(t, m.upsert("old.txt", Record{OriginalName: "old.txt", SavedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, m.upsert("fresh.txt", Record{OriginalName: "fresh.txt", SavedAt: now}))
	require.NoError(t, m.upsert("swept.txt", Record{OriginalName: "swept.txt", SavedAt: now}))

	cutoff := now.Add(-24 * time.Hour)
	require.NoError(t, m.prune(map[string]bool{"swept.txt": true}, cutoff))

	records := m.load()
	assert.Len(t, records, 1)
	assert.Contains(t, records, "fresh.txt")
}
