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

// Package storage implements the upload ingestion and retention core of
// quickshare: a disk-backed store of ephemeral user files and text shares
// with a JSON metadata sidecar and a periodic retention sweeper.
//
// Layout under the storage root:
//
//	uploads/                user files
//	.metadata/text_shares/  text blobs saved as files
//	.metadata/files.json    filename -> {original_name, saved_at}
//
// A single store mutex serializes every read-modify-write of files.json and
// the sweeper's delete-plus-prune pass. File writes to distinct paths need
// no further locking.
package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	uploadsDirName    = "uploads"
	metadataDirName   = ".metadata"
	textSharesDirName = "text_shares"
	metadataFileName  = "files.json"

	// Stored names carry a second-resolution timestamp suffix.
	timestampLayout = "20060102_150405"

	chunkSize = 8 * 1024
)

// Kind distinguishes user file uploads from text shares.
type Kind string

const (
	KindFile Kind = "file"
	KindText Kind = "text"
)

// Config carries the settings of a Store.
type Config struct {
	// Root is the storage root directory. Required.
	Root string
	// Retention is the maximum age of a stored item. Defaults to 24h.
	Retention time.Duration
	// MaxBytes is the per-upload size ceiling. Defaults to 1 GiB.
	MaxBytes int64
	// SweepInterval is the period of the background sweep. Defaults to 1h.
	SweepInterval time.Duration
}

// Store owns the on-disk storage layout, the metadata sidecar and the
// retention sweeper. All methods are safe for concurrent use.
type Store struct {
	uploadsDir string
	textDir    string

	retention     time.Duration
	maxBytes      int64
	sweepInterval time.Duration

	mu   sync.Mutex
	meta *metaFile

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates the storage directories, runs one retention sweep so stale
// content does not linger until the first interval elapses, and starts the
// background sweeper. An uncreatable storage root is the only fatal
// condition.
func New(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("storage root is required")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 30
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}

	metaDir := filepath.Join(cfg.Root, metadataDirName)
	s := &Store{
		uploadsDir:    filepath.Join(cfg.Root, uploadsDirName),
		textDir:       filepath.Join(metaDir, textSharesDirName),
		retention:     cfg.Retention,
		maxBytes:      cfg.MaxBytes,
		sweepInterval: cfg.SweepInterval,
		meta:          &metaFile{path: filepath.Join(metaDir, metadataFileName)},
		done:          make(chan struct{}),
	}

	for _, dir := range []string{s.uploadsDir, s.textDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
		}
	}

	s.Sweep()

	s.wg.Add(1)
	go s.sweepLoop()

	return s, nil
}

// Close stops the background sweeper. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}

// MaxBytes returns the configured per-upload size ceiling.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Retention returns the configured retention window.
func (s *Store) Retention() time.Duration { return s.retention }

type location struct {
	dir  string
	kind Kind
}

// locations returns the storage directories in lookup order: uploads
// first, text shares second.
func (s *Store) locations() []location {
	return []location{
		{dir: s.uploadsDir, kind: KindFile},
		{dir: s.textDir, kind: KindText},
	}
}

// FileInfo describes one stored item as reported by List.
type FileInfo struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Size        int64     `json:"size"`
	SizeMB      float64   `json:"size_mb"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Type        Kind      `json:"type"`
}

// Stats summarizes the stored items.
type Stats struct {
	TotalFiles  int     `json:"total_files"`
	TotalSize   int64   `json:"total_size"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

// List returns all stored items, newest first. Display names come from the
// metadata sidecar; a missing entry degrades to the on-disk filename.
func (s *Store) List() ([]FileInfo, error) {
	s.mu.Lock()
	records := s.meta.load()
	s.mu.Unlock()

	files := make([]FileInfo, 0)
	for _, loc := range s.locations() {
		dir, kind := loc.dir, loc.kind
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			displayName := entry.Name()
			if rec, ok := records[entry.Name()]; ok && rec.OriginalName != "" {
				displayName = rec.OriginalName
			}
			files = append(files, FileInfo{
				Name:        entry.Name(),
				DisplayName: displayName,
				Size:        info.Size(),
				SizeMB:      roundMB(info.Size()),
				UploadedAt:  info.ModTime(),
				ExpiresAt:   info.ModTime().Add(s.retention),
				Type:        kind,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].UploadedAt.After(files[j].UploadedAt)
	})
	return files, nil
}

// GetStats walks both storage directories and totals the stored bytes.
func (s *Store) GetStats() (Stats, error) {
	var stats Stats
	for _, dir := range []string{s.uploadsDir, s.textDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return Stats{}, fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			stats.TotalFiles++
			stats.TotalSize += info.Size()
		}
	}
	stats.TotalSizeMB = roundMB(stats.TotalSize)
	return stats, nil
}

// Resolve locates a stored item by its client-supplied name, trying the
// sanitized name under uploads first, then under text shares. It returns
// the absolute path and the item kind.
func (s *Store) Resolve(name string) (string, Kind, error) {
	sanitized := SanitizeName(name)
	if sanitized == "" {
		return "", "", ErrInvalidName
	}
	for _, loc := range s.locations() {
		path := filepath.Join(loc.dir, sanitized)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, loc.kind, nil
		} else if err != nil && errors.Is(err, os.ErrPermission) {
			return "", "", err
		}
	}
	return "", "", fmt.Errorf("%q: %w", name, ErrNotFound)
}

// ReadText returns the content of a text share. Items outside the text
// shares directory are rejected with ErrNotText.
func (s *Store) ReadText(name string) (string, error) {
	path, kind, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	if kind != KindText {
		return "", fmt.Errorf("%q: %w", name, ErrNotText)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%q: %w", name, ErrEmptyContent)
	}
	return string(data), nil
}

func roundMB(size int64) float64 {
	return math.Round(float64(size)/(1024*1024)*100) / 100
}
