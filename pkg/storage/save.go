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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odysafe/quickshare/pkg/qslog"
)

// Save streams src to a uniquely-named file and registers it in the
// metadata sidecar. It returns the stored filename and the number of bytes
// written.
//
// For KindFile the declared name is sanitized and a second-resolution
// timestamp is appended to the stem; for KindText the declared name is
// ignored and text_<timestamp>.txt is synthesized.
//
// When expectedSize is positive the stream must deliver exactly that many
// bytes: starving earlier is ErrTruncated, and a declared size over the
// configured ceiling is ErrSizeExceeded. Without an expected size the
// configured ceiling is enforced on the running total. Every failure path
// deletes the partial file before returning, so neither an orphan file nor
// an orphan metadata entry is left behind.
func (s *Store) Save(declaredName string, kind Kind, src io.Reader, expectedSize int64) (string, int64, error) {
	now := time.Now()
	timestamp := now.Format(timestampLayout)

	var dir, storedName, originalName string
	switch kind {
	case KindText:
		storedName = "text_" + timestamp + ".txt"
		originalName = storedName
		dir = s.textDir
	default:
		sanitized := SanitizeName(declaredName)
		if sanitized == "" {
			return "", 0, fmt.Errorf("%q: %w", declaredName, ErrInvalidName)
		}
		ext := filepath.Ext(sanitized)
		stem := strings.TrimSuffix(sanitized, ext)
		storedName = stem + "_" + timestamp + ext
		originalName = declaredName
		dir = s.uploadsDir
	}

	if expectedSize > s.maxBytes {
		return "", 0, fmt.Errorf("%d bytes over %d byte limit: %w", expectedSize, s.maxBytes, ErrSizeExceeded)
	}

	path := filepath.Join(dir, storedName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", storedName, err)
	}

	written, err := s.copyBounded(f, src, expectedSize)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", storedName, cerr)
	}
	if err != nil {
		s.discard(path)
		return "", 0, err
	}

	s.mu.Lock()
	err = s.meta.upsert(storedName, Record{OriginalName: originalName, SavedAt: now})
	s.mu.Unlock()
	if err != nil {
		s.discard(path)
		return "", 0, err
	}

	return storedName, written, nil
}

// copyBounded streams src to dst in fixed-size chunks, never holding more
// than one chunk in memory. With a positive expectedSize it reads exactly
// that many bytes and reports a starved stream as ErrTruncated; otherwise
// it enforces the configured ceiling on the running total.
func (s *Store) copyBounded(dst io.Writer, src io.Reader, expectedSize int64) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64

	for {
		readSize := int64(chunkSize)
		if expectedSize > 0 {
			remaining := expectedSize - written
			if remaining <= 0 {
				return written, nil
			}
			if remaining < readSize {
				readSize = remaining
			}
		}

		n, err := src.Read(buf[:readSize])
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("writing chunk: %w", werr)
			}
			written += int64(n)

			if expectedSize <= 0 && written > s.maxBytes {
				return written, fmt.Errorf("%d byte limit: %w", s.maxBytes, ErrSizeExceeded)
			}
		}
		if err == io.EOF {
			if expectedSize > 0 && written < expectedSize {
				return written, fmt.Errorf("expected %d bytes but got %d: %w", expectedSize, written, ErrTruncated)
			}
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("reading stream: %w", err)
		}
	}
}

// discard removes a partially written file, best effort.
func (s *Store) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		qslog.Warnf("Failed to remove partial file %s: %v", path, err)
	}
}
