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

// Package share exposes the quickshare HTTP API on top of the storage
// core: uploads, text shares, listing, download, deletion and manual
// cleanup.
package share

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/odysafe/quickshare/pkg/formdata"
	"github.com/odysafe/quickshare/pkg/qslog"
	"github.com/odysafe/quickshare/pkg/storage"
)

// uploadBatchFactor bounds the aggregate multipart body relative to the
// per-file ceiling, allowing several files per request.
const uploadBatchFactor = 10

// Handler serves the quickshare HTTP API.
type Handler struct {
	store *storage.Store
}

// NewHandler wires the API onto a storage core.
func NewHandler(store *storage.Store) *Handler {
	return &Handler{store: store}
}

// Routes builds the request mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/files", h.handleFilesList)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /api/text/{name}", h.handleTextContent)
	mux.HandleFunc("GET /download/{name}", h.handleDownload)
	mux.HandleFunc("POST /upload", h.handleUpload)
	mux.HandleFunc("POST /upload-text", h.handleTextUpload)
	mux.HandleFunc("POST /api/delete/{name}", h.handleDelete)
	mux.HandleFunc("POST /api/cleanup", h.handleCleanup)
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "Not found")
	})
	return mux
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "quickshare: ephemeral file and text sharing")
}

func (h *Handler) handleFilesList(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List()
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, files)
}

type statsResponse struct {
	storage.Stats
	CleanupHours float64 `json:"cleanup_hours"`
	MaxSizeMB    float64 `json:"max_size_mb"`
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats()
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statsResponse{
		Stats:        stats,
		CleanupHours: h.store.Retention().Hours(),
		MaxSizeMB:    float64(h.store.MaxBytes()) / (1024 * 1024),
	})
}

func (h *Handler) handleTextContent(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if strings.TrimSpace(name) == "" {
		h.writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	content, err := h.store.ReadText(name)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		h.writeError(w, http.StatusNotFound, "File not found")
		return
	case errors.Is(err, storage.ErrNotText):
		h.writeError(w, http.StatusBadRequest, "Not a text file")
		return
	case errors.Is(err, storage.ErrEmptyContent):
		h.writeError(w, http.StatusBadRequest, "File is empty")
		return
	default:
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"content":  content,
		"filename": name,
	})
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	path, _, err := h.store.Resolve(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			h.writeError(w, http.StatusNotFound, "File not found")
		} else {
			h.writeFailure(w, err)
		}
		return
	}

	f, err := os.Open(path)
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	if _, err := io.Copy(w, f); err != nil {
		qslog.Errorf("Download of %s aborted: %v", name, err)
	}
}

// uploadResult is the per-part outcome reported to the client. A failed
// part carries no Filename and a populated Error.
type uploadResult struct {
	Filename     string `json:"filename,omitempty"`
	Size         int64  `json:"size"`
	OriginalName string `json:"original_name"`
	Error        string `json:"error,omitempty"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		h.writeError(w, http.StatusBadRequest, "Invalid content type")
		return
	}

	maxTotal := h.store.MaxBytes() * uploadBatchFactor
	if r.ContentLength > maxTotal {
		h.writeError(w, http.StatusBadRequest, "Total upload size too large")
		return
	}

	boundary, err := formdata.Boundary(contentType)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid multipart boundary")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTotal))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Total upload size too large")
		return
	}

	var succeeded, failed []uploadResult
	for _, part := range formdata.Decode(body, boundary) {
		partSize := int64(len(part.Content))
		if partSize > h.store.MaxBytes() {
			failed = append(failed, uploadResult{
				Size:         partSize,
				OriginalName: part.Filename,
				Error:        fmt.Sprintf("File size exceeds %.0f MB limit", float64(h.store.MaxBytes())/(1024*1024)),
			})
			continue
		}

		storedName, written, err := h.store.Save(part.Filename, storage.KindFile, bytes.NewReader(part.Content), partSize)
		if err != nil {
			failed = append(failed, uploadResult{
				Size:         partSize,
				OriginalName: part.Filename,
				Error:        fmt.Sprintf("Failed to save file: %v", err),
			})
			continue
		}
		succeeded = append(succeeded, uploadResult{
			Filename:     storedName,
			Size:         written,
			OriginalName: part.Filename,
		})
	}

	switch {
	case len(succeeded) > 0:
		response := map[string]any{
			"success":  true,
			"uploaded": len(succeeded),
			"files":    succeeded,
		}
		if len(failed) > 0 {
			response["failed"] = failed
		}
		h.writeJSON(w, http.StatusOK, response)
	case len(failed) > 0:
		details := make([]string, len(failed))
		for i, f := range failed {
			details[i] = f.Error
		}
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "All uploads failed",
			"details": details,
			"files":   failed,
		})
	default:
		h.writeError(w, http.StatusBadRequest, "No files uploaded")
	}
}

func (h *Handler) handleTextUpload(w http.ResponseWriter, r *http.Request) {
	contentLength := r.ContentLength
	if contentLength <= 0 {
		h.writeError(w, http.StatusBadRequest, "Empty content")
		return
	}
	if contentLength > h.store.MaxBytes() {
		h.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Text too large (max %.0f MB)", float64(h.store.MaxBytes())/(1024*1024)))
		return
	}

	storedName, _, err := h.store.Save("", storage.KindText, r.Body, contentLength)
	if err != nil {
		if errors.Is(err, storage.ErrSizeExceeded) || errors.Is(err, storage.ErrTruncated) {
			h.writeError(w, http.StatusBadRequest, err.Error())
		} else {
			h.writeFailure(w, err)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"filename": storedName,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if !h.store.Delete(name) {
		h.writeJSON(w, http.StatusNotFound, map[string]any{
			"error":    "File not found",
			"filename": name,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "File deleted successfully",
	})
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	h.store.Sweep()
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		qslog.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// writeFailure translates an unclassified storage error: permission
// problems become 403, everything else 500. The request never crashes the
// server.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	qslog.Errorf("Request failed: %v", err)
	if errors.Is(err, os.ErrPermission) {
		h.writeError(w, http.StatusForbidden, "Permission denied")
		return
	}
	h.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
}
