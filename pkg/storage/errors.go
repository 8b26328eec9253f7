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

import "errors"

var (
	// ErrInvalidName indicates a client-supplied name that sanitizes to
	// nothing usable.
	ErrInvalidName = errors.New("invalid file name")

	// ErrNotFound indicates no stored item matches the requested name.
	ErrNotFound = errors.New("file not found")

	// ErrSizeExceeded indicates an upload larger than the allowed limit.
	ErrSizeExceeded = errors.New("file size exceeds limit")

	// ErrTruncated indicates a source stream that ended before the
	// declared number of bytes arrived.
	ErrTruncated = errors.New("unexpected end of stream")

	// ErrNotText indicates the resolved item is not a text share.
	ErrNotText = errors.New("not a text share")

	// ErrEmptyContent indicates a text share with no content.
	ErrEmptyContent = errors.New("empty content")
)
