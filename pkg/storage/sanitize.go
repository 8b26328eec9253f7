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

import "strings"

// SanitizeName maps an arbitrary client-supplied name to a safe on-disk
// basename. It keeps only the final path segment and strips ".." sequences
// and both path separators. It never fails; an empty result means the input
// was unusable and callers must treat it as invalid.
//
// Every externally supplied name must pass through here before it touches
// the filesystem.
func SanitizeName(raw string) string {
	if i := strings.LastIndexAny(raw, `/\`); i >= 0 {
		raw = raw[i+1:]
	}
	raw = strings.ReplaceAll(raw, "..", "")
	raw = strings.ReplaceAll(raw, "/", "")
	raw = strings.ReplaceAll(raw, `\`, "")
	return raw
}
