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

// Package formdata decodes multipart/form-data request bodies.
//
// The decoder deliberately holds the full body and each part in memory:
// boundary splitting is inherently non-streaming, and the caller bounds the
// request size before handing the body over. Per-part size ceilings are
// enforced downstream by the storage writer, which receives each part with
// an explicit expected size.
package formdata

import (
	"bytes"
	"errors"
	"net/url"
	"strings"
	"unicode/utf8"
)

// ErrNoBoundary indicates a content type without a usable multipart
// boundary parameter.
var ErrNoBoundary = errors.New("no multipart boundary in content type")

// Part is one decoded file part of a multipart body.
type Part struct {
	Filename string
	Content  []byte
}

var crlf = []byte("\r\n")

// Boundary extracts the boundary token from a Content-Type header value,
// stripping surrounding quotes if present.
func Boundary(contentType string) (string, error) {
	const param = "boundary="
	idx := strings.Index(contentType, param)
	if idx < 0 {
		return "", ErrNoBoundary
	}
	boundary := strings.TrimSpace(contentType[idx+len(param):])
	if i := strings.IndexByte(boundary, ';'); i >= 0 {
		boundary = strings.TrimSpace(boundary[:i])
	}
	if len(boundary) >= 2 && boundary[0] == '"' && boundary[len(boundary)-1] == '"' {
		boundary = boundary[1 : len(boundary)-1]
	}
	if boundary == "" {
		return "", ErrNoBoundary
	}
	return boundary, nil
}

// Decode splits body on the boundary marker and extracts the file parts.
// Segments without a resolvable filename or with empty content are skipped;
// a malformed segment never fails the whole body.
func Decode(body []byte, boundary string) []Part {
	marker := append([]byte("--"), boundary...)

	var parts []Part
	for _, segment := range bytes.Split(body, marker) {
		trimmed := bytes.TrimSpace(segment)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("--")) {
			continue
		}

		headerEnd := bytes.Index(segment, []byte("\r\n\r\n"))
		if headerEnd < 0 {
			continue
		}
		headers := segment[:headerEnd]
		content := segment[headerEnd+4:]
		// The CRLF before the next boundary belongs to the boundary, not
		// the content.
		content = bytes.TrimSuffix(content, crlf)

		filename := scanFilename(headers)
		if filename == "" || len(content) == 0 {
			continue
		}
		parts = append(parts, Part{Filename: filename, Content: content})
	}
	return parts
}

// scanFilename walks the per-part header block line by line, looking for a
// Content-Disposition line that carries a filename parameter.
func scanFilename(headers []byte) string {
	for _, line := range bytes.Split(headers, crlf) {
		lower := bytes.ToLower(line)
		if !bytes.Contains(lower, []byte("content-disposition")) {
			continue
		}
		if !bytes.Contains(lower, []byte("filename")) {
			continue
		}
		raw := filenameParam(line, lower)
		if len(raw) == 0 {
			continue
		}
		if name := decodeFilename(raw); name != "" {
			return name
		}
	}
	return ""
}

// filenameParam extracts the raw filename bytes from a header line. The
// quoted form filename="..." is preferred; the bare form filename=... is
// the fallback, terminated by space, semicolon or end of line.
func filenameParam(line, lower []byte) []byte {
	const quoted = `filename="`
	if start := bytes.Index(lower, []byte(quoted)); start >= 0 {
		value := line[start+len(quoted):]
		if end := bytes.IndexByte(value, '"'); end >= 0 {
			return value[:end]
		}
		return nil
	}

	const bare = "filename="
	start := bytes.Index(lower, []byte(bare))
	if start < 0 {
		return nil
	}
	value := line[start+len(bare):]
	if end := bytes.IndexAny(value, " ;\r\n"); end >= 0 {
		value = value[:end]
	}
	return value
}

// decodeFilename turns the raw filename bytes into a string: UTF-8 when
// valid with a latin-1 fallback, surrounding quotes removed, then
// percent-decoded since some clients URL-encode filenames. A blank result
// means no usable filename.
func decodeFilename(raw []byte) string {
	var name string
	if utf8.Valid(raw) {
		name = string(raw)
	} else {
		runes := make([]rune, len(raw))
		for i, b := range raw {
			runes[i] = rune(b)
		}
		name = string(runes)
	}

	name = trimMatchingQuotes(name, '"')
	name = trimMatchingQuotes(name, '\'')

	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	if strings.TrimSpace(name) == "" {
		return ""
	}
	return name
}

func trimMatchingQuotes(s string, q byte) string {
	if len(s) >= 2 && s[0] == q && s[len(s)-1] == q {
		return s[1 : len(s)-1]
	}
	return s
}
