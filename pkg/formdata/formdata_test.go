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

package formdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBoundary = "----TestBoundary1234"

// buildBody assembles a multipart body from alternating disposition lines
// and contents, terminated with the closing marker.
func buildBody(parts ...[2]string) []byte {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString("--" + testBoundary + "\r\n")
		b.WriteString(p[0] + "\r\n")
		b.WriteString("Content-Type: application/octet-stream\r\n")
		b.WriteString("\r\n")
		b.WriteString(p[1] + "\r\n")
	}
	b.WriteString("--" + testBoundary + "--\r\n")
	return []byte(b.String())
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        string
		wantErr     bool
	}{
		{"plain", "multipart/form-data; boundary=abc123", "abc123", false},
		{"quoted", `multipart/form-data; boundary="abc 123"`, "abc 123", false},
		{"trailing parameter", "multipart/form-data; boundary=abc123; charset=utf-8", "abc123", false},
		{"missing", "multipart/form-data", "", true},
		{"empty value", "multipart/form-data; boundary=", "", true},
		{"not multipart", "application/json", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Boundary(tt.contentType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoBoundary)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeSinglePart(t *testing.T) {
	body := buildBody([2]string{
		`Content-Disposition: form-data; name="file"; filename="hello.txt"`,
		"hello world",
	})

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 1)
	assert.Equal(t, "hello.txt", parts[0].Filename)
	assert.Equal(t, "hello world", string(parts[0].Content))
}

func TestDecodeMultipleParts(t *testing.T) {
	body := buildBody(
		[2]string{`Content-Disposition: form-data; name="file"; filename="a.txt"`, "alpha"},
		[2]string{`Content-Disposition: form-data; name="file"; filename="b.txt"`, "beta"},
	)

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 2)
	assert.Equal(t, "a.txt", parts[0].Filename)
	assert.Equal(t, "alpha", string(parts[0].Content))
	assert.Equal(t, "b.txt", parts[1].Filename)
	assert.Equal(t, "beta", string(parts[1].Content))
}

func TestDecodeUnquotedFilename(t *testing.T) {
	body := buildBody([2]string{
		"Content-Disposition: form-data; name=file; filename=plain.txt",
		"content",
	})

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 1)
	assert.Equal(t, "plain.txt", parts[0].Filename)
}

func TestDecodePercentEncodedFilename(t *testing.T) {
	body := buildBody([2]string{
		`Content-Disposition: form-data; name="file"; filename="my%20report.txt"`,
		"content",
	})

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 1)
	assert.Equal(t, "my report.txt", parts[0].Filename)
}

func TestDecodeLatin1Filename(t *testing.T) {
	// 0xE9 is latin-1 for an accented e; invalid as UTF-8 on its own.
	line := []byte(`Content-Disposition: form-data; name="file"; filename="r`)
	line = append(line, 0xE9)
	line = append(line, []byte(`sum.txt"`)...)

	var body []byte
	body = append(body, []byte("--"+testBoundary+"\r\n")...)
	body = append(body, line...)
	body = append(body, []byte("\r\n\r\n")...)
	body = append(body, []byte("content\r\n")...)
	body = append(body, []byte("--"+testBoundary+"--\r\n")...)

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 1)
	assert.Equal(t, "résum.txt", parts[0].Filename)
}

func TestDecodeSkipsPartsWithoutFilename(t *testing.T) {
	body := buildBody(
		[2]string{`Content-Disposition: form-data; name="comment"`, "just a field"},
		[2]string{`Content-Disposition: form-data; name="file"; filename="real.txt"`, "payload"},
	)

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 1)
	assert.Equal(t, "real.txt", parts[0].Filename)
}

func TestDecodeSkipsEmptyContent(t *testing.T) {
	body := buildBody([2]string{
		`Content-Disposition: form-data; name="file"; filename="empty.txt"`,
		"",
	})

	assert.Empty(t, Decode(body, testBoundary))
}

func TestDecodeSkipsMalformedSegment(t *testing.T) {
	body := []byte("--" + testBoundary + "\r\nno header separator here--" + testBoundary + "--\r\n")
	assert.Empty(t, Decode(body, testBoundary))
}

func TestDecodePreservesBinaryContent(t *testing.T) {
	content := string([]byte{0x00, 0x01, 0xFF, 0xFE, '\r', '\n', 0x7F})
	body := buildBody([2]string{
		`Content-Disposition: form-data; name="file"; filename="blob.bin"`,
		content,
	})

	parts := Decode(body, testBoundary)
	require.Len(t, parts, 1)
	assert.Equal(t, content, string(parts[0].Content))
}

func TestDecodeEmptyBody(t *testing.T) {
	assert.Empty(t, Decode(nil, testBoundary))
}
