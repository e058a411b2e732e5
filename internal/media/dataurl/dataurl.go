// Package dataurl encodes file content as base64 "data:" URLs, the form in
// which uploads are handed to a media host.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	scheme = "data:"
	marker = ";base64,"
)

var ErrMalformed = errors.New("malformed data url")

// Encode returns data:<mediaType>;base64,<payload>. An empty media type is
// kept empty, matching what browsers send for untyped files.
func Encode(mediaType string, data []byte) string {
	var b strings.Builder
	b.Grow(len(scheme) + len(mediaType) + len(marker) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(scheme)
	b.WriteString(mediaType)
	b.WriteString(marker)
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// Decode reverses Encode. Only base64 data URLs are accepted.
func Decode(url string) (mediaType string, data []byte, err error) {
	if !strings.HasPrefix(url, scheme) {
		return "", nil, fmt.Errorf("%w: missing %q prefix", ErrMalformed, scheme)
	}
	rest := strings.TrimPrefix(url, scheme)

	idx := strings.Index(rest, marker)
	if idx < 0 {
		return "", nil, fmt.Errorf("%w: not base64 encoded", ErrMalformed)
	}

	mediaType = rest[:idx]
	data, err = base64.StdEncoding.DecodeString(rest[idx+len(marker):])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return mediaType, data, nil
}
