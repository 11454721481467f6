// Package decode unwraps compressed HTTP bodies by the Content-Encoding header.
package decode

import (
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// AcceptEncoding is the value of the Accept-Encoding header, it lists the supported encodings.
const AcceptEncoding = "gzip, br"

// Decode wraps the body by a decoder for the content encoding.
// The original body is closed together with the returned reader.
// Unknown encodings, "identity" and an empty value return the body unchanged.
func Decode(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("cannot decode gzip: %w", err)
		}
		return readCloser{Reader: r, closers: []io.Closer{r, body}}, nil
	case "br":
		return readCloser{Reader: brotli.NewReader(body), closers: []io.Closer{body}}, nil
	case "deflate":
		r := flate.NewReader(body)
		return readCloser{Reader: r, closers: []io.Closer{r, body}}, nil
	default:
		return body, nil
	}
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (v readCloser) Close() error {
	var firstErr error
	for _, c := range v.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
