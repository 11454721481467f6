// Package counter measures HTTP bodies.
package counter

import (
	"errors"
	"io"
	"sync"
)

// ReadCloser wraps an io.ReadCloser (request/response body) to count bytes read from the reader.
// The OnDone callback is called once: when the reader reaches the EOF, fails or is closed, whichever comes first.
type ReadCloser struct {
	wrapped io.ReadCloser
	onDone  OnDone
	once    sync.Once
	bytes   int64
	readErr error
}

// OnDone receives the number of bytes read, and the read error, if any.
type OnDone func(bytes int64, err error)

func NewReadCloser(wrapped io.ReadCloser, onDone OnDone) *ReadCloser {
	return &ReadCloser{wrapped: wrapped, onDone: onDone}
}

func (w *ReadCloser) Bytes() int64 {
	return w.bytes
}

func (w *ReadCloser) Read(b []byte) (int, error) {
	n, err := w.wrapped.Read(b)
	w.bytes += int64(n)
	if err != nil {
		w.readErr = err
		if errors.Is(err, io.EOF) {
			w.done(nil)
		} else {
			w.done(err)
		}
	}
	return n, err
}

func (w *ReadCloser) Close() error {
	closeErr := w.wrapped.Close()
	// Prefer read error before close error, it is usually more useful
	if w.readErr != nil && !errors.Is(w.readErr, io.EOF) {
		w.done(w.readErr)
	} else {
		w.done(closeErr)
	}
	return closeErr
}

func (w *ReadCloser) done(err error) {
	if w.onDone != nil {
		w.once.Do(func() {
			w.onDone(w.bytes, err)
		})
	}
}
