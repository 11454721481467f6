package counter_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keboola/go-request-sender/pkg/client/counter"
)

func TestReadCloser(t *testing.T) {
	t.Parallel()

	cases := []testCase{
		{
			name:    "empty",
			content: "",
		},
		{
			name:    "no error",
			content: "abcdef",
		},
		{
			// EOF is reached before Close, so the close error is not reported by the callback
			name:             "close error",
			content:          "abcdef",
			closeErr:         errors.New("close error"),
			expectedCloseErr: "close error",
		},
		{
			name:            "read error",
			content:         "abcdef",
			readErr:         errors.New("read error"),
			expectedReadErr: "read error",
			expectedDoneErr: "read error",
		},
		{
			name:             "read and close error",
			content:          "abcdef",
			readErr:          errors.New("read error"),
			closeErr:         errors.New("close error"),
			expectedReadErr:  "read error",
			expectedCloseErr: "close error",
			expectedDoneErr:  "read error",
		},
	}

	for _, tc := range cases {
		// Setup callback
		doneCalls := 0
		onDoneFn := func(bytes int64, err error) {
			doneCalls++

			// All bytes must be read
			assert.Equal(t, (int64)(len(tc.content)), bytes, tc.name)

			// Check expected error
			if tc.expectedDoneErr != "" {
				if assert.Error(t, err, tc.name) {
					assert.Equal(t, tc.expectedDoneErr, err.Error(), tc.name)
				}
			} else {
				assert.NoError(t, err, tc.name)
			}
		}

		// Create measured reader
		r := counter.NewReadCloser(
			&testReader{content: strings.NewReader(tc.content), readErr: tc.readErr, closeErr: tc.closeErr},
			onDoneFn,
		)

		// Test Read
		outBytes, err := io.ReadAll(r)
		assert.Equal(t, tc.content, string(outBytes))
		assert.Equal(t, int64(len(tc.content)), r.Bytes())
		if tc.expectedReadErr == "" {
			assert.NoError(t, err, tc.name)
		} else {
			if assert.Error(t, err, tc.name) {
				assert.Equal(t, tc.expectedReadErr, err.Error(), tc.name)
			}
		}
		assert.Equal(t, 1, doneCalls, tc.name)

		// Test Close
		err = r.Close()
		if tc.expectedCloseErr == "" {
			assert.NoError(t, err, tc.name)
		} else {
			if assert.Error(t, err, tc.name) {
				assert.Equal(t, tc.expectedCloseErr, err.Error(), tc.name)
			}
		}

		// Callback is called only once
		assert.Equal(t, 1, doneCalls, tc.name)
	}
}

func TestReadCloser_CloseBeforeEOF(t *testing.T) {
	t.Parallel()

	var doneBytes int64
	doneCalls := 0
	r := counter.NewReadCloser(&testReader{content: strings.NewReader("abcdef")}, func(bytes int64, err error) {
		doneCalls++
		doneBytes = bytes
		assert.NoError(t, err)
	})

	buf := make([]byte, 2)
	n, err := r.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, doneCalls)

	assert.NoError(t, r.Close())
	assert.Equal(t, 1, doneCalls)
	assert.Equal(t, int64(2), doneBytes)
}

type testCase struct {
	name             string
	content          string
	readErr          error
	closeErr         error
	expectedReadErr  string
	expectedCloseErr string
	expectedDoneErr  string
}

type testReader struct {
	content  io.Reader
	readErr  error
	closeErr error
}

func (r *testReader) Read(p []byte) (n int, err error) {
	n, err = r.content.Read(p)

	// Return read error, if any
	if err == nil {
		err = r.readErr
	}

	return n, err
}

func (r *testReader) Close() error {
	// Return close error, if any
	return r.closeErr
}
