package client

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"

	"github.com/keboola/go-request-sender/pkg/request"
)

// requestBody is a re-readable request body, a redirect or a retry requires reading the body more than once.
type requestBody struct {
	contentType string
	open        func() (io.ReadCloser, error)
}

// newRequestBody encodes the request argument, it is not called if the payload has been encoded to the query string:
//   - *multipart.Form is encoded as "multipart/form-data",
//   - url.Values is encoded as "application/x-www-form-urlencoded",
//   - string, []byte and io.Reader are sent raw,
//   - other values are encoded as JSON, or as a form, if the content type is "application/x-www-form-urlencoded", see request.ToFormBody.
//
// The content type from the RequestConfig has priority, except the multipart form, it requires the boundary.
func newRequestBody(data any, cfg RequestConfig) (*requestBody, error) {
	if data == nil {
		return nil, nil
	}

	contentType := cfg.ContentType
	withDefault := func(v string) string {
		if contentType != "" {
			return contentType
		}
		return v
	}

	switch v := data.(type) {
	case *multipart.Form:
		content, formContentType, err := encodeMultipartForm(v)
		if err != nil {
			return nil, fmt.Errorf("cannot encode multipart form: %w", err)
		}
		return bytesBody(formContentType, content), nil
	case url.Values:
		return bytesBody(withDefault(ContentTypeFormURLEncoded), []byte(v.Encode())), nil
	case string:
		return bytesBody(contentType, []byte(v)), nil
	case []byte:
		return bytesBody(contentType, v), nil
	case io.ReadSeeker:
		return &requestBody{
			contentType: contentType,
			open: func() (io.ReadCloser, error) {
				if _, err := v.Seek(0, io.SeekStart); err != nil {
					return nil, err
				}
				return io.NopCloser(v), nil
			},
		}, nil
	case io.Reader:
		// The stream can be read only once, it is buffered for redirects and retries
		content, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("cannot read request body: %w", err)
		}
		return bytesBody(contentType, content), nil
	default:
		if mediaType(contentType) == ContentTypeFormURLEncoded {
			values := make(url.Values)
			for k, v := range request.ToFormBody(data) {
				values.Set(k, v)
			}
			return bytesBody(contentType, []byte(values.Encode())), nil
		}
		content, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("cannot encode JSON body: %w", err)
		}
		return bytesBody(withDefault(ContentTypeApplicationJSON), content), nil
	}
}

func bytesBody(contentType string, content []byte) *requestBody {
	return &requestBody{
		contentType: contentType,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// encodeMultipartForm writes values and then files, keys are sorted for a stable output.
func encodeMultipartForm(form *multipart.Form) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, key := range sortedKeys(form.Value) {
		for _, value := range form.Value[key] {
			if err := w.WriteField(key, value); err != nil {
				return nil, "", err
			}
		}
	}

	for _, key := range sortedKeys(form.File) {
		for _, header := range form.File[key] {
			if err := writeFormFile(w, key, header); err != nil {
				return nil, "", err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFormFile(w *multipart.Writer, key string, header *multipart.FileHeader) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf(`cannot open file "%s": %w`, header.Filename, err)
	}
	defer src.Close()

	dst, err := w.CreateFormFile(key, header.Filename)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
