package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Response is the raw response of the Client, the transport collaborator of the sender.Sender.
type Response struct {
	StatusCode int
	Header     http.Header
	// Data is the decoded body: a JSON value for JSON content types, otherwise a string.
	Data        any
	RawResponse *http.Response
}

// WithData returns a clone of the Response with the data replaced.
// It is used by the sender.Sender, if the returnRawResponse option is set.
func (r *Response) WithData(data any) *Response {
	if r == nil {
		return &Response{Data: data}
	}
	clone := *r
	clone.Data = data
	return &clone
}

// GetData extracts the payload from the Response, it is the sender.Config GetDataFromResponse collaborator.
func GetData(r *Response) any {
	if r == nil {
		return nil
	}
	return r.Data
}

// HTTPError is returned if the response status code is 400 or more.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	// Body is the decoded response body, see Response.Data.
	Body any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`request %s "%s" failed: %d %s`, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ErrorStatusCode returns the status code of the HTTPError in the err chain.
func ErrorStatusCode(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}

// IsUnauthorized returns true if the err chain contains the HTTPError with 401 status code.
func IsUnauthorized(err error) bool {
	code, ok := ErrorStatusCode(err)
	return ok && code == http.StatusUnauthorized
}
