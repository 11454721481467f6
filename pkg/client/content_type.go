package client

import (
	"regexp"
	"strings"
)

const (
	ContentTypeApplicationJSON       = "application/json"
	ContentTypeApplicationJSONRegexp = `^application/([a-zA-Z0-9\.\-]+\+)?json$`
	ContentTypeFormURLEncoded        = "application/x-www-form-urlencoded"
)

var jsonContentTypeRegexp = regexp.MustCompile(ContentTypeApplicationJSONRegexp)

// isJSONContentType matches the media type, parameters, for example charset, are ignored.
func isJSONContentType(contentType string) bool {
	return jsonContentTypeRegexp.MatchString(mediaType(contentType))
}

func mediaType(contentType string) string {
	v, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(v))
}
