package request

import (
	jsoniter "github.com/json-iterator/go"
)

// json encodes structured query values.
// HTML characters are not escaped, the output is percent-encoded later.
var json = jsoniter.Config{ //nolint:gochecknoglobals
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()
