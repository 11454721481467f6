package request

import (
	"regexp"
	"strings"

	"github.com/keboola/go-request-sender/pkg/merge"
)

// placeholderRegexp matches path placeholders, for example "api/resource/:id/".
var placeholderRegexp = regexp.MustCompile(`:([^/\s]+)`) //nolint:gochecknoglobals

// ResolveArgs are arguments of the Resolve function.
type ResolveArgs struct {
	URLPrefix string
	Method    string
	BaseURL   string
	Data      any
	// Options are the per-call options, the request is validated only if they contain a request schema.
	Options     Options
	EncodeQuery EncodeQueryFunc
	Validator   ValidatorFunc
	// BuildQuery is optional, DefaultBuildQuery is used if it is not set.
	BuildQuery BuildQueryFunc
}

// Resolved is the result of the Resolve function.
type Resolved struct {
	RequestArg any
	URL        string
}

// ResolverFunc converts call arguments to the final URL and request argument.
type ResolverFunc func(args ResolveArgs) (Resolved, error)

// DefaultBuildQuery returns true for GET and DELETE methods, case-insensitive.
func DefaultBuildQuery(method string) bool {
	return strings.EqualFold(method, "get") || strings.EqualFold(method, "delete")
}

// Resolve validates the payload, replaces path placeholders and builds the query string.
//
// Steps:
//  1. The payload is copied, see normalizePayload.
//  2. If the options contain a request schema, the payload is validated.
//  3. Each ":name" placeholder in the base URL is replaced by the payload value, the key is removed from the payload.
//     Placeholders without a defined value are kept.
//  4. The URL prefix is added.
//  5. If BuildQuery returns true, the remaining payload keys are encoded to the query string.
//  6. A form payload is always returned unchanged as the request argument.
//
// Only errors returned by the validator are returned.
func Resolve(args ResolveArgs) (Resolved, error) {
	requestArg := normalizePayload(args.Data)

	// Validate
	if args.Validator != nil && args.Options.RequestSchema() != nil {
		validated, err := args.Validator(ValidateArgs{
			Data:      requestArg,
			Direction: DirectionRequest,
			Schema:    args.Options.RequestSchema(),
			Options:   args.Options.ValidationOptions(),
		})
		if err != nil {
			return Resolved{}, err
		}
		requestArg = validated
	}

	var payload view
	if !isRawBody(requestArg) {
		payload = viewOf(requestArg)
	}

	// Replace placeholders, example: api/resource/:id/ => api/resource/7/
	baseURL := placeholderRegexp.ReplaceAllStringFunc(args.BaseURL, func(match string) string {
		if payload == nil {
			return match
		}
		key := match[1:]
		value, found := payload.get(key)
		if !found || merge.IsUndefined(value) {
			return match
		}
		payload.delete(key)
		return stringValue(value)
	})

	// Add prefix and query
	baseURL = args.URLPrefix + baseURL
	url := baseURL
	buildQuery := args.BuildQuery
	if buildQuery == nil {
		buildQuery = DefaultBuildQuery
	}
	if buildQuery(args.Method) && payload != nil {
		encodeQuery := args.EncodeQuery
		if encodeQuery == nil {
			encodeQuery = EncodeQueryValue
		}
		url += buildQueryString(payload, encodeQuery)
	}

	// Form is sent unchanged
	if isForm(args.Data) {
		requestArg = args.Data
	} else if v, ok := payload.(orderedView); ok {
		// A struct returned by the validator has been converted, the view contains the remaining payload
		requestArg = v.OrderedMap
	} else if v, ok := payload.(sequenceView); ok {
		requestArg = []any(v)
	}

	return Resolved{RequestArg: requestArg, URL: url}, nil
}

func buildQueryString(payload view, encodeQuery EncodeQueryFunc) string {
	var parts []string
	for _, key := range payload.keys() {
		value, _ := payload.get(key)
		if merge.IsUndefined(value) {
			continue
		}
		parts = append(parts, key+"="+encodeQuery(value))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}
