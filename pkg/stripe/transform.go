package stripe

import (
	"net/http"
	"strings"
)

// volatileHeaders are response headers that vary between otherwise identical
// gateway calls. They must be stripped before a response is compared or
// replayed anywhere that expects deterministic bytes.
var volatileHeaders = map[string]struct{}{
	"date":                 {},
	"server":               {},
	"connection":           {},
	"keep-alive":           {},
	"transfer-encoding":    {},
	"set-cookie":           {},
	"request-id":           {},
	"x-request-id":         {},
	"idempotency-key":      {},
	"original-request":     {},
	"stripe-request-id":    {},
	"stripe-should-retry":  {},
	"cf-ray":               {},
	"cf-cache-status":      {},
	"x-stripe-routing-key": {},
}

// TransformationInput is a raw gateway HTTP response plus caller context.
type TransformationInput struct {
	Context  []byte
	Response TransformationOutput
}

// TransformationOutput is the sanitized response shape.
type TransformationOutput struct {
	Status  int
	Body    []byte
	Headers http.Header
}

// Transform strips volatile headers from a gateway response so the remainder
// is stable across retries of the same call.
func Transform(input TransformationInput) TransformationOutput {
	out := TransformationOutput{
		Status:  input.Response.Status,
		Body:    input.Response.Body,
		Headers: http.Header{},
	}
	for name, values := range input.Response.Headers {
		if _, volatile := volatileHeaders[strings.ToLower(name)]; volatile {
			continue
		}
		for _, value := range values {
			out.Headers.Add(name, value)
		}
	}
	return out
}
