package stripe

import (
	"bytes"
	"io"
	"net/http"
)

// sanitizingTransport routes every gateway response through Transform before
// the SDK consumes it. Volatile headers never reach callers.
type sanitizingTransport struct {
	base http.RoundTripper
}

func (t *sanitizingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err != nil || resp == nil {
		return resp, err
	}

	body, readErr := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); readErr == nil {
		readErr = closeErr
	}
	if readErr != nil {
		return nil, readErr
	}

	out := Transform(TransformationInput{Response: TransformationOutput{
		Status:  resp.StatusCode,
		Body:    body,
		Headers: resp.Header,
	}})

	resp.Header = out.Headers
	resp.Body = io.NopCloser(bytes.NewReader(out.Body))
	resp.ContentLength = int64(len(out.Body))
	return resp, nil
}

// newHTTPClient builds the HTTP client installed into the Stripe SDK backends.
func newHTTPClient() *http.Client {
	return &http.Client{Transport: &sanitizingTransport{base: http.DefaultTransport}}
}
