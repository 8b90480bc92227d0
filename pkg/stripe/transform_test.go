package stripe

import (
	"net/http"
	"testing"
)

func TestTransformStripsVolatileHeaders(t *testing.T) {
	t.Parallel()

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Date", "Mon, 02 Jan 2006 15:04:05 GMT")
	headers.Set("Request-Id", "req_123")
	headers.Set("Stripe-Request-Id", "req_456")
	headers.Set("Idempotency-Key", "key_789")
	headers.Set("Cache-Control", "no-store")

	out := Transform(TransformationInput{
		Response: TransformationOutput{
			Status:  200,
			Body:    []byte(`{"id":"cs_test"}`),
			Headers: headers,
		},
	})

	if out.Status != 200 {
		t.Fatalf("expected status preserved, got %d", out.Status)
	}
	if string(out.Body) != `{"id":"cs_test"}` {
		t.Fatalf("expected body preserved, got %s", out.Body)
	}
	if out.Headers.Get("Content-Type") != "application/json" {
		t.Fatal("stable headers must be kept")
	}
	if out.Headers.Get("Cache-Control") != "no-store" {
		t.Fatal("stable headers must be kept")
	}
	for _, name := range []string{"Date", "Request-Id", "Stripe-Request-Id", "Idempotency-Key"} {
		if out.Headers.Get(name) != "" {
			t.Fatalf("volatile header %s must be stripped", name)
		}
	}
}

func TestValidateSecretKey(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"sk_test_abc", "sk_live_abc", "rk_test_abc", "rk_live_abc"} {
		if err := validateSecretKey(key); err != nil {
			t.Errorf("key %q should be accepted: %v", key, err)
		}
	}
	for _, key := range []string{"pk_test_abc", "whsec_abc", "token", ""} {
		if err := validateSecretKey(key); err == nil {
			t.Errorf("key %q should be rejected", key)
		}
	}
}
