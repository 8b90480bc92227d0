package stripe

import "context"

// Gateway is the narrow capability surface the payment reconciler depends on,
// so the core can be tested with substitutes.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*SessionInfo, error)
	GetCheckoutSession(ctx context.Context, id string) (*SessionInfo, error)
}

// LineItem mirrors the shopping item shape forwarded to the gateway.
type LineItem struct {
	ProductName        string
	ProductDescription string
	Currency           string
	UnitAmountCents    int64
	Quantity           int64
}

// CreateSessionParams carries everything needed to open a checkout session.
type CreateSessionParams struct {
	Items             []LineItem
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

// SessionInfo is the reconciler's view of a gateway session.
type SessionInfo struct {
	ID                string
	URL               string
	Paid              bool
	Expired           bool
	ClientReferenceID string
	Metadata          map[string]string
}
