package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/caffeinepub/raffle-backend/pkg/logger"
)

var errSecretKeyRequired = errors.New("stripe secret key is required")

// Client wraps Stripe's API client for checkout session operations. Because
// the secret key is admin-configured at runtime, a fresh Client is built
// whenever the stored configuration changes.
type Client struct {
	api              *stripe.Client
	allowedCountries []string
}

// NewClient validates the secret key shape and builds a Stripe API client.
func NewClient(ctx context.Context, secretKey string, allowedCountries []string, logg *logger.Logger) (*Client, error) {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return nil, errSecretKeyRequired
	}
	if err := validateSecretKey(key); err != nil {
		return nil, err
	}

	api := stripe.NewClient(key, stripe.WithBackends(stripe.NewBackends(newHTTPClient())))

	if logg != nil {
		logg.Info(ctx, "stripe client initialized")
	}

	return &Client{
		api:              api,
		allowedCountries: append([]string(nil), allowedCountries...),
	}, nil
}

// CreateCheckoutSession forwards a payment intent to Stripe Checkout.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CreateSessionParams) (*SessionInfo, error) {
	if c == nil || c.api == nil {
		return nil, errSecretKeyRequired
	}
	if len(params.Items) == 0 {
		return nil, errors.New("at least one line item is required")
	}

	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(params.Items))
	for _, item := range params.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String(item.Currency),
				UnitAmount: stripe.Int64(item.UnitAmountCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.ProductName),
					Description: stripe.String(item.ProductDescription),
				},
			},
		})
	}

	create := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
	}
	if params.ClientReferenceID != "" {
		create.ClientReferenceID = stripe.String(params.ClientReferenceID)
	}
	if len(params.Metadata) > 0 {
		create.Metadata = params.Metadata
	}
	if len(c.allowedCountries) > 0 {
		create.ShippingAddressCollection = &stripe.CheckoutSessionCreateShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(c.allowedCountries),
		}
	}

	session, err := c.api.V1CheckoutSessions.Create(ctx, create)
	if err != nil {
		return nil, fmt.Errorf("creating checkout session: %w", err)
	}
	return newSessionInfo(session), nil
}

// GetCheckoutSession retrieves the current gateway-side state of a session.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*SessionInfo, error) {
	if c == nil || c.api == nil {
		return nil, errSecretKeyRequired
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("session id is required")
	}

	session, err := c.api.V1CheckoutSessions.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieving checkout session: %w", err)
	}
	return newSessionInfo(session), nil
}

func newSessionInfo(session *stripe.CheckoutSession) *SessionInfo {
	if session == nil {
		return nil
	}
	info := &SessionInfo{
		ID:                session.ID,
		URL:               session.URL,
		Paid:              session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Expired:           session.Status == stripe.CheckoutSessionStatusExpired,
		ClientReferenceID: session.ClientReferenceID,
	}
	if session.Metadata != nil {
		info.Metadata = session.Metadata
	}
	return info
}

func validateSecretKey(key string) error {
	for _, prefix := range []string{"sk_test", "sk_live", "rk_test", "rk_live"} {
		if strings.HasPrefix(key, prefix) {
			return nil
		}
	}
	return fmt.Errorf("stripe secret key must start with sk_ or rk_")
}
