package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/pkg/config"
	"github.com/caffeinepub/raffle-backend/pkg/db"
	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
	"github.com/caffeinepub/raffle-backend/pkg/metrics"
	"github.com/caffeinepub/raffle-backend/pkg/stripe"
)

// Service reconciles external payments into confirmed raffle entries.
type Service interface {
	CreateSession(ctx context.Context, buyerID uuid.UUID, input CreateSessionInput) (*SessionDTO, error)
	SessionStatus(ctx context.Context, buyerID uuid.UUID, sessionID string) (*SessionDTO, error)
	ListSessions(ctx context.Context, buyerID uuid.UUID) ([]SessionDTO, error)
	PurchaseEntries(ctx context.Context, buyerID uuid.UUID, input PurchaseInput) (*PurchaseResult, error)
}

// ShoppingItem is one line of the checkout forwarded to the gateway.
type ShoppingItem struct {
	ProductName        string
	ProductDescription string
	Currency           string
	PriceCents         int
	Quantity           int
}

// CreateSessionInput carries a buyer's intent to purchase raffle spots.
type CreateSessionInput struct {
	RaffleID uuid.UUID
	Quantity int
	Items    []ShoppingItem
}

// PurchaseInput carries the confirmation claim for a paid session.
type PurchaseInput struct {
	RaffleID          uuid.UUID
	Quantity          int
	ConfirmedQuantity int
	SessionID         string
}

// SessionDTO is the API-facing checkout session shape.
type SessionDTO struct {
	ID            string                      `json:"id"`
	RaffleID      uuid.UUID                   `json:"raffle_id"`
	Quantity      int                         `json:"quantity"`
	AmountCents   int                         `json:"amount_cents"`
	Status        enums.CheckoutSessionStatus `json:"status"`
	CheckoutURL   string                      `json:"checkout_url"`
	FailureReason *string                     `json:"failure_reason,omitempty"`
}

// PurchaseResult reports a confirmed (or previously confirmed) purchase.
type PurchaseResult struct {
	EntryID          uuid.UUID `json:"entry_id"`
	RaffleID         uuid.UUID `json:"raffle_id"`
	Quantity         int       `json:"quantity"`
	AlreadyConfirmed bool      `json:"already_confirmed"`
}

type service struct {
	repo     Repository
	raffles  raffles.Repository
	entries  entries.Repository
	dbClient *db.Client
	gateway  GatewayProvider
	cfg      config.CheckoutConfig
	metrics  *metrics.RaffleMetrics
	logg     *logger.Logger
}

// NewService constructs the payment reconciler.
func NewService(
	repo Repository,
	raffleRepo raffles.Repository,
	entryRepo entries.Repository,
	dbClient *db.Client,
	gateway GatewayProvider,
	cfg config.CheckoutConfig,
	m *metrics.RaffleMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if raffleRepo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if entryRepo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway provider required")
	}
	return &service{
		repo:     repo,
		raffles:  raffleRepo,
		entries:  entryRepo,
		dbClient: dbClient,
		gateway:  gateway,
		cfg:      cfg,
		metrics:  m,
		logg:     logg,
	}, nil
}

// CreateSession opens a gateway checkout session for raffle spots. The raffle
// must be open and the requested quantity must fit the remaining inventory at
// call time; the hard capacity check is repeated at confirmation.
func (s *service) CreateSession(ctx context.Context, buyerID uuid.UUID, input CreateSessionInput) (*SessionDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	raffle, err := s.raffles.FindByID(ctx, input.RaffleID)
	if err != nil {
		return nil, err
	}
	if raffle.Status != enums.RaffleStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "raffle is not open for entries")
	}

	sold, err := s.entries.SumPaidQuantity(ctx, raffle.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum paid entries")
	}
	if sold+input.Quantity > raffle.TotalSpots {
		s.metrics.IncPurchaseRejected("inventory")
		return nil, pkgerrors.New(pkgerrors.CodeInventory, "not enough spots").
			WithDetails(map[string]any{"remaining": raffle.TotalSpots - sold, "requested": input.Quantity})
	}

	items, amountCents, err := s.buildLineItems(raffle, input)
	if err != nil {
		return nil, err
	}

	gw, err := s.gateway.Gateway(ctx)
	if err != nil {
		return nil, err
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout())
	defer cancel()

	info, err := gw.CreateCheckoutSession(gatewayCtx, stripe.CreateSessionParams{
		Items:             items,
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		ClientReferenceID: raffle.ID.String(),
		Metadata: map[string]string{
			"raffle_id": raffle.ID.String(),
			"buyer_id":  buyerID.String(),
			"quantity":  fmt.Sprintf("%d", input.Quantity),
		},
	})
	if err != nil {
		s.metrics.IncGatewayFailure()
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway: create checkout session")
	}

	session := &models.CheckoutSession{
		ID:          info.ID,
		RaffleID:    raffle.ID,
		BuyerID:     buyerID,
		Quantity:    input.Quantity,
		AmountCents: amountCents,
		Status:      enums.CheckoutSessionStatusPending,
		CheckoutURL: info.URL,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert checkout session")
	}

	s.metrics.IncSessionCreated()
	return newSessionDTO(session), nil
}

// SessionStatus reconciles the stored session against the gateway and returns
// its disposition. Resolved sessions are served from storage without a
// gateway round-trip.
func (s *service) SessionStatus(ctx context.Context, buyerID uuid.UUID, sessionID string) (*SessionDTO, error) {
	session, err := s.loadOwnedSession(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Resolved() {
		return newSessionDTO(session), nil
	}

	session, err = s.reconcile(ctx, session)
	if err != nil {
		return nil, err
	}
	return newSessionDTO(session), nil
}

// ListSessions returns the caller's checkout sessions, newest first. Stored
// dispositions are served as-is; pending sessions are not reconciled here.
func (s *service) ListSessions(ctx context.Context, buyerID uuid.UUID) ([]SessionDTO, error) {
	rows, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list checkout sessions")
	}
	out := make([]SessionDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newSessionDTO(&rows[i]))
	}
	return out, nil
}

// PurchaseEntries converts a completed checkout session into a paid entry,
// exactly once per session. Capacity is re-validated under the raffle row
// lock so concurrent confirmations cannot oversell.
func (s *service) PurchaseEntries(ctx context.Context, buyerID uuid.UUID, input PurchaseInput) (*PurchaseResult, error) {
	if strings.TrimSpace(input.SessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	session, err := s.loadOwnedSession(ctx, buyerID, input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.RaffleID != input.RaffleID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session belongs to a different raffle")
	}

	// Re-confirmation of an already-settled session is a no-op.
	if existing, err := s.entries.FindBySessionID(ctx, session.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load entry by session")
	} else if existing != nil {
		return &PurchaseResult{
			EntryID:          existing.ID,
			RaffleID:         existing.RaffleID,
			Quantity:         existing.Quantity,
			AlreadyConfirmed: true,
		}, nil
	}

	if input.Quantity != input.ConfirmedQuantity || input.Quantity != session.Quantity {
		s.metrics.IncPurchaseRejected("integrity")
		return nil, pkgerrors.New(pkgerrors.CodePaymentIntegrity, "confirmed quantity does not match the session").
			WithDetails(map[string]any{
				"requested": input.Quantity,
				"confirmed": input.ConfirmedQuantity,
				"session":   session.Quantity,
			})
	}

	if session.Status == enums.CheckoutSessionStatusPending {
		session, err = s.reconcile(ctx, session)
		if err != nil {
			return nil, err
		}
	}
	if session.Status != enums.CheckoutSessionStatusCompleted {
		s.metrics.IncPurchaseRejected("unpaid")
		return nil, pkgerrors.New(pkgerrors.CodePaymentIntegrity, "payment has not completed")
	}

	var entry *models.Entry
	txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		raffleTx := s.raffles.WithTx(tx)
		entryTx := s.entries.WithTx(tx)

		raffle, err := raffleTx.FindByIDForUpdate(ctx, session.RaffleID)
		if err != nil {
			return err
		}
		if !raffle.Status.Drawable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "raffle is no longer accepting entries")
		}

		sold, err := entryTx.SumPaidQuantity(ctx, raffle.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: sum paid entries")
		}
		if sold+session.Quantity > raffle.TotalSpots {
			s.metrics.IncPurchaseRejected("inventory")
			return pkgerrors.New(pkgerrors.CodeInventory, "not enough spots").
				WithDetails(map[string]any{"remaining": raffle.TotalSpots - sold, "requested": session.Quantity})
		}

		sessionID := session.ID
		entry = &models.Entry{
			RaffleID:          raffle.ID,
			BuyerID:           buyerID,
			Quantity:          session.Quantity,
			IsPaid:            true,
			CheckoutSessionID: &sessionID,
			PurchasedAt:       time.Now().UTC(),
		}
		return entryTx.Create(ctx, entry)
	})
	if txErr != nil {
		// A concurrent confirmation of the same session hits the unique
		// session index; surface it as the idempotent success it is.
		if db.IsUniqueViolation(txErr) {
			existing, err := s.entries.FindBySessionID(ctx, session.ID)
			if err != nil || existing == nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "db: confirm entry")
			}
			return &PurchaseResult{
				EntryID:          existing.ID,
				RaffleID:         existing.RaffleID,
				Quantity:         existing.Quantity,
				AlreadyConfirmed: true,
			}, nil
		}
		if pkgerrors.As(txErr) != nil {
			return nil, txErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "db: confirm entry")
	}

	s.metrics.IncPurchaseConfirmed()
	return &PurchaseResult{
		EntryID:  entry.ID,
		RaffleID: entry.RaffleID,
		Quantity: entry.Quantity,
	}, nil
}

func (s *service) loadOwnedSession(ctx context.Context, buyerID uuid.UUID, sessionID string) (*models.CheckoutSession, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load checkout session")
	}
	if session.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "session does not belong to the caller")
	}
	return session, nil
}

// reconcile asks the gateway for the session's current state and persists the
// resolved disposition. Pending stays pending until the gateway reports
// payment or expiry.
func (s *service) reconcile(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	gw, err := s.gateway.Gateway(ctx)
	if err != nil {
		return nil, err
	}

	gatewayCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout())
	defer cancel()

	info, err := gw.GetCheckoutSession(gatewayCtx, session.ID)
	if err != nil {
		s.metrics.IncGatewayFailure()
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "gateway: retrieve checkout session")
	}

	switch {
	case info.Paid:
		if err := s.repo.SetStatus(ctx, session.ID, enums.CheckoutSessionStatusCompleted, nil); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve checkout session")
		}
		session.Status = enums.CheckoutSessionStatusCompleted
	case info.Expired:
		reason := "checkout session expired"
		if err := s.repo.SetStatus(ctx, session.ID, enums.CheckoutSessionStatusFailed, &reason); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: resolve checkout session")
		}
		session.Status = enums.CheckoutSessionStatusFailed
		session.FailureReason = &reason
	}
	return session, nil
}

// buildLineItems normalizes the shopping items forwarded to the gateway. A
// request without explicit items gets a single line priced off the raffle.
func (s *service) buildLineItems(raffle *models.Raffle, input CreateSessionInput) ([]stripe.LineItem, int, error) {
	currency := s.cfg.Currency
	if currency == "" {
		currency = "usd"
	}

	if len(input.Items) == 0 {
		amount := raffle.SpotPriceCents * input.Quantity
		return []stripe.LineItem{{
			ProductName:        raffle.Title,
			ProductDescription: fmt.Sprintf("%d raffle spot(s)", input.Quantity),
			Currency:           currency,
			UnitAmountCents:    int64(raffle.SpotPriceCents),
			Quantity:           int64(input.Quantity),
		}}, amount, nil
	}

	items := make([]stripe.LineItem, 0, len(input.Items))
	total := 0
	for _, item := range input.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "item product name is required")
		}
		if item.Quantity <= 0 {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.PriceCents <= 0 {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "item price must be positive")
		}
		itemCurrency := item.Currency
		if itemCurrency == "" {
			itemCurrency = currency
		}
		items = append(items, stripe.LineItem{
			ProductName:        item.ProductName,
			ProductDescription: item.ProductDescription,
			Currency:           itemCurrency,
			UnitAmountCents:    int64(item.PriceCents),
			Quantity:           int64(item.Quantity),
		})
		total += item.PriceCents * item.Quantity
	}
	return items, total, nil
}

func (s *service) gatewayTimeout() time.Duration {
	if s.cfg.GatewayTimeout > 0 {
		return s.cfg.GatewayTimeout
	}
	return 15 * time.Second
}

func newSessionDTO(session *models.CheckoutSession) *SessionDTO {
	if session == nil {
		return nil
	}
	return &SessionDTO{
		ID:            session.ID,
		RaffleID:      session.RaffleID,
		Quantity:      session.Quantity,
		AmountCents:   session.AmountCents,
		Status:        session.Status,
		CheckoutURL:   session.CheckoutURL,
		FailureReason: session.FailureReason,
	}
}
