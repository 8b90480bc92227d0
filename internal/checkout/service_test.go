package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/pkg/config"
	"github.com/caffeinepub/raffle-backend/pkg/db"
	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/stripe"
)

func TestCreateSessionPersistsPending(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto, err := env.svc.CreateSession(ctx, buyer, CreateSessionInput{RaffleID: raffle.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if dto.Status != enums.CheckoutSessionStatusPending {
		t.Fatalf("expected pending session, got %s", dto.Status)
	}
	if dto.AmountCents != 3*raffle.SpotPriceCents {
		t.Fatalf("expected amount %d, got %d", 3*raffle.SpotPriceCents, dto.AmountCents)
	}
	if dto.CheckoutURL == "" {
		t.Fatal("expected a checkout url")
	}

	stored, err := env.repo.FindByID(ctx, dto.ID)
	if err != nil {
		t.Fatalf("load stored session: %v", err)
	}
	if stored.BuyerID != buyer || stored.Quantity != 3 {
		t.Fatalf("unexpected stored session: %+v", stored)
	}

	mine, err := env.svc.ListSessions(ctx, buyer)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != dto.ID {
		t.Fatalf("unexpected session history: %+v", mine)
	}
	theirs, err := env.svc.ListSessions(ctx, uuid.New())
	if err != nil {
		t.Fatalf("list sessions for other buyer: %v", err)
	}
	if len(theirs) != 0 {
		t.Fatalf("sessions leaked across buyers: %+v", theirs)
	}
}

func TestCreateSessionRequiresOpenRaffle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	raffle := env.seedRaffle(t, 10, enums.RaffleStatusUpcoming)

	_, err := env.svc.CreateSession(context.Background(), uuid.New(), CreateSessionInput{RaffleID: raffle.ID, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCreateSessionRejectsOverCapacity(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	raffle := env.seedRaffle(t, 5, enums.RaffleStatusOpen)
	env.seedPaidEntry(t, raffle.ID, uuid.New(), 4)

	_, err := env.svc.CreateSession(context.Background(), uuid.New(), CreateSessionInput{RaffleID: raffle.ID, Quantity: 2})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInventory {
		t.Fatalf("expected inventory error, got %v", err)
	}
}

func TestSessionStatusReconcilesPaid(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 2)

	env.gateway.markPaid(dto.ID)
	status, err := env.svc.SessionStatus(ctx, buyer, dto.ID)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	if status.Status != enums.CheckoutSessionStatusCompleted {
		t.Fatalf("expected completed, got %s", status.Status)
	}

	// Resolved sessions are served from storage; the gateway is not asked again.
	calls := env.gateway.retrieveCalls
	if _, err := env.svc.SessionStatus(ctx, buyer, dto.ID); err != nil {
		t.Fatalf("second status: %v", err)
	}
	if env.gateway.retrieveCalls != calls {
		t.Fatal("expected resolved session to skip the gateway")
	}
}

func TestSessionStatusReconcilesExpired(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 2)

	env.gateway.markExpired(dto.ID)
	status, err := env.svc.SessionStatus(context.Background(), buyer, dto.ID)
	if err != nil {
		t.Fatalf("session status: %v", err)
	}
	if status.Status != enums.CheckoutSessionStatusFailed {
		t.Fatalf("expected failed, got %s", status.Status)
	}
	if status.FailureReason == nil || *status.FailureReason == "" {
		t.Fatal("expected failure reason")
	}
}

func TestSessionStatusForbiddenForOtherBuyer(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 1)

	_, err := env.svc.SessionStatus(context.Background(), uuid.New(), dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPurchaseEntriesConfirmsOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 4)
	env.gateway.markPaid(dto.ID)

	input := PurchaseInput{RaffleID: raffle.ID, Quantity: 4, ConfirmedQuantity: 4, SessionID: dto.ID}

	first, err := env.svc.PurchaseEntries(ctx, buyer, input)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if first.AlreadyConfirmed {
		t.Fatal("first confirmation should not be marked already confirmed")
	}
	if first.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", first.Quantity)
	}

	second, err := env.svc.PurchaseEntries(ctx, buyer, input)
	if err != nil {
		t.Fatalf("re-confirmation: %v", err)
	}
	if !second.AlreadyConfirmed {
		t.Fatal("expected idempotent no-op on re-confirmation")
	}
	if second.EntryID != first.EntryID {
		t.Fatalf("expected same entry, got %v then %v", first.EntryID, second.EntryID)
	}

	sold, err := env.entryRepo.SumPaidQuantity(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("sum paid: %v", err)
	}
	if sold != 4 {
		t.Fatalf("expected 4 sold spots after double confirm, got %d", sold)
	}
}

func TestPurchaseEntriesQuantityMismatch(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 2)
	env.gateway.markPaid(dto.ID)

	_, err := env.svc.PurchaseEntries(context.Background(), buyer, PurchaseInput{
		RaffleID: raffle.ID, Quantity: 2, ConfirmedQuantity: 3, SessionID: dto.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePaymentIntegrity {
		t.Fatalf("expected payment integrity error, got %v", err)
	}
}

func TestPurchaseEntriesRejectsUnpaidSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 2)
	// gateway never reports payment

	_, err := env.svc.PurchaseEntries(context.Background(), buyer, PurchaseInput{
		RaffleID: raffle.ID, Quantity: 2, ConfirmedQuantity: 2, SessionID: dto.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePaymentIntegrity {
		t.Fatalf("expected payment integrity error, got %v", err)
	}

	sold, err := env.entryRepo.SumPaidQuantity(context.Background(), raffle.ID)
	if err != nil {
		t.Fatalf("sum paid: %v", err)
	}
	if sold != 0 {
		t.Fatalf("unpaid session must not hold inventory, got %d sold", sold)
	}
}

func TestPurchaseEntriesNeverOversells(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	buyerA, buyerB := uuid.New(), uuid.New()

	// Two paid sessions of 6 against 10 spots; only one can settle.
	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	sessionA := env.mustCreateSession(t, buyerA, raffle.ID, 6)
	sessionB := env.mustCreateSession(t, buyerB, raffle.ID, 6)
	env.gateway.markPaid(sessionA.ID)
	env.gateway.markPaid(sessionB.ID)

	if _, err := env.svc.PurchaseEntries(ctx, buyerA, PurchaseInput{
		RaffleID: raffle.ID, Quantity: 6, ConfirmedQuantity: 6, SessionID: sessionA.ID,
	}); err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	_, err := env.svc.PurchaseEntries(ctx, buyerB, PurchaseInput{
		RaffleID: raffle.ID, Quantity: 6, ConfirmedQuantity: 6, SessionID: sessionB.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInventory {
		t.Fatalf("expected inventory error on second purchase, got %v", err)
	}

	sold, err := env.entryRepo.SumPaidQuantity(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("sum paid: %v", err)
	}
	if sold != 6 {
		t.Fatalf("expected 6 sold spots, got %d", sold)
	}
}

func TestPurchaseEntriesConcurrentConfirmations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	// Four paid 6-spot sessions race against 10 spots; exactly one settles.
	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	const workers = 4
	buyers := make([]uuid.UUID, workers)
	sessions := make([]*SessionDTO, workers)
	for i := range buyers {
		buyers[i] = uuid.New()
		sessions[i] = env.mustCreateSession(t, buyers[i], raffle.ID, 6)
		env.gateway.markPaid(sessions[i].ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.PurchaseEntries(ctx, buyers[i], PurchaseInput{
				RaffleID: raffle.ID, Quantity: 6, ConfirmedQuantity: 6, SessionID: sessions[i].ID,
			})
		}(i)
	}
	wg.Wait()

	confirmed := 0
	for _, err := range errs {
		if err == nil {
			confirmed++
			continue
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInventory {
			t.Fatalf("expected inventory error from losing confirmation, got %v", err)
		}
	}
	if confirmed != 1 {
		t.Fatalf("expected exactly one settled session, got %d", confirmed)
	}

	sold, err := env.entryRepo.SumPaidQuantity(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("sum paid: %v", err)
	}
	if sold > raffle.TotalSpots {
		t.Fatalf("oversold: %d of %d spots", sold, raffle.TotalSpots)
	}
	if sold != 6 {
		t.Fatalf("expected 6 sold spots, got %d", sold)
	}
}

func TestPurchaseEntriesRejectsDrawnRaffle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	buyer := uuid.New()

	raffle := env.seedRaffle(t, 10, enums.RaffleStatusOpen)
	dto := env.mustCreateSession(t, buyer, raffle.ID, 2)
	env.gateway.markPaid(dto.ID)

	if err := env.dbClient.DB().Model(&models.Raffle{}).Where("id = ?", raffle.ID).
		Update("status", enums.RaffleStatusDrawn).Error; err != nil {
		t.Fatalf("force drawn: %v", err)
	}

	_, err := env.svc.PurchaseEntries(ctx, buyer, PurchaseInput{
		RaffleID: raffle.ID, Quantity: 2, ConfirmedQuantity: 2, SessionID: dto.ID,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

// fakeGateway stands in for the external payment provider.
type fakeGateway struct {
	mu            sync.Mutex
	sessions      map[string]*stripe.SessionInfo
	nextSeq       int
	retrieveCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*stripe.SessionInfo{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, params stripe.CreateSessionParams) (*stripe.SessionInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSeq++
	id := fmt.Sprintf("cs_test_%03d", g.nextSeq)
	info := &stripe.SessionInfo{
		ID:                id,
		URL:               "https://checkout.example.com/" + id,
		ClientReferenceID: params.ClientReferenceID,
		Metadata:          params.Metadata,
	}
	g.sessions[id] = info
	return info, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*stripe.SessionInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieveCalls++
	info, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session: %s", id)
	}
	return info, nil
}

func (g *fakeGateway) markPaid(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Paid = true
}

func (g *fakeGateway) markExpired(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Expired = true
}

type staticProvider struct {
	gw stripe.Gateway
}

func (p staticProvider) Gateway(context.Context) (stripe.Gateway, error) {
	return p.gw, nil
}

type testEnv struct {
	dbClient   *db.Client
	repo       Repository
	entryRepo  entries.Repository
	raffleRepo raffles.Repository
	gateway    *fakeGateway
	svc        Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	dbClient, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn}, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbClient.Close() })

	if err := dbClient.DB().AutoMigrate(&models.Raffle{}, &models.Entry{}, &models.CheckoutSession{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := NewRepository(dbClient.DB())
	raffleRepo := raffles.NewRepository(dbClient.DB())
	entryRepo := entries.NewRepository(dbClient.DB())
	gateway := newFakeGateway()

	svc, err := NewService(repo, raffleRepo, entryRepo, dbClient, staticProvider{gateway}, config.CheckoutConfig{
		SuccessURL: "https://raffles.example.com/success",
		CancelURL:  "https://raffles.example.com/cancel",
		Currency:   "usd",
	}, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	return &testEnv{
		dbClient:   dbClient,
		repo:       repo,
		entryRepo:  entryRepo,
		raffleRepo: raffleRepo,
		gateway:    gateway,
		svc:        svc,
	}
}

func (e *testEnv) seedRaffle(t *testing.T, totalSpots int, status enums.RaffleStatus) *models.Raffle {
	t.Helper()
	raffle := models.Raffle{
		Title:          "seeded",
		TotalSpots:     totalSpots,
		SpotPriceCents: 250,
		Status:         status,
		DrawTimestamp:  time.Now().Add(24 * time.Hour),
	}
	if err := e.dbClient.DB().Create(&raffle).Error; err != nil {
		t.Fatalf("seed raffle: %v", err)
	}
	return &raffle
}

func (e *testEnv) seedPaidEntry(t *testing.T, raffleID, buyerID uuid.UUID, qty int) {
	t.Helper()
	sessionID := "cs_seed_" + uuid.NewString()
	entry := models.Entry{
		RaffleID:          raffleID,
		BuyerID:           buyerID,
		Quantity:          qty,
		IsPaid:            true,
		CheckoutSessionID: &sessionID,
	}
	if err := e.dbClient.DB().Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func (e *testEnv) mustCreateSession(t *testing.T, buyerID, raffleID uuid.UUID, qty int) *SessionDTO {
	t.Helper()
	dto, err := e.svc.CreateSession(context.Background(), buyerID, CreateSessionInput{RaffleID: raffleID, Quantity: qty})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return dto
}
