package raffles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

func TestCreateRaffleValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateRaffleInput
	}{
		{"empty title", CreateRaffleInput{Title: " ", TotalSpots: 10, SpotPriceCents: 100}},
		{"zero spots", CreateRaffleInput{Title: "r", TotalSpots: 0, SpotPriceCents: 100}},
		{"zero price", CreateRaffleInput{Title: "r", TotalSpots: 10, SpotPriceCents: 0}},
		{"negative prize", CreateRaffleInput{Title: "r", TotalSpots: 10, SpotPriceCents: 100, PrizeAmountCents: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestCreateRaffleStartsUpcoming(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRaffleInput{
		Title:            "PS5 Giveaway",
		Description:      "win a console",
		TotalSpots:       100,
		SpotPriceCents:   500,
		PrizeAmountCents: 50000,
		DrawTimestamp:    time.Now().Add(72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create raffle: %v", err)
	}
	if created.Status != enums.RaffleStatusUpcoming {
		t.Fatalf("expected upcoming status, got %s", created.Status)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected assigned id")
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	raffle := mustCreate(t, svc)

	// upcoming → closed is illegal
	if _, err := svc.ChangeStatus(ctx, raffle.ID, enums.RaffleStatusClosed); err == nil {
		t.Fatal("expected state conflict for upcoming→closed")
	}

	// upcoming → open → closed → open is legal
	for _, target := range []enums.RaffleStatus{
		enums.RaffleStatusOpen,
		enums.RaffleStatusClosed,
		enums.RaffleStatusOpen,
	} {
		updated, err := svc.ChangeStatus(ctx, raffle.ID, target)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("expected %s, got %s", target, updated.Status)
		}
	}
}

func TestChangeStatusDrawnIsReserved(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	raffle := mustCreate(t, svc)
	if _, err := svc.ChangeStatus(ctx, raffle.ID, enums.RaffleStatusDrawn); err == nil {
		t.Fatal("expected drawn transition to be rejected")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateDrawnRaffleIsImmutable(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	raffle := mustCreate(t, svc)
	if err := db.Model(&models.Raffle{}).Where("id = ?", raffle.ID).
		Update("status", enums.RaffleStatusDrawn).Error; err != nil {
		t.Fatalf("force drawn: %v", err)
	}

	title := "new title"
	if _, err := svc.Update(ctx, raffle.ID, UpdateRaffleInput{Title: &title}); err == nil {
		t.Fatal("expected drawn raffle update to fail")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetCompletedAggregatesEntries(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	raffle := mustCreate(t, svc)
	winner := uuid.New()
	if err := db.Model(&models.Raffle{}).Where("id = ?", raffle.ID).
		Updates(map[string]any{"status": enums.RaffleStatusDrawn, "winner_id": winner}).Error; err != nil {
		t.Fatalf("force drawn: %v", err)
	}

	buyerA, buyerB := uuid.New(), uuid.New()
	seedEntry(t, db, raffle.ID, buyerA, 3, true)
	seedEntry(t, db, raffle.ID, buyerA, 2, true)
	seedEntry(t, db, raffle.ID, buyerB, 1, true)
	seedEntry(t, db, raffle.ID, uuid.New(), 4, false) // unpaid, no weight

	completed, err := svc.GetCompleted(ctx)
	if err != nil {
		t.Fatalf("get completed: %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("expected 1 completed raffle, got %d", len(completed))
	}
	row := completed[0]
	if row.SpotsSold != 6 {
		t.Fatalf("expected 6 spots sold, got %d", row.SpotsSold)
	}
	if row.Participants != 2 {
		t.Fatalf("expected 2 participants, got %d", row.Participants)
	}
	if row.Winner == nil || *row.Winner != winner {
		t.Fatalf("unexpected winner: %v", row.Winner)
	}
}

func TestGetLiveClampsCountdown(t *testing.T) {
	t.Parallel()

	svcIface, db := newTestService(t)
	svc := svcIface.(*service)
	ctx := context.Background()

	raffle := mustCreate(t, svcIface)
	seedEntry(t, db, raffle.ID, uuid.New(), 2, true)

	svc.now = func() time.Time { return raffle.DrawTimestamp.Add(time.Hour) }
	live, err := svc.GetLive(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if live.TimeToDrawSeconds != 0 {
		t.Fatalf("expected countdown clamped to 0, got %d", live.TimeToDrawSeconds)
	}
	if len(live.Entries) != 1 || live.Entries[0].Quantity != 2 {
		t.Fatalf("unexpected entry snapshot: %+v", live.Entries)
	}
}

func mustCreate(t *testing.T, svc Service) *RaffleDTO {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateRaffleInput{
		Title:            "test raffle",
		Description:      "desc",
		TotalSpots:       10,
		SpotPriceCents:   100,
		PrizeAmountCents: 1000,
		DrawTimestamp:    time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create raffle: %v", err)
	}
	return created
}

func seedEntry(t *testing.T, db *gorm.DB, raffleID, buyerID uuid.UUID, qty int, paid bool) {
	t.Helper()
	sessionID := "cs_test_" + uuid.NewString()
	entry := models.Entry{
		RaffleID:          raffleID,
		BuyerID:           buyerID,
		Quantity:          qty,
		IsPaid:            paid,
		CheckoutSessionID: &sessionID,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), entries.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:raffles_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Raffle{}, &models.Entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
