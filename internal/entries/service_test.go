package entries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

func TestRemainingSpotsCountsOnlyPaid(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	raffle := seedRaffle(t, db, 10)
	seedEntry(t, db, raffle.ID, 3, true)
	seedEntry(t, db, raffle.ID, 2, true)
	seedEntry(t, db, raffle.ID, 4, false) // unpaid rows carry no weight

	remaining, err := svc.RemainingSpots(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("remaining spots: %v", err)
	}
	if remaining != 5 {
		t.Fatalf("expected 5 remaining, got %d", remaining)
	}
}

func TestRemainingSpotsClampsAtZero(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	raffle := seedRaffle(t, db, 4)
	seedEntry(t, db, raffle.ID, 3, true)
	seedEntry(t, db, raffle.ID, 3, true) // over capacity seeded directly

	remaining, err := svc.RemainingSpots(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("remaining spots: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected clamped 0, got %d", remaining)
	}
}

func TestRemainingSpotsUnknownRaffle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	_, err := svc.RemainingSpots(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListEntriesOrderedByPurchase(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	raffle := seedRaffle(t, db, 20)
	base := time.Now().Add(-time.Hour)
	first := seedEntryAt(t, db, raffle.ID, 1, true, base)
	second := seedEntryAt(t, db, raffle.ID, 2, true, base.Add(time.Minute))
	seedEntryAt(t, db, raffle.ID, 3, false, base.Add(2*time.Minute))

	rows, err := svc.ListEntries(ctx, raffle.ID)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 paid entries, got %d", len(rows))
	}
	if rows[0].ID != first || rows[1].ID != second {
		t.Fatalf("unexpected ordering: %v then %v", rows[0].ID, rows[1].ID)
	}
}

func seedRaffle(t *testing.T, db *gorm.DB, totalSpots int) *models.Raffle {
	t.Helper()
	raffle := models.Raffle{
		Title:          "seeded",
		TotalSpots:     totalSpots,
		SpotPriceCents: 100,
		Status:         enums.RaffleStatusOpen,
		DrawTimestamp:  time.Now().Add(24 * time.Hour),
	}
	if err := db.Create(&raffle).Error; err != nil {
		t.Fatalf("seed raffle: %v", err)
	}
	return &raffle
}

func seedEntry(t *testing.T, db *gorm.DB, raffleID uuid.UUID, qty int, paid bool) uuid.UUID {
	t.Helper()
	return seedEntryAt(t, db, raffleID, qty, paid, time.Now())
}

func seedEntryAt(t *testing.T, db *gorm.DB, raffleID uuid.UUID, qty int, paid bool, at time.Time) uuid.UUID {
	t.Helper()
	sessionID := "cs_test_" + uuid.NewString()
	entry := models.Entry{
		RaffleID:          raffleID,
		BuyerID:           uuid.New(),
		Quantity:          qty,
		IsPaid:            paid,
		CheckoutSessionID: &sessionID,
		PurchasedAt:       at,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return entry.ID
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), raffleFinder{db}, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

type raffleFinder struct {
	db *gorm.DB
}

func (f raffleFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := f.db.WithContext(ctx).First(&raffle, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
	}
	if err != nil {
		return nil, err
	}
	return &raffle, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:entries_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Raffle{}, &models.Entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
