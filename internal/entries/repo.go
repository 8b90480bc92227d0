package entries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
)

// Repository persists raffle entries and answers ledger sums.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.Entry) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.Entry, error)
	ListPaidByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.Entry, error)
	SumPaidQuantity(ctx context.Context, raffleID uuid.UUID) (int, error)
	PaidStats(ctx context.Context, raffleID uuid.UUID) (participants int, spotsSold int, err error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an entry repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindBySessionID returns the entry minted for a checkout session, or nil when
// no confirmation has happened yet.
func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).
		Where("checkout_session_id = ?", sessionID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repository) ListPaidByRaffle(ctx context.Context, raffleID uuid.UUID) ([]models.Entry, error) {
	var rows []models.Entry
	err := r.db.WithContext(ctx).
		Where("raffle_id = ? AND is_paid = ?", raffleID, true).
		Order("purchased_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// SumPaidQuantity totals confirmed spot purchases for a raffle. The ledger has
// no cached counter; this SUM is the single source of truth.
func (r *repository) SumPaidQuantity(ctx context.Context, raffleID uuid.UUID) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("raffle_id = ? AND is_paid = ?", raffleID, true).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *repository) PaidStats(ctx context.Context, raffleID uuid.UUID) (int, int, error) {
	var row struct {
		Participants int64
		SpotsSold    int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Entry{}).
		Where("raffle_id = ? AND is_paid = ?", raffleID, true).
		Select("COUNT(DISTINCT buyer_id) AS participants, COALESCE(SUM(quantity), 0) AS spots_sold").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return int(row.Participants), int(row.SpotsSold), nil
}
