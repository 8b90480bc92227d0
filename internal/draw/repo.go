package draw

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
)

// Repository persists immutable draw records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.DrawRecord) error
	FindByRaffle(ctx context.Context, raffleID uuid.UUID) (*models.DrawRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a draw record repository.
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

func (r *repository) Create(ctx context.Context, record *models.DrawRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindByRaffle returns the raffle's draw record, or nil when no draw exists.
func (r *repository) FindByRaffle(ctx context.Context, raffleID uuid.UUID) (*models.DrawRecord, error) {
	var record models.DrawRecord
	err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
