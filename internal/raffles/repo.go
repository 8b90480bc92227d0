package raffles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	"github.com/caffeinepub/raffle-backend/pkg/enums"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

// Repository persists raffle definitions and status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, raffle *models.Raffle) error
	Save(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Raffle, error)
	ListAll(ctx context.Context) ([]models.Raffle, error)
	ListByStatus(ctx context.Context, status enums.RaffleStatus) ([]models.Raffle, error)
	FinalizeDraw(ctx context.Context, id uuid.UUID, winnerID, drawRecordID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a raffle repository backed by the provided DB.
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

func (r *repository) Create(ctx context.Context, raffle *models.Raffle) error {
	return r.db.WithContext(ctx).Create(raffle).Error
}

func (r *repository) Save(ctx context.Context, raffle *models.Raffle) error {
	return r.db.WithContext(ctx).Save(raffle).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&raffle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
		}
		return nil, err
	}
	return &raffle, nil
}

// FindByIDForUpdate locks the raffle row for the duration of the enclosing
// transaction. This is the per-raffle critical section for confirmation and
// draw writes.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Raffle, error) {
	var raffle models.Raffle
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&raffle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "raffle not found")
		}
		return nil, err
	}
	return &raffle, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Raffle, error) {
	var raffles []models.Raffle
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&raffles).Error
	return raffles, err
}

func (r *repository) ListByStatus(ctx context.Context, status enums.RaffleStatus) ([]models.Raffle, error) {
	var raffles []models.Raffle
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("draw_timestamp ASC").
		Find(&raffles).Error
	return raffles, err
}

// FinalizeDraw conditionally flips the raffle into its terminal state. The
// WHERE clause on the current status is the mutual-exclusion gate: only one
// concurrent caller observes a row still in a drawable status.
func (r *repository) FinalizeDraw(ctx context.Context, id uuid.UUID, winnerID, drawRecordID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ? AND status IN ?", id, []enums.RaffleStatus{enums.RaffleStatusOpen, enums.RaffleStatusClosed}).
		Updates(map[string]any{
			"status":         enums.RaffleStatusDrawn,
			"winner_id":      winnerID,
			"draw_record_id": drawRecordID,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
