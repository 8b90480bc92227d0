package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/pkg/enums"
)

// Raffle is the durable raffle definition plus lifecycle status.
type Raffle struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Title            string             `gorm:"column:title;not null"`
	Description      string             `gorm:"column:description;not null"`
	TotalSpots       int                `gorm:"column:total_spots;not null"`
	SpotPriceCents   int                `gorm:"column:spot_price_cents;not null"`
	PrizeAmountCents int                `gorm:"column:prize_amount_cents;not null"`
	DrawTimestamp    time.Time          `gorm:"column:draw_timestamp;not null"`
	VideoURL         *string            `gorm:"column:video_url"`
	Status           enums.RaffleStatus `gorm:"column:status;type:text;not null;default:upcoming"`
	WinnerID         *uuid.UUID         `gorm:"column:winner_id;type:uuid"`
	DrawRecordID     *uuid.UUID         `gorm:"column:draw_record_id;type:uuid"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the identifier client-side so sqlite and postgres behave the same.
func (r *Raffle) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
