package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DrawRecord is the immutable audit record of a raffle draw. The unique
// raffle index guarantees at most one draw per raffle at the storage layer.
type DrawRecord struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RaffleID        uuid.UUID       `gorm:"column:raffle_id;type:uuid;not null;uniqueIndex"`
	WinnerID        uuid.UUID       `gorm:"column:winner_id;type:uuid;not null"`
	Seed            int64           `gorm:"column:seed;not null"`
	TotalTickets    int             `gorm:"column:total_tickets;not null"`
	EligibleEntries json.RawMessage `gorm:"column:eligible_entries;type:jsonb;not null"`
	DrawnAt         time.Time       `gorm:"column:drawn_at;autoCreateTime"`
}

func (d *DrawRecord) BeforeCreate(*gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
