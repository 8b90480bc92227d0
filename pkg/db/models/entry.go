package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry is a buyer's purchase of one or more spots in a raffle. Only paid
// entries carry ledger weight; the unique session index is the idempotency
// anchor for confirmation.
type Entry struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RaffleID          uuid.UUID `gorm:"column:raffle_id;type:uuid;not null;index"`
	BuyerID           uuid.UUID `gorm:"column:buyer_id;type:uuid;not null;index"`
	Quantity          int       `gorm:"column:quantity;not null"`
	IsPaid            bool      `gorm:"column:is_paid;not null;default:false"`
	CheckoutSessionID *string   `gorm:"column:checkout_session_id;uniqueIndex"`
	PurchasedAt       time.Time `gorm:"column:purchased_at;autoCreateTime"`
}

func (e *Entry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
