package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/pkg/enums"
)

// CheckoutSession is the pending-to-resolved record of an external payment
// attempt. The primary key is the gateway's own session identifier. A session
// holds no spot inventory until it resolves to completed.
type CheckoutSession struct {
	ID            string                      `gorm:"column:id;primaryKey"`
	RaffleID      uuid.UUID                   `gorm:"column:raffle_id;type:uuid;not null;index"`
	BuyerID       uuid.UUID                   `gorm:"column:buyer_id;type:uuid;not null;index"`
	Quantity      int                         `gorm:"column:quantity;not null"`
	AmountCents   int                         `gorm:"column:amount_cents;not null"`
	Status        enums.CheckoutSessionStatus `gorm:"column:status;type:text;not null;default:pending"`
	CheckoutURL   string                      `gorm:"column:checkout_url;not null"`
	FailureReason *string                     `gorm:"column:failure_reason"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
