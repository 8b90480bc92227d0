package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile maps a buyer identity to a display name. Owned by the identity
// subsystem; raffle logic only reads it.
type UserProfile struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
