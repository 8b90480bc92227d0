package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/caffeinepub/raffle-backend/pkg/enums"
)

// UserRole is an explicit role assignment. Users without a row default to
// the plain authenticated role.
type UserRole struct {
	UserID    uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
