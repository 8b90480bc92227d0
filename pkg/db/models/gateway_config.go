package models

import (
	"encoding/json"
	"time"
)

// GatewayConfigRowID pins the configuration to a single row.
const GatewayConfigRowID = 1

// GatewayConfig is the admin-scoped payment gateway configuration. Its
// lifecycle is unset → configured; the secret never leaves the server.
type GatewayConfig struct {
	ID               int             `gorm:"column:id;primaryKey"`
	SecretKey        string          `gorm:"column:secret_key;not null"`
	AllowedCountries json.RawMessage `gorm:"column:allowed_countries;type:jsonb;not null"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
