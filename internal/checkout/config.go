package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
	"github.com/caffeinepub/raffle-backend/pkg/stripe"
)

// ConfigRepository persists the single admin-scoped gateway configuration row.
type ConfigRepository interface {
	Get(ctx context.Context) (*models.GatewayConfig, error)
	Upsert(ctx context.Context, cfg *models.GatewayConfig) error
}

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository builds the gateway config repository.
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	if db == nil {
		return nil
	}
	return &configRepository{db: db}
}

// Get returns the stored configuration, or nil when the gateway is unset.
func (r *configRepository) Get(ctx context.Context) (*models.GatewayConfig, error) {
	var cfg models.GatewayConfig
	err := r.db.WithContext(ctx).
		Where("id = ?", models.GatewayConfigRowID).
		First(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *configRepository) Upsert(ctx context.Context, cfg *models.GatewayConfig) error {
	cfg.ID = models.GatewayConfigRowID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"secret_key", "allowed_countries", "updated_at"}),
		}).
		Create(cfg).Error
}

// GatewayProvider yields a ready payment gateway built from the stored
// configuration. Implemented by ConfigService; substituted in tests.
type GatewayProvider interface {
	Gateway(ctx context.Context) (stripe.Gateway, error)
}

// ConfigService manages the unset → configured lifecycle of the payment
// gateway and hands out clients built from the current secret.
type ConfigService struct {
	repo ConfigRepository
	logg *logger.Logger

	mu     sync.Mutex
	cached stripe.Gateway
	keyRef string
}

// NewConfigService constructs the gateway configuration service.
func NewConfigService(repo ConfigRepository, logg *logger.Logger) (*ConfigService, error) {
	if repo == nil {
		return nil, fmt.Errorf("gateway config repository required")
	}
	return &ConfigService{repo: repo, logg: logg}, nil
}

// SetConfiguration validates and stores a new gateway secret. The key is
// validated by constructing a client, so a malformed key never reaches the DB.
func (s *ConfigService) SetConfiguration(ctx context.Context, secretKey string, allowedCountries []string) error {
	key := strings.TrimSpace(secretKey)
	if key == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "secret key is required")
	}
	if _, err := stripe.NewClient(ctx, key, allowedCountries, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid gateway secret key")
	}

	countries, err := json.Marshal(allowedCountries)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode allowed countries")
	}

	cfg := &models.GatewayConfig{
		SecretKey:        key,
		AllowedCountries: countries,
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store gateway config")
	}

	s.mu.Lock()
	s.cached = nil
	s.keyRef = ""
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(ctx, "payment gateway configuration updated")
	}
	return nil
}

// IsConfigured reports whether a gateway secret has been stored.
func (s *ConfigService) IsConfigured(ctx context.Context) (bool, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load gateway config")
	}
	return cfg != nil, nil
}

// Gateway returns a client built from the stored configuration. The client is
// rebuilt when the stored secret changes.
func (s *ConfigService) Gateway(ctx context.Context) (stripe.Gateway, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load gateway config")
	}
	if cfg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment gateway is not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.keyRef == cfg.SecretKey {
		return s.cached, nil
	}

	var countries []string
	if len(cfg.AllowedCountries) > 0 {
		if err := json.Unmarshal(cfg.AllowedCountries, &countries); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode allowed countries")
		}
	}

	client, err := stripe.NewClient(ctx, cfg.SecretKey, countries, s.logg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "stored gateway secret is invalid")
	}
	s.cached = client
	s.keyRef = cfg.SecretKey
	return client, nil
}
