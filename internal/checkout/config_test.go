package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/caffeinepub/raffle-backend/pkg/db/models"
	pkgerrors "github.com/caffeinepub/raffle-backend/pkg/errors"
)

func TestGatewayUnsetIsStateConflict(t *testing.T) {
	t.Parallel()

	svc := newConfigService(t)

	_, err := svc.Gateway(context.Background())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict before configuration, got %v", err)
	}

	configured, err := svc.IsConfigured(context.Background())
	if err != nil {
		t.Fatalf("is configured: %v", err)
	}
	if configured {
		t.Fatal("expected unset gateway")
	}
}

func TestSetConfigurationValidatesKey(t *testing.T) {
	t.Parallel()

	svc := newConfigService(t)
	ctx := context.Background()

	for _, key := range []string{"", "   ", "pk_test_notasecret", "whatever"} {
		err := svc.SetConfiguration(ctx, key, nil)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("key %q: expected validation error, got %v", key, err)
		}
	}

	if configured, _ := svc.IsConfigured(ctx); configured {
		t.Fatal("rejected keys must not be stored")
	}
}

func TestSetConfigurationTransitionsToConfigured(t *testing.T) {
	t.Parallel()

	svc := newConfigService(t)
	ctx := context.Background()

	if err := svc.SetConfiguration(ctx, "sk_test_abc123", []string{"US", "CA"}); err != nil {
		t.Fatalf("set configuration: %v", err)
	}

	configured, err := svc.IsConfigured(ctx)
	if err != nil {
		t.Fatalf("is configured: %v", err)
	}
	if !configured {
		t.Fatal("expected configured gateway")
	}

	gw, err := svc.Gateway(ctx)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	if gw == nil {
		t.Fatal("expected a gateway client")
	}

	// Replacing the key invalidates the cached client.
	if err := svc.SetConfiguration(ctx, "sk_test_rotated", nil); err != nil {
		t.Fatalf("rotate key: %v", err)
	}
	rotated, err := svc.Gateway(ctx)
	if err != nil {
		t.Fatalf("gateway after rotation: %v", err)
	}
	if rotated == gw {
		t.Fatal("expected a rebuilt client after key rotation")
	}
}

func newConfigService(t *testing.T) *ConfigService {
	t.Helper()
	dsn := "file:gwconfig_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.GatewayConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewConfigService(NewConfigRepository(db), nil)
	if err != nil {
		t.Fatalf("new config service: %v", err)
	}
	return svc
}
