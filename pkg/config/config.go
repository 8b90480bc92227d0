package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Checkout     CheckoutConfig
	Draw         DrawConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RAFFLE_APP_ENV" required:"true"`
	Port         string `envconfig:"RAFFLE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RAFFLE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RAFFLE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"RAFFLE_DB_DSN"`
	Driver string `envconfig:"RAFFLE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RAFFLE_DB_HOST"`
	LegacyPort     int    `envconfig:"RAFFLE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RAFFLE_DB_USER"`
	LegacyPassword string `envconfig:"RAFFLE_DB_PASSWORD"`
	LegacyName     string `envconfig:"RAFFLE_DB_NAME"`
	LegacySSLMode  string `envconfig:"RAFFLE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RAFFLE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RAFFLE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RAFFLE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RAFFLE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RAFFLE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RAFFLE_REDIS_ADDR"`
	Password     string        `envconfig:"RAFFLE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RAFFLE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RAFFLE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RAFFLE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RAFFLE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RAFFLE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RAFFLE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"RAFFLE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"RAFFLE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"RAFFLE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CheckoutConfig struct {
	SuccessURL     string        `envconfig:"RAFFLE_CHECKOUT_SUCCESS_URL"`
	CancelURL      string        `envconfig:"RAFFLE_CHECKOUT_CANCEL_URL"`
	GatewayTimeout time.Duration `envconfig:"RAFFLE_CHECKOUT_GATEWAY_TIMEOUT" default:"15s"`
	Currency       string        `envconfig:"RAFFLE_CHECKOUT_CURRENCY" default:"usd"`
}

type DrawConfig struct {
	// Seed pins the winner selection RNG. Zero means crypto-seeded.
	Seed int64 `envconfig:"RAFFLE_DRAW_SEED" default:"0"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"RAFFLE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"RAFFLE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
