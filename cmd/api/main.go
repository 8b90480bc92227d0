package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/caffeinepub/raffle-backend/api/routes"
	"github.com/caffeinepub/raffle-backend/internal/checkout"
	"github.com/caffeinepub/raffle-backend/internal/draw"
	"github.com/caffeinepub/raffle-backend/internal/entries"
	"github.com/caffeinepub/raffle-backend/internal/raffles"
	"github.com/caffeinepub/raffle-backend/internal/users"
	"github.com/caffeinepub/raffle-backend/pkg/config"
	"github.com/caffeinepub/raffle-backend/pkg/db"
	"github.com/caffeinepub/raffle-backend/pkg/logger"
	"github.com/caffeinepub/raffle-backend/pkg/metrics"
	"github.com/caffeinepub/raffle-backend/pkg/migrate"
	"github.com/caffeinepub/raffle-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	raffleMetrics := metrics.New()

	raffleRepo := raffles.NewRepository(dbClient.DB())
	entryRepo := entries.NewRepository(dbClient.DB())
	checkoutRepo := checkout.NewRepository(dbClient.DB())
	drawRepo := draw.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())

	raffleService, err := raffles.NewService(raffleRepo, entryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create raffle service", err)
		os.Exit(1)
	}

	entryService, err := entries.NewService(entryRepo, raffleRepo, raffleMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create entry service", err)
		os.Exit(1)
	}

	gatewayConf, err := checkout.NewConfigService(checkout.NewConfigRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway config service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		checkoutRepo,
		raffleRepo,
		entryRepo,
		dbClient,
		gatewayConf,
		cfg.Checkout,
		raffleMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	drawService, err := draw.NewService(
		drawRepo,
		raffleRepo,
		entryRepo,
		dbClient,
		draw.NewSeedSource(cfg.Draw.Seed),
		raffleMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create draw service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:      cfg,
			Logger:      logg,
			DB:          dbClient,
			Redis:       redisClient,
			Metrics:     raffleMetrics,
			Raffles:     raffleService,
			Entries:     entryService,
			Checkout:    checkoutService,
			Draw:        drawService,
			Users:       userService,
			GatewayConf: gatewayConf,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
