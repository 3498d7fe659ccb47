package main

import (
	"RetailPulse/internal/adapters/eventbus"
	"RetailPulse/internal/adapters/httpserver"
	"RetailPulse/internal/adapters/postgres"
	"RetailPulse/internal/adapters/telegram"
	"RetailPulse/internal/adapters/websocket"
	"RetailPulse/internal/core/simulator"
	"RetailPulse/internal/shared/config"
	"RetailPulse/internal/shared/logger"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	isDevMode := cfg.AppEnv == "dev"
	baseLogger := logger.New(isDevMode)
	baseLogger.Info().
		Str("app_env", cfg.AppEnv).
		Str("http_addr", cfg.HTTP.Addr).
		Str("store_id", cfg.Store.ID).
		Bool("telegram_relay", cfg.Telegram.Enabled()).
		Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Database
	db, err := postgres.NewDB(ctx, cfg.Postgres.URL, &baseLogger)
	if err != nil {
		baseLogger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if cfg.Postgres.Migrate {
		if err := db.Migrate(ctx); err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	saleRepo := postgres.NewSaleRepository(db, cfg.Store.ID, cfg.Store.Channel, &baseLogger)

	// 4. Initialize the Hub and its long-lived subscribers
	hub := eventbus.NewHub(cfg.Hub.QueueCapacity, cfg.Hub.SendTimeout, &baseLogger)

	if cfg.Telegram.Enabled() {
		botAPI, err := telegram.NewBotAPI(cfg.Telegram.Token, cfg.Hub.SendTimeout)
		if err != nil {
			baseLogger.Fatal().Err(err).Msg("Failed to connect to Telegram")
		}
		baseLogger.Info().Str("username", botAPI.Self.UserName).Msg("Authorized on Telegram")

		botClient := telegram.NewClient(botAPI, &baseLogger)
		hub.Register(telegram.NewSaleRelay(botClient, cfg.Telegram.ChatID, &baseLogger))
	}

	// 5. Initialize the producers
	policy := simulator.Policy{
		BasketSizeWeights:   cfg.Simulator.BasketSizeWeights,
		UnitsPerItemWeights: cfg.Simulator.UnitsPerItemWeights,
		PriceJitterMin:      cfg.Simulator.PriceJitterMin,
		PriceJitterMax:      cfg.Simulator.PriceJitterMax,
		MinWait:             cfg.Simulator.MinWait,
		MaxWait:             cfg.Simulator.MaxWait,
		CooldownOnError:     cfg.Simulator.CooldownOnError,
		PersistTimeout:      cfg.Simulator.PersistTimeout,
	}
	if err := policy.Validate(); err != nil {
		baseLogger.Fatal().Err(err).Msg("Invalid simulator policy")
	}

	seed := uint64(time.Now().UnixNano())
	rnd := rand.New(rand.NewPCG(seed, seed>>1))
	clock := clockwork.NewRealClock()

	producer := simulator.NewProducer(saleRepo, hub, policy, rnd, clock, &baseLogger)
	heartbeat := simulator.NewHeartbeat(hub, cfg.Heartbeat.Interval, clock, &baseLogger)

	// 6. Initialize the HTTP server
	wsHandler := websocket.NewHandler(hub, cfg.HTTP.AllowedOrigins, &baseLogger)
	server := httpserver.NewServer(cfg.HTTP.Addr, wsHandler, saleRepo, db, &baseLogger)

	baseLogger.Info().Msg("All services initialized successfully")

	// 7. Run until a signal arrives or a component gives up
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := producer.Run(runCtx); err != nil {
			baseLogger.Error().Err(err).Msg("Producer stopped with an error, shutting down")
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		heartbeat.Run(runCtx)
	}()
	go func() {
		defer wg.Done()
		if err := server.Start(runCtx); err != nil {
			baseLogger.Error().Err(err).Msg("HTTP server stopped with an error, shutting down")
			cancel()
		}
	}()

	<-runCtx.Done()
	baseLogger.Info().Msg("Shutdown signal received")

	wg.Wait()
	hub.Close()
	baseLogger.Info().Msg("Application stopped gracefully")
}
