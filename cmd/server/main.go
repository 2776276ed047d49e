package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fi44er/tradewallet/config"
	"github.com/Fi44er/tradewallet/db"
	"github.com/Fi44er/tradewallet/internal/api"
	"github.com/Fi44er/tradewallet/internal/bot"
	"github.com/Fi44er/tradewallet/internal/events"
	"github.com/Fi44er/tradewallet/internal/realtime"
	"github.com/Fi44er/tradewallet/internal/repository"
	"github.com/Fi44er/tradewallet/internal/service"
	"github.com/Fi44er/tradewallet/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const sweepInterval = time.Minute

func main() {
	logger := utils.InitLogger()
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		logger.Fatal("Failed to load config: ", err)
	}
	logger.SetLevelName(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.ConnectDb(cfg.DB_URL, logger)
	if err != nil {
		logger.Fatal(err)
	}

	if err := db.Migrate(database, cfg.Migrate, logger); err != nil {
		logger.Fatal(err)
	}

	repo := repository.NewRepository(database, logger)
	prices := utils.NewPriceService(cfg.PriceAPIURL, cfg.PriceCacheTTL, logger)
	bus := events.NewBus()
	defer bus.Close()

	svc, err := service.NewService(repo, prices, bus, &cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create service: ", err)
	}

	if cfg.GeoIPURL != "" {
		svc.SetLocator(utils.NewGeoLocator(cfg.GeoIPURL))
	}

	if cfg.AdminEmail != "" {
		if err := svc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Fatal("Failed to create admin account: ", err)
		}
	}

	hub := realtime.NewHub(logger)
	hub.Subscribe(bus)

	if cfg.TelegramBotToken != "" {
		telegramBot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			logger.Fatal("Failed to create bot API: ", err)
		}
		adminBot := bot.NewBot(telegramBot, svc, logger, &cfg)
		adminBot.Subscribe(bus)
		go adminBot.Start(ctx)
	} else {
		logger.Warn("TELEGRAM_BOT_TOKEN is empty, admin chat alerts are disabled")
	}

	go runSweeps(ctx, svc, logger)

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	server := api.NewServer(svc, tokens, hub, &cfg, logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed: ", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown: %v", err)
	}

	if sqlDB, err := database.DB(); err == nil {
		sqlDB.Close()
	}
}

// runSweeps matures due investments and marks idle users offline.
func runSweeps(ctx context.Context, svc *service.Service, logger *utils.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.MatureInvestments(ctx, 0); err != nil {
				logger.Errorf("Maturity sweep failed: %v", err)
			}
			if n, err := svc.ExpirePresence(ctx); err != nil {
				logger.Errorf("Presence sweep failed: %v", err)
			} else if n > 0 {
				logger.Debugf("Presence sweep: %d users went offline", n)
			}
		}
	}
}
