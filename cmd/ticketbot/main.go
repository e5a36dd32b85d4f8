package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-bot/internal/bot"
	"ticket-bot/internal/config"
	"ticket-bot/internal/flow"
	"ticket-bot/internal/health"
	"ticket-bot/internal/payment"
	"ticket-bot/internal/service"
	"ticket-bot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	log := logrus.NewEntry(logger)

	sheets, err := store.NewSheetsStore(ctx, []byte(cfg.GoogleServiceAccount), cfg.SpreadsheetID, cfg.SheetName, log.WithField("component", "store"))
	if err != nil {
		log.Fatalf("sheets store: %v", err)
	}

	gateway := payment.NewYooKassaClient(cfg.YooKassaShopID, cfg.YooKassaSecretKey, log.WithField("component", "payment"))

	controller := flow.NewController(sheets, gateway, cfg.TicketPrice, cfg.PaymentReturnURL, log.WithField("component", "flow"))

	telegramBot, err := bot.New(cfg.TelegramToken, controller, log.WithField("component", "bot"))
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	healthSrv := health.NewServer(cfg.Port, log.WithField("component", "health"))
	go func() {
		if err := healthSrv.Start(); err != nil {
			log.WithError(err).Error("health server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("health server shutdown")
		}
	}()

	if cfg.PendingSweepTTL > 0 {
		sweep := service.NewSweepService(sheets, cfg.PendingSweepTTL, log.WithField("component", "sweep"))
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleInterval(cfg.PendingSweepInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			sweep.Run(jobCtx)
		}); err != nil {
			log.Fatalf("schedule sweep: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Info("ticket bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Info("shutdown complete")
}
