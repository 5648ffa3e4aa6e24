package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"jellybank/internal/amqp"
	"jellybank/internal/config"
	"jellybank/internal/holiday"
	apphttp "jellybank/internal/http"
	"jellybank/internal/proofs"
	"jellybank/internal/services"
	"jellybank/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The ledger works without a broker; exports just stop flowing.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger events will not be exported", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	signer := proofs.NewSigner(cfg.ProofBaseURL, cfg.ProofSignSecret)
	feed := holiday.NewClient()

	svc := apphttp.Services{
		Grants:     services.NewGrantService(repo, publisher),
		Rewards:    services.NewRewardService(repo, publisher),
		Challenges: services.NewChallengeService(repo),
		Exchanges:  services.NewExchangeService(repo, publisher),
		Allowance:  services.NewAllowanceService(repo, signer, publisher),
		Holidays:   services.NewHolidayService(repo, feed, cfg.HolidayCountry),
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, repo, cfg.RequestsPerMinute)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting jellybank server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
