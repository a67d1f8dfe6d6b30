package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"lapkeu/internal/amqp"
	"lapkeu/internal/auth"
	"lapkeu/internal/cli"
	apphttp "lapkeu/internal/http"
	applog "lapkeu/internal/log"
	"lapkeu/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ledger, err := cli.OpenLedger(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", applog.FieldError, err, applog.FieldStore, cfg.DataBackend)
		os.Exit(1)
	}
	if !ledger.Configured() {
		logger.Warn("Store is missing its settings, transaction endpoints will answer 500",
			applog.FieldStore, cfg.DataBackend)
	}

	// A typed nil *amqp.Client must not reach the service as a non-nil
	// Publisher.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	svc := services.NewTransactionService(ledger, publisher)
	srv, err := apphttp.NewServer(":"+cfg.Port, svc, auth.NewGate(cfg.AdminPIN), apphttp.Options{
		CORSOrigin:      cfg.CORSOrigin,
		TrustedProxies:  cfg.TrustedProxies,
		RateLimit:       cfg.RateLimit,
		RequirePIN:      cfg.RequirePIN,
		Debug:           cfg.Debug,
		ReportCacheTTL:  cfg.ReportCacheTTL,
		ReportCacheSize: cfg.ReportCacheSize,
		ReadyTimeout:    cfg.StoreTimeout,
		EnvPresence:     cfg.EnvPresence,
		Logger:          logger.WithComponent(applog.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to build server", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := ledger.Close(); err != nil {
			logger.Warn("Store close error", applog.FieldError, err)
		}
	})

	logger.Info("Starting lapkeu server",
		"port", cfg.Port,
		applog.FieldStore, ledger.StoreName(),
		"require_pin", cfg.RequirePIN)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
