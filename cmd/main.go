package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avolkov/stockpad/config"
	"github.com/avolkov/stockpad/data"
	"github.com/avolkov/stockpad/data/repository/postgres"
	"github.com/avolkov/stockpad/internal/externalApi/finnhubApi"
	"github.com/avolkov/stockpad/internal/reportGenerator/watchlistReport"
	"github.com/avolkov/stockpad/internal/service/watchlistService"
	"github.com/avolkov/stockpad/internal/transport/httpapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	finnhubApiClient := finnhubApi.New(cfg)

	reportGenerator := watchlistReport.New()

	watchlistSrv := watchlistService.New(cfg, pgRepo, finnhubApiClient, reportGenerator)

	controller := httpapi.NewController(watchlistSrv)

	server := httpapi.NewServer(cfg, controller)
	server.Start()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	server.Stop(ctx)
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
