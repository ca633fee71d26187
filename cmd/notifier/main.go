// Package main runs the notification worker. It drains the reservation
// notice queue and pushes each notice to the customer over LINE.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkordes/tour-booking/internal/config"
	"github.com/pkordes/tour-booking/internal/notify"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadNotifier()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	line := notify.NewLineClient(cfg.LineAPIURL, cfg.LineChannelToken, &http.Client{Timeout: 10 * time.Second})
	consumer := notify.NewConsumer(line, cfg.DeliveryAttempts, logger)

	slog.Info("notifier starting", "queue", cfg.NotifyQueue)
	if err := consumer.Run(ctx, cfg.AMQPURL, cfg.NotifyQueue); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("notifier stopped")
}
