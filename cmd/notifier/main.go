package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TeggTTV/resellz/internal/config"
	"github.com/TeggTTV/resellz/internal/email"
	"github.com/TeggTTV/resellz/internal/infrastructure/kafka"
	"github.com/TeggTTV/resellz/internal/logger"
	"github.com/TeggTTV/resellz/internal/notification"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using process environment")
	}
	cfg := config.LoadEnv()

	log, err := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.SMTP.To == "" {
		log.Fatal("SMTP_TO is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	handler := notification.NewHandler(emailSvc, cfg.SMTP.To, log.Named("notification"))

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, log.Named("kafka"))
	defer consumer.Close()

	log.Info("Notifier started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.String("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port),
	)

	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Consumer stopped", zap.Error(err))
	}
	log.Info("Notifier stopped")
}
