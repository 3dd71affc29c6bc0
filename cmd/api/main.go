package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TeggTTV/resellz/internal/api"
	"github.com/TeggTTV/resellz/internal/command"
	"github.com/TeggTTV/resellz/internal/config"
	"github.com/TeggTTV/resellz/internal/infrastructure/kafka"
	"github.com/TeggTTV/resellz/internal/infrastructure/store"
	"github.com/TeggTTV/resellz/internal/logger"
	"github.com/TeggTTV/resellz/internal/metrics"
	"github.com/TeggTTV/resellz/internal/query"
	"github.com/TeggTTV/resellz/internal/tracker"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using process environment")
	}
	cfg := config.LoadEnv()

	encoding := cfg.Logger.Encoding
	if !cfg.IsDevelopment() {
		encoding = "json"
	}
	log, err := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.IsDevelopment(),
		Encoding:          encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	log.Info("Store opened", zap.String("driver", cfg.Storage.Driver))

	collector := metrics.New()
	opts := []tracker.Option{tracker.WithMetrics(collector)}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		opts = append(opts, tracker.WithPublisher(producer))
		log.Info("Publishing activity to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	t := tracker.New(kv, log.Named("tracker"), opts...)
	loadErr := startLoad(ctx, t)

	handlers := api.NewHandlers(command.NewHandler(t), query.NewHandler(t), t)
	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.NewRouter(handlers, log.Named("http"), collector.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server started", zap.String("addr", cfg.Server.HTTPAddr), zap.String("env", cfg.Server.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-serverErr:
		log.Error("HTTP server error", zap.Error(err))
		exitCode = 1
	case err := <-loadErr:
		log.Error("Failed to load tracker state", zap.Error(err))
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := t.Close(shutdownCtx); err != nil {
		log.Error("Failed to close tracker", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	log.Info("Stopped")
	if exitCode != 0 {
		_ = log.Sync()
		os.Exit(exitCode)
	}
}

type loader interface {
	Load(ctx context.Context) error
}

// startLoad runs Load in the background. The channel receives the load error,
// if any; it never receives once the context is cancelled.
func startLoad(ctx context.Context, l loader) <-chan error {
	errc := make(chan error, 1)
	go func() {
		if err := l.Load(ctx); err != nil && ctx.Err() == nil {
			errc <- err
		}
	}()
	return errc
}

func openStore(ctx context.Context, cfg *config.Config) (store.KVStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil

	case config.DriverSQLite:
		return store.NewSQLiteStore(cfg.Storage.SQLitePath)

	case config.DriverPostgres:
		db, err := store.ConnectPostgres(ctx, store.PostgresConfig{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		s := store.NewPostgresStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil

	case config.DriverRedis:
		return store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.KeyPrefix,
		})

	case config.DriverDynamoDB:
		client, err := store.NewDynamoClient(ctx, store.DynamoConfig{
			Table:    cfg.Dynamo.Table,
			Region:   cfg.Dynamo.Region,
			Endpoint: cfg.Dynamo.Endpoint,
		})
		if err != nil {
			return nil, err
		}
		return store.NewDynamoStore(client, cfg.Dynamo.Table), nil

	case config.DriverS3:
		client, err := store.NewS3Client(ctx, store.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return store.NewS3Store(client, cfg.S3.Bucket, cfg.S3.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
