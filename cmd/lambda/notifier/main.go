package main

import (
	"context"

	"github.com/TeggTTV/resellz/internal/config"
	"github.com/TeggTTV/resellz/internal/email"
	"github.com/TeggTTV/resellz/internal/infrastructure/kinesis"
	"github.com/TeggTTV/resellz/internal/infrastructure/store"
	"github.com/TeggTTV/resellz/internal/logger"
	"github.com/TeggTTV/resellz/internal/notification"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

var (
	streamHandler *notification.StreamHandler
	log           *zap.Logger
)

func init() {
	cfg := config.LoadEnv()

	var err error
	log, err = logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	if err != nil {
		panic(err)
	}

	client, err := store.NewDynamoClient(context.Background(), store.DynamoConfig{
		Table:    cfg.Dynamo.Table,
		Region:   cfg.Dynamo.Region,
		Endpoint: cfg.Dynamo.Endpoint,
	})
	if err != nil {
		log.Fatal("Failed to create DynamoDB client", zap.Error(err))
	}
	kv := store.NewDynamoStore(client, cfg.Dynamo.Table)

	emailSvc := email.NewService(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From)
	handler := notification.NewHandler(emailSvc, cfg.SMTP.To, log)
	streamHandler = notification.NewStreamHandler(handler, kv, log)

	log.Info("Lambda notifier initialized",
		zap.String("table", cfg.Dynamo.Table),
		zap.String("smtp", cfg.SMTP.Host+":"+cfg.SMTP.Port),
	)
}

func handler(ctx context.Context, kinesisEvent events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Debug("Received records", zap.Int("count", len(kinesisEvent.Records)))

	var batchItemFailures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord) {
		batchItemFailures = append(batchItemFailures, events.KinesisBatchItemFailure{
			ItemIdentifier: record.Kinesis.SequenceNumber,
		})
	}

	for _, record := range kinesisEvent.Records {
		change, err := kinesis.ConvertFromKinesisRecord(record)
		if err != nil {
			log.Warn("Failed to convert record", zap.String("event_id", record.EventID), zap.Error(err))
			fail(record)
			continue
		}
		if change == nil {
			continue
		}

		if err := streamHandler.HandleChange(ctx, change); err != nil {
			log.Error("Failed to process change",
				zap.String("event_id", record.EventID),
				zap.String("key", change.Key),
				zap.Error(err),
			)
			fail(record)
		}
	}

	log.Info("Processed records",
		zap.Int("succeeded", len(kinesisEvent.Records)-len(batchItemFailures)),
		zap.Int("total", len(kinesisEvent.Records)),
	)

	return events.KinesisEventResponse{
		BatchItemFailures: batchItemFailures,
	}, nil
}

func main() {
	defer log.Sync()
	lambda.Start(handler)
}
