package main

import (
	"context"
	"fmt"

	"storefront-svc/config"
	"storefront-svc/database"
	"storefront-svc/kafka"
	"storefront-svc/notify"
	"storefront-svc/store"

	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore connects to the configured backend. When migrate is set the
// Postgres schema or the Mongo indexes are created first.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, logger)
		if err != nil {
			return nil, err
		}
		s := store.NewMongoStore(db)
		if migrate {
			if err := s.EnsureIndexes(ctx); err != nil {
				_ = s.Close(context.Background())
				return nil, err
			}
			logger.Info("Mongo indexes are up to date")
		}
		return s, nil

	case config.DriverPostgres:
		db, err := database.InitDB(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := database.Migrate(ctx, db, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		return store.NewPostgresStore(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func brevoConfig(cfg *config.Config) notify.BrevoConfig {
	return notify.BrevoConfig{
		APIKey:       cfg.BrevoAPIKey,
		SenderEmail:  cfg.EmailSender,
		SenderName:   cfg.EmailSenderName,
		BCC:          cfg.EmailBCC,
		StoreName:    cfg.StoreName,
		SupportEmail: cfg.ContactEmail,
	}
}

// newSender picks the confirmation transport. The returned close function
// releases the Kafka producer when one was created.
func newSender(cfg *config.Config, logger *zap.Logger) (notify.Sender, func() error, error) {
	noop := func() error { return nil }

	switch cfg.NotifyTransport {
	case config.TransportDirect:
		return notify.NewBrevoSender(brevoConfig(cfg)), noop, nil
	case config.TransportKafka:
		producer, err := kafka.InitProducer(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewEventSender(producer, cfg.KafkaTopic, logger), producer.Close, nil
	case config.TransportLog:
		return notify.NewLogSender(logger), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown notify transport %q", cfg.NotifyTransport)
}
