package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-svc/config"
	"storefront-svc/handlers"
	"storefront-svc/kafka"
	"storefront-svc/middleware"
	"storefront-svc/notify"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func notifierCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "notifier",
		Short: "Consume order events from Kafka and send confirmation emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.BrevoAPIKey == "" || cfg.EmailSender == "" {
				return errors.New("notifier requires BREVO_API_KEY and EMAIL_SENDER")
			}
			if len(cfg.KafkaBrokers) == 0 {
				return errors.New("notifier requires KAFKA_BROKERS")
			}
			return runNotifier(cmd.Context(), cfg, port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8084", "port for /health and /metrics")
	return cmd
}

func runNotifier(parent context.Context, cfg *config.Config, port string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTracing, err := middleware.InitTracing(cfg.ServiceName+"-notifier", cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup, logger)
	defer consumer.Close()

	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.MetricsMiddleware())
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", middleware.PrometheusHandler())

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Notifier HTTP server failed", zap.Error(err))
		}
	}()

	logger.Info("Notifier started", zap.String("topic", cfg.KafkaTopic), zap.String("addr", srv.Addr))

	sender := notify.NewBrevoSender(brevoConfig(cfg))
	runErr := consumer.Run(ctx, notify.EventHandler(sender, logger))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Notifier HTTP server forced to shutdown", zap.Error(err))
	}

	logger.Info("Notifier exited")
	return runErr
}
