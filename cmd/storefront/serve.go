package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-svc/cache"
	"storefront-svc/config"
	"storefront-svc/handlers"
	"storefront-svc/middleware"
	"storefront-svc/notify"
	"storefront-svc/orders"
	"storefront-svc/payment"
	"storefront-svc/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "create the schema or indexes on startup")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := middleware.InitTracing(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	st, err := openStore(ctx, cfg, migrate, logger)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = cache.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			// Caching and rate limiting are optional.
			logger.Warn("Redis unavailable, continuing without cache and rate limits", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	sender, closeSender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSender()
	dispatcher := notify.NewAsyncDispatcher(sender, cfg.NotifyTimeout, logger)

	gateway := payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout, logger)
	service := orders.NewService(orders.Deps{
		Products: st,
		Orders:   st,
		Verifier: payment.NewVerifier(cfg.RazorpayKeySecret, gateway, st, logger),
		Gateway:  gateway,
		Notifier: dispatcher,
		Logger:   logger,
	})

	// The contact form always mails through Brevo, whatever carries confirmations.
	var contact handlers.ContactSender
	if cfg.BrevoAPIKey != "" {
		contact = notify.NewBrevoSender(brevoConfig(cfg))
	}

	var productCache *cache.ProductCache
	if rdb != nil {
		productCache = cache.NewProductCache(rdb, cfg.CacheTTL)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName:       cfg.ServiceName,
		Orders:            service,
		Store:             st,
		ProductCache:      productCache,
		Redis:             rdb,
		Logger:            logger,
		JWTSecret:         cfg.JWTSecret,
		RazorpayKeyID:     cfg.RazorpayKeyID,
		Contact:           contact,
		ExposeErrors:      cfg.IsDevelopment(),
		APIRateLimit:      cfg.APIRateLimit,
		APIRateWindow:     cfg.APIRateWindow,
		AuthRateLimit:     cfg.AuthRateLimit,
		AuthRateWindow:    cfg.AuthRateWindow,
		PaymentRateLimit:  cfg.PaymentRateLimit,
		PaymentRateWindow: cfg.PaymentRateWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	go watchStoreHealth(ctx, st, healthServer, logger)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server started", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("gRPC server started", zap.String("addr", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	logger.Info("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	// Let in-flight confirmations finish before the producer closes.
	dispatcher.Wait()

	logger.Info("Servers exited")
	return nil
}

// watchStoreHealth reflects store connectivity in the gRPC health service.
func watchStoreHealth(ctx context.Context, st store.Store, hs *health.Server, logger *zap.Logger) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := st.Ping(pingCtx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if status != last {
			if err != nil {
				logger.Warn("Store health check failed", zap.Error(err))
			}
			hs.SetServingStatus("", status)
			last = status
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
