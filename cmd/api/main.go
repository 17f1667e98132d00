package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contest-api/internal/config"
	pgRepo "contest-api/internal/infra/adapter/persistence/postgres"
	"contest-api/internal/infra/db"
	"contest-api/internal/infra/notifier"
	"contest-api/internal/infra/payment"
	"contest-api/internal/infra/storage"
	"contest-api/internal/observability/logging"
	"contest-api/internal/observability/tracing"

	entryUC "contest-api/internal/usecase/entry"
	notifyUC "contest-api/internal/usecase/notify"
	paymentUC "contest-api/internal/usecase/payment"

	hhttp "contest-api/internal/handler/http"
	hadmin "contest-api/internal/handler/http/admin"
	hentry "contest-api/internal/handler/http/entry"
	"contest-api/internal/handler/http/middleware"
	hpayment "contest-api/internal/handler/http/payment"
	"contest-api/internal/handler/http/requestid"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		// ロガー設定前なので素の slog で出す
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)

	shutdownTracing := tracing.InitProvider("contest-api", cfg.Version)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("tracer provider shutdown failed", slog.Any("error", err))
		}
	}()

	fees, err := config.LoadFeeTable(cfg.FeeTablePath)
	if err != nil {
		logger.Error("failed to load fee table", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database := initDatabase(ctx, logger, cfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	files := initStorage(ctx, logger, cfg)
	gateway := payment.NewStripeGateway(payment.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Timeout:       cfg.PaymentTimeout,
	})

	notifications := initNotifications(logger, cfg)

	repo := pgRepo.NewEntryRepo(database)
	entrySvc := &entryUC.Service{
		Repo:        repo,
		Payments:    gateway,
		Files:       files,
		Fees:        fees,
		MaxFileSize: cfg.MaxFileSize(),
	}
	if notifications.Enabled() {
		entrySvc.Notifier = notifications
	}
	paymentSvc := &paymentUC.Service{
		Gateway: gateway,
		Entries: repo,
		Fees:    fees,
	}

	limiter := newRateLimiter(logger, cfg)
	go hhttp.StartRateLimitCleanup(ctx, limiter, hhttp.DefaultCleanupInterval, "ip")

	mux := http.NewServeMux()
	hentry.Register(mux, entrySvc, limiter.Middleware)
	hpayment.Register(mux, paymentSvc, limiter.Middleware)
	if hadmin.Register(mux, entrySvc, cfg.AdminAPIToken) {
		logger.Info("admin routes enabled")
	} else {
		logger.Warn("ADMIN_API_TOKEN not set, admin routes disabled")
	}

	// ヘルスチェック・メトリクス (認証なし)
	mux.Handle("GET    /health", &hhttp.HealthHandler{DB: database, Gateway: gateway, Files: files, Version: cfg.Version})
	mux.Handle("GET    /ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("GET    /live", &hhttp.LiveHandler{})
	mux.Handle("GET    /metrics", hhttp.MetricsHandler())

	handler := applyMiddleware(logger, cfg, mux)
	runServer(ctx, cancel, logger, cfg, handler)

	// 送信中の通知を待つ
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := notifications.Shutdown(shutdownCtx); err != nil {
		logger.Warn("notification shutdown incomplete", slog.Any("error", err))
	}
}

// initDatabase creates the connection manager and tries to connect once.
// A failed first attempt is not fatal: the manager reconnects on the next
// request and /health reports the database as unhealthy until then.
func initDatabase(ctx context.Context, logger *slog.Logger, cfg *config.App) *db.Manager {
	manager := db.NewManager(db.ConnectionConfig{
		DSN:             cfg.DatabaseURL,
		ConnectTimeout:  cfg.DBConnectTimeout,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: db.DefaultConnectionConfig().ConnMaxIdleTime,
	}, logger)

	if err := manager.Init(ctx); err != nil {
		logger.Error("database connection failed, will retry on demand", slog.Any("error", err))
	}
	return manager
}

// initStorage builds the configured file store. An S3 store that cannot be
// built is fatal because pitch deck uploads would otherwise fail silently.
func initStorage(ctx context.Context, logger *slog.Logger, cfg *config.App) entryUC.FileStore {
	if cfg.FileStorage != config.StorageS3 {
		logger.Info("file storage: inline",
			slog.String("deployment_target", cfg.DeploymentTarget),
			slog.Int64("max_file_size", cfg.MaxFileSize()))
		return storage.NewInlineStore()
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Prefix:          cfg.S3Prefix,
		UsePathStyle:    cfg.S3UsePathStyle,
	})
	if err != nil {
		logger.Error("failed to initialise s3 storage", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("file storage: s3",
		slog.String("bucket", cfg.S3Bucket),
		slog.String("prefix", cfg.S3Prefix),
		slog.Int64("max_file_size", cfg.MaxFileSize()))
	return store
}

// initNotifications builds the new-entry notification channels that have a
// webhook URL configured.
func initNotifications(logger *slog.Logger, cfg *config.App) *notifyUC.Service {
	var channels []notifyUC.Channel
	if cfg.SlackWebhookURL != "" {
		channels = append(channels, notifier.NewSlackNotifier(notifier.SlackConfig{
			WebhookURL: cfg.SlackWebhookURL,
			Timeout:    cfg.NotifyTimeout,
		}))
	}
	if cfg.DiscordWebhookURL != "" {
		channels = append(channels, notifier.NewDiscordNotifier(notifier.DiscordConfig{
			WebhookURL: cfg.DiscordWebhookURL,
			Timeout:    cfg.NotifyTimeout,
		}))
	}

	names := make([]string, 0, len(channels))
	for _, ch := range channels {
		names = append(names, ch.Name())
	}
	logger.Info("entry notifications configured", slog.Any("channels", names))
	return notifyUC.NewService(channels, cfg.NotifyMaxConcurrent, cfg.NotifyTimeout, logger)
}

// newRateLimiter limits the submission and payment intent routes per client IP.
// Forwarded headers are honoured only from TRUSTED_PROXIES.
func newRateLimiter(logger *slog.Logger, cfg *config.App) *middleware.RateLimiter {
	var extractor middleware.IPExtractor = middleware.RemoteAddrExtractor{}
	if len(cfg.TrustedProxies) > 0 {
		proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
		if err != nil {
			logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
			os.Exit(1)
		}
		extractor = middleware.NewTrustedProxyExtractor(proxies)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxies)))
	} else {
		logger.Info("rate limiting: using RemoteAddr (proxy headers ignored)")
	}

	logger.Info("rate limiting initialized",
		slog.Float64("per_minute", cfg.RateLimitPerMinute),
		slog.Int("burst", cfg.RateLimitBurst))
	return middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst, extractor)
}

// applyMiddleware wraps the mux with the middleware chain.
// Order: Request ID → Tracing → Logging → Recover → Metrics → CORS → routes
// Recover sits inside Logging so a recovered panic is logged as a 500.
func applyMiddleware(logger *slog.Logger, cfg *config.App, handler http.Handler) http.Handler {
	corsConfig := middleware.DefaultCORSConfig(cfg.AllowedOrigins())
	corsConfig.Logger = logger
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", cfg.AllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Int("max_age", corsConfig.MaxAge))

	return hhttp.Chain(handler,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger, !cfg.IsProduction()),
		hhttp.MetricsMiddleware,
		middleware.CORS(corsConfig),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, cfg *config.App, handler http.Handler) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Slowloris 対策
		IdleTimeout:       120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("version", cfg.Version),
			slog.String("env", cfg.Env),
			slog.String("deployment_target", cfg.DeploymentTarget))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down server...", slog.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server failed", slog.Any("error", err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// バックグラウンドの cleanup を止める
	cancel()
	logger.Info("server stopped")
}
