package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nikotrade/backend/internal/config"
	"nikotrade/backend/internal/logger"
	"nikotrade/backend/internal/mail"
	"nikotrade/backend/internal/monitoring"
	"nikotrade/backend/internal/ratelimit"
	"nikotrade/backend/internal/service"
	"nikotrade/backend/internal/session"
	"nikotrade/backend/internal/storage"
	"nikotrade/backend/internal/storage/filesystem"
	"nikotrade/backend/internal/storage/memory"
	"nikotrade/backend/internal/storage/postgres"
	httptransport "nikotrade/backend/internal/transport/http"
	"nikotrade/backend/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if cfg.Log.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("starting nikotrade backend",
		zap.String("environment", cfg.App.Environment),
		zap.String("log_level", cfg.Log.Level),
	)

	retention := storage.RetentionPolicy{
		InquiryRetention:   time.Duration(cfg.Inquiry.RetentionDays) * 24 * time.Hour,
		AccessTokenTTL:     cfg.Inquiry.AccessTokenTTL,
		UsedTokenRetention: storage.DefaultRetentionPolicy().UsedTokenRetention,
	}

	store := selectStore(cfg, retention, log)
	defer store.Close()

	// Redis is optional; without it each instance counts its own windows.
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	redisClient := connectRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient, log)
	}

	dispatcher := buildDispatcher(cfg, log)
	sessions := session.NewManager(cfg.Inquiry.SessionSecret, "nikotrade", cfg.Inquiry.SessionTTL)

	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, log)

	inquiryService := service.NewInquiryService(
		store,
		dispatcher,
		limiter,
		wsHub,
		cfg.App.BaseURL,
		cfg.Inquiry.ContactEmail,
		log,
	)
	productService := service.NewProductService(store, log)

	healthChecker := monitoring.NewHealthChecker(store, redisClient)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		InquiryService: inquiryService,
		ProductService: productService,
		SessionManager: sessions,
		Limiter:        limiter,
		HealthChecker:  healthChecker,
		WebSocketHub:   wsHub,
		Logger:         log,
	})

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		log.Info("starting retention cleanup task", zap.Duration("interval", time.Hour))

		for {
			select {
			case <-groupCtx.Done():
				log.Info("cleanup task stopped")
				return nil
			case <-ticker.C:
				count, err := inquiryService.Cleanup(time.Now().UTC())
				if err != nil {
					log.Error("retention cleanup failed", zap.Error(err))
				} else if count > 0 {
					monitoring.CleanupRemoved.Add(float64(count))
					log.Info("retention cleanup removed records", zap.Int("count", count))
				}
			}
		}
	})

	group.Go(func() error {
		log.Info("starting websocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}

// selectStore picks the persistence backend. A configured database that does
// not answer the startup probe degrades to the filesystem store, and a broken
// store directory degrades further to process memory. The storefront stays up
// in every case.
func selectStore(cfg *config.Config, retention storage.RetentionPolicy, log *zap.Logger) storage.Store {
	if cfg.Database.Type != "" {
		store, err := openDatabaseStore(cfg, retention, log)
		if err == nil {
			log.Info("using database storage", zap.String("type", cfg.Database.Type))
			return store
		}
		log.Warn("database unavailable, degrading to filesystem store", zap.Error(err))
	}

	fsStore, err := filesystem.NewStore(cfg.Store.Dir, retention)
	if err == nil {
		log.Info("using filesystem storage", zap.String("dir", cfg.Store.Dir))
		return fsStore
	}
	log.Warn("filesystem store unavailable, degrading to memory store", zap.Error(err))

	return memory.NewStore(retention)
}

func openDatabaseStore(cfg *config.Config, retention storage.RetentionPolicy, log *zap.Logger) (storage.Store, error) {
	switch cfg.Database.Type {
	case "postgres":
		probeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := postgres.Probe(probeCtx, cfg.Database.DSN); err != nil {
			return nil, err
		}
		return postgres.NewStore(cfg.Database.DSN, retention)
	case "mysql":
		return postgres.NewMySQLStore(cfg.Database.DSN, retention)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}

func connectRedis(cfg *config.Config, log *zap.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client, err := ratelimit.NewRedisClient(context.Background(), cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn("redis unavailable, using in-process rate limiting", zap.Error(err))
		return nil
	}

	log.Info("using redis rate limiting", zap.String("address", cfg.Redis.Address))
	return client
}

func buildDispatcher(cfg *config.Config, log *zap.Logger) *mail.Dispatcher {
	opts := mail.DispatcherOptions{
		Attempts:          cfg.SMTP.Attempts,
		Backoff:           cfg.SMTP.Backoff,
		PerAttemptTimeout: cfg.SMTP.Timeout,
		PerSecond:         cfg.SMTP.PerSecond,
	}

	if !cfg.SMTP.Configured() {
		log.Warn("SMTP not configured, mail delivery disabled")
		return mail.NewDispatcher(mail.NopMailer{}, opts, log)
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		FromName:    cfg.SMTP.FromName,
		ImplicitTLS: cfg.SMTP.ImplicitTLS,
	})
	if err != nil {
		log.Warn("invalid SMTP configuration, mail delivery disabled", zap.Error(err))
		return mail.NewDispatcher(mail.NopMailer{}, opts, log)
	}

	log.Info("SMTP relay configured",
		zap.String("host", cfg.SMTP.Host),
		zap.Int("port", cfg.SMTP.Port),
		zap.Bool("implicit_tls", cfg.SMTP.ImplicitTLS),
	)
	return mail.NewDispatcher(mailer, opts, log)
}
