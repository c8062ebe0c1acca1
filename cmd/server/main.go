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

	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/middleware"
	"task-manager/api/internal/monitoring"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/server"
	"task-manager/api/internal/services"
	"task-manager/api/internal/tokenstore"
	"task-manager/api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		return err
	}

	revoked := newRevocationStore(cfg, log)
	defer revoked.Close()

	users := repositories.NewUserRepository(pool.DB)
	tasks := repositories.NewTaskRepository(pool.DB)
	tokens := repositories.NewTokenRepository(pool.DB)

	authService, err := services.NewAuthService(users, tokens, revoked, services.AuthConfig{
		Secret:     []byte(cfg.Auth.JWTSecret),
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
		BCryptCost: cfg.Auth.BCryptCost,
	}, log)
	if err != nil {
		return err
	}

	health := monitoring.NewHealthChecker()
	health.Register("database", pool.Health)
	health.Register("revocation_store", revoked.Health)

	deps := server.Dependencies{
		AuthService:     authService,
		RegisterService: services.NewRegisterService(users, cfg.Auth.BCryptCost, cfg.Auth.PasswordMinLength, log),
		TaskService:     services.NewTaskService(tasks, users, cfg.Tasks.PageSize),
		UserService:     services.NewUserService(users, cfg.Auth.BCryptCost, cfg.Tasks.PageSize, log),
		Health:          health,
		Logger:          log,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin: cfg.RateLimit.RequestsPerMin,
			BurstSize:      cfg.RateLimit.BurstSize,
		})
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddr(),
		Handler:           server.NewRouter(deps),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("environment", cfg.Server.Environment).
			Str("db_driver", cfg.Database.Driver).
			Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErrors:
		return fmt.Errorf("http server stopped unexpectedly: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	log.Info().Msg("http server stopped")
	return nil
}

func openDatabase(cfg *config.Config, log zerolog.Logger) (*database.DatabasePool, error) {
	poolConfig := database.DefaultPoolConfig()
	poolConfig.Driver = cfg.Database.Driver
	poolConfig.DSN = cfg.GetDatabaseDSN()
	poolConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	poolConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	poolConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	poolConfig.ConnMaxIdleTime = cfg.Database.ConnMaxIdleTime
	poolConfig.Logger = log
	if !cfg.IsProduction() {
		poolConfig.LogLevel = gormlogger.Info
	}

	return database.NewDatabasePool(poolConfig)
}

// newRevocationStore prefers Redis so that logouts are shared across
// replicas. With Redis disabled the denylist lives in process memory.
func newRevocationStore(cfg *config.Config, log zerolog.Logger) tokenstore.RevocationStore {
	if !cfg.Redis.Enabled {
		log.Warn().Msg("redis disabled, using in-memory token revocation")
		return tokenstore.NewMemoryStore()
	}

	return tokenstore.NewRedisStore(&tokenstore.RedisConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}, tokenstore.NewCircuitBreaker(nil))
}
