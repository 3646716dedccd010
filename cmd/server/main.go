package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/gin-blog/config"
	"github.com/d60-Lab/gin-blog/internal/api"
	"github.com/d60-Lab/gin-blog/internal/events"
	"github.com/d60-Lab/gin-blog/internal/repository"
	"github.com/d60-Lab/gin-blog/internal/service"
	"github.com/d60-Lab/gin-blog/pkg/database"
	"github.com/d60-Lab/gin-blog/pkg/jwtutil"
	"github.com/d60-Lab/gin-blog/pkg/logger"
	"github.com/d60-Lab/gin-blog/pkg/tracing"
)

// @title gin-blog API
// @version 1.0
// @description Token-authenticated personal blog API.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Error("server exited", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			SampleRate:       cfg.Sentry.SampleRate,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Sentry.Environment)
	if err != nil {
		return err
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	tokens, users, stopStores, err := stores(ctx, cfg, db)
	if err != nil {
		return err
	}

	pub, closeBus, err := events.Connect(cfg.NATS.URL)
	if err != nil {
		return err
	}
	defer closeBus()
	dispatcher := service.NewEventDispatcher(pub, 1024)
	stopDispatcher := dispatcher.Start(2)
	stopReport := dispatcher.Report(time.Minute)

	jwt := jwtutil.NewManager(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.Issuer)
	postService := service.NewPostService(repository.NewPostRepository(db), dispatcher)
	userService := service.NewUserService(users, tokens, jwt)

	router := api.NewRouter(api.OptionsFromConfig(cfg), postService, userService)
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.Warn("event dispatcher did not drain", zap.Int("pending", dispatcher.QueueLen()), zap.Error(err))
	}
	if err := stopReport(shutdownCtx); err != nil {
		logger.Warn("dispatch report stop", zap.Error(err))
	}
	st := dispatcher.Stats()
	logger.Info("event dispatcher stopped", zap.Int64("published", st.Published), zap.Duration("avg_latency", st.AvgLatency))
	if err := stopStores(shutdownCtx); err != nil {
		logger.Warn("stores stop", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}

// stores 配置了 Redis 时用 Redis 记录注销令牌并缓存用户，否则落库并启动定期清理
func stores(ctx context.Context, cfg *config.Config, db *gorm.DB) (repository.TokenRepository, repository.UserRepository, func(context.Context) error, error) {
	users := repository.NewUserRepository(db)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		cached := repository.NewCachedUserRepository(users, rdb, cfg.Redis.UserCacheTTL)
		stop := func(context.Context) error {
			hits, misses := cached.Stats()
			logger.Info("user cache stats", zap.Int64("hits", hits), zap.Int64("misses", misses))
			return rdb.Close()
		}
		return repository.NewRedisTokenRepository(rdb), cached, stop, nil
	}
	janitor := service.NewTokenJanitor(db, time.Hour)
	return repository.NewDBTokenRepository(db), users, janitor.Start(), nil
}
