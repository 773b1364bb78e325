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

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-score-analytics/api/swagger"
	"github.com/noah-isme/sma-score-analytics/internal/handler"
	"github.com/noah-isme/sma-score-analytics/internal/repository"
	"github.com/noah-isme/sma-score-analytics/internal/service"
	"github.com/noah-isme/sma-score-analytics/pkg/cache"
	"github.com/noah-isme/sma-score-analytics/pkg/config"
	"github.com/noah-isme/sma-score-analytics/pkg/database"
	"github.com/noah-isme/sma-score-analytics/pkg/export"
	"github.com/noah-isme/sma-score-analytics/pkg/logger"
)

// @title SMA Score Analytics API
// @version 1.0.0
// @description Score statistics, rankings, trends and teaching recommendations for exam results.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, analysis cache disabled", zap.Error(err))
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient)
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr, cfg.Analytics.CacheEnabled && redisClient != nil)

	validate := validator.New()
	scoreRepo := repository.NewScoreRepository(db)
	analyticsSvc := service.NewAnalyticsService(scoreRepo, cacheSvc, metricsSvc, validate, logr, service.AnalyticsOptions{
		TopN:     cfg.Analytics.TopN,
		TieAware: cfg.Analytics.TieAwareRanking,
		CacheTTL: cfg.Analytics.CacheTTL,
	})
	exportSvc := service.NewExportService(analyticsSvc, validate, logr, cfg.Exports.MaxRows, nil, export.NewPDFExporter(export.WithUTF8Font(cfg.Exports.PDFFontPath)), nil)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, redisClient) }
	}

	r := newRouter(cfg, logr, routerDeps{
		auth:     authSvc,
		metrics:  metricsSvc,
		analysis: handler.NewAnalysisHandler(analyticsSvc, exportSvc),
		health:   handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func pingRedis(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
