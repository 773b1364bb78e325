package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-score-analytics/internal/handler"
	"github.com/noah-isme/sma-score-analytics/internal/middleware"
	"github.com/noah-isme/sma-score-analytics/internal/models"
	"github.com/noah-isme/sma-score-analytics/internal/service"
	"github.com/noah-isme/sma-score-analytics/pkg/config"
	"github.com/noah-isme/sma-score-analytics/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-score-analytics/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-score-analytics/pkg/middleware/requestid"
)

type routerDeps struct {
	auth     middleware.TokenValidator
	metrics  *service.MetricsService
	analysis *handler.AnalysisHandler
	health   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics, "/metrics"))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	analysis := api.Group("/analysis")
	analysis.Use(middleware.JWT(deps.auth), middleware.WithResponseMeta())

	read := analysis.Group("", middleware.RequirePermission(cfg.Analytics.PermissionCode))
	read.GET("/summary", deps.analysis.Summary)
	read.GET("/rank", deps.analysis.Rank)
	read.GET("/trend", deps.analysis.Trend)
	read.GET("/compare", deps.analysis.Compare)
	read.GET("/ai-analysis", deps.analysis.AIAnalysis)
	read.GET("/export", deps.analysis.Export)

	admin := analysis.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	admin.POST("/cache/invalidate", deps.analysis.InvalidateCache)
	admin.GET("/system", deps.analysis.System)

	return r
}
