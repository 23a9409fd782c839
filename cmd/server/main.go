package main

import (
	"context"
	"net/http"
	"os"
	ossignal "os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ridewise/riskmeter/internal/assessment"
	"github.com/ridewise/riskmeter/internal/cache"
	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/gamification"
	"github.com/ridewise/riskmeter/internal/geodata"
	"github.com/ridewise/riskmeter/internal/history"
	"github.com/ridewise/riskmeter/internal/middleware"
	"github.com/ridewise/riskmeter/internal/monitoring"
	"github.com/ridewise/riskmeter/internal/privacy"
	"github.com/ridewise/riskmeter/internal/ratelimit"
	"github.com/ridewise/riskmeter/internal/scoring"
	"github.com/ridewise/riskmeter/internal/security"
	"github.com/ridewise/riskmeter/internal/signal"
	"github.com/ridewise/riskmeter/internal/types"
)

const serverVersion = "2.0.0"

func main() {
	// Structured logging setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration from .env")
	}

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	geodataPath := os.Getenv("GEODATA_PATH")
	port := getEnvOrDefault("PORT", "8080")
	retentionDays := getEnvIntOrDefault("RETENTION_DAYS", 365)

	// Initialize assessment history database
	db, err := history.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := history.NewStore(db)
	privacyService := privacy.NewService(db)

	// Geographic expert data source: the accident store when configured,
	// otherwise built-in defaults.
	var geoSource geodata.HistoricalSource
	if geodataPath != "" {
		src, err := geodata.OpenSQLiteSource(geodataPath)
		if err != nil {
			slog.Error("Failed to open geodata store", "path", geodataPath, "error", err)
			os.Exit(1)
		}
		defer src.Close()
		geoSource = src
		slog.Info("Using sqlite geodata store", "path", geodataPath)
	} else {
		geoSource = geodata.NewStaticSource()
		slog.Info("No GEODATA_PATH configured, using static geodata defaults")
	}

	// Assessment pipeline and gamification
	extractor := signal.NewExtractor(signal.DefaultConfig())
	geoScorer := scoring.NewGeographicScorer(geoSource)
	assessService := assessment.NewService(extractor, geoScorer, store)
	rewards := gamification.NewService(store)

	// Monitoring
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	serverCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go monitoring.StartDBStatsCollector(serverCtx, db.DB, 15*time.Second)

	// Retention cleanup runs daily.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-serverCtx.Done():
				return
			case <-ticker.C:
				if err := privacyService.ScheduleDataCleanup(retentionDays); err != nil {
					slog.Error("Failed to run data cleanup", "error", err)
				}
			}
		}
	}()

	r := gin.New()

	// Security middleware setup
	securityConfig := security.DefaultSecurityConfig()
	securityMiddleware := security.NewSecurityMiddleware(securityConfig)
	if err := r.SetTrustedProxies(securityConfig.TrustedProxies); err != nil {
		slog.Error("Failed to set trusted proxies", "error", err)
		os.Exit(1)
	}

	// Compression for the large assessment payloads
	compressionMiddleware := middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())
	r.Use(compressionMiddleware.Handler())

	// Monitoring first, to capture all requests
	r.Use(monitoring.MonitoringMiddleware(appMetrics, appLogger))
	r.Use(monitoring.PrometheusMiddleware())
	r.Use(monitoring.SecurityMonitoringMiddleware(appLogger))

	// Error handling middleware
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     securityConfig.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(securityMiddleware.SecurityHeaders)
	r.Use(securityMiddleware.RequestTimeout)
	r.Use(securityMiddleware.ValidateContentType)
	r.Use(securityMiddleware.LimitBodySize)

	// Rate limiting
	limiterConfig := ratelimit.DefaultConfig()
	limiter := ratelimit.NewRateLimiter(limiterConfig, appMetrics)
	r.Use(limiter.IPRateLimitMiddleware())

	// Response cache for the deterministic assessment endpoints
	appCache := cache.NewCache(15 * time.Minute)
	r.Use(appCache.Middleware(appMetrics))

	r.GET("/health", healthHandler(appMetrics, db))
	r.GET("/metrics", monitoring.PrometheusHandler())
	r.GET("/metrics/summary", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"app":         appMetrics.GetStats(),
			"cache":       appCache.Stats(),
			"compression": compressionMiddleware.GetStats(),
			"rate_limit":  limiter.GetStats(),
			"database":    db.GetPoolStats(),
		})
	})

	r.POST("/assess", assessHandler(assessService, rewards, appMetrics, appLogger))
	r.POST("/assess/batch",
		limiter.EndpointRateLimitMiddleware("/assess/batch", limiterConfig.BatchLimitPerMin),
		batchHandler(assessService, appMetrics),
	)
	r.POST("/assess/route", routeHandler(assessService))

	r.GET("/drivers/:id/trend", trendHandler(assessService))
	r.GET("/drivers/:id/rewards", rewardsHandler(rewards))
	r.GET("/drivers/:id/privacy", privacyInfoHandler(privacyService))
	r.DELETE("/drivers/:id", deleteDriverHandler(privacyService))
	r.GET("/leaderboard", leaderboardHandler(rewards))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting server", "port", port, "version", serverVersion)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
	slog.Info("Server stopped")
}

// assessResponse wraps a result with the reward summary earned by it.
type assessResponse struct {
	*assessment.Result
	Rewards *gamification.RewardSummary `json:"rewards,omitempty"`
}

func assessHandler(svc *assessment.Service, rewards *gamification.Service,
	metrics *monitoring.Metrics, logger *monitoring.Logger) gin.HandlerFunc {

	return func(c *gin.Context) {
		var req types.AssessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewInvalidInputError("invalid request body", map[string]interface{}{
				"parse_error": err.Error(),
			}))
			return
		}

		start := time.Now()
		result, err := svc.Assess(req)
		if err != nil {
			c.Error(err)
			return
		}
		duration := time.Since(start)

		metrics.RecordAssessment(result.Premium.Tier, duration)
		logger.AssessmentLogger(
			privacy.AnonymizeDriverID(req.DriverID),
			result.Overall.FinalRiskScore,
			result.Overall.RiskCategory,
			result.Premium.Tier,
			result.Overall.Confidence,
			duration,
		)

		resp := assessResponse{Result: result}
		if req.DriverID != "" {
			summary, err := rewards.AwardForAssessment(req.DriverID, result)
			if err != nil {
				slog.Warn("Failed to award points", "error", err)
			} else {
				resp.Rewards = summary
			}
		}

		c.JSON(http.StatusOK, resp)
	}
}

func batchHandler(svc *assessment.Service, metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.BatchAssessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewInvalidInputError("invalid request body", map[string]interface{}{
				"parse_error": err.Error(),
			}))
			return
		}

		result, err := svc.AssessBatch(c.Request.Context(), req)
		if err != nil {
			c.Error(err)
			return
		}

		metrics.RecordBatchItems(result.Succeeded, result.Failed)
		c.JSON(http.StatusOK, result)
	}
}

func routeHandler(svc *assessment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.RouteAssessRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errors.NewInvalidInputError("invalid request body", map[string]interface{}{
				"parse_error": err.Error(),
			}))
			return
		}

		result, err := svc.AssessRoute(req)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func trendHandler(svc *assessment.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.Param("id")
		trend, err := svc.Trend(driverID)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, trend)
	}
}

func rewardsHandler(rewards *gamification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := rewards.Status(c.Param("id"))
		if err != nil {
			c.Error(errors.NewInternalError("failed to load driver rewards", err))
			return
		}
		c.JSON(http.StatusOK, status)
	}
}

func leaderboardHandler(rewards *gamification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 10
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				limit = n
			}
		}

		entries, err := rewards.Leaderboard(limit)
		if err != nil {
			c.Error(errors.NewInternalError("failed to load leaderboard", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"leaderboard": entries,
			"count":       len(entries),
		})
	}
}

func privacyInfoHandler(svc *privacy.PrivacyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverHash := privacy.AnonymizeDriverID(c.Param("id"))
		settings, err := svc.GetPrivacySettings(driverHash)
		if err != nil {
			c.Error(errors.NewInternalError("failed to load privacy settings", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"settings":  settings,
			"retention": svc.GetDataRetentionInfo(),
		})
	}
}

func deleteDriverHandler(svc *privacy.PrivacyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverHash := privacy.AnonymizeDriverID(c.Param("id"))
		if err := svc.DeleteDriverData(driverHash); err != nil {
			c.Error(errors.NewInternalError("failed to delete driver data", err))
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"deleted":     true,
			"driver_hash": driverHash,
		})
	}
}

func healthHandler(metrics *monitoring.Metrics, db *history.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		httpStatus := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   serverVersion,
			"metrics":   metrics.GetStats(),
		})
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
