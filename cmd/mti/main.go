package main

import (
	"context"
	"time"

	"github.com/wnusair/miami-MTI/internal/cache"
	"github.com/wnusair/miami-MTI/internal/classify"
	"github.com/wnusair/miami-MTI/internal/handlers"
	"github.com/wnusair/miami-MTI/internal/hub"
	appmetrics "github.com/wnusair/miami-MTI/internal/metrics"
	"github.com/wnusair/miami-MTI/internal/permissions"
	"github.com/wnusair/miami-MTI/internal/store"
	"github.com/wnusair/miami-MTI/pkg/auth"
	"github.com/wnusair/miami-MTI/pkg/config"
	"github.com/wnusair/miami-MTI/pkg/database"
	"github.com/wnusair/miami-MTI/pkg/logging"
	"github.com/wnusair/miami-MTI/pkg/monitoring"
	"github.com/wnusair/miami-MTI/pkg/server"
	"github.com/wnusair/miami-MTI/pkg/version"
)

const serviceName = "mti"

func main() {
	logger := logging.NewLoggerWithService(serviceName)
	config.LoadEnv(logger)
	logger.SetLevel(config.GetLogLevel())

	info := version.GetInfo()
	logger.WithFields(logging.Fields{
		"version": info.Version,
		"commit":  version.GetShortCommit(),
	}).Info("Starting telemetry dashboard")

	jwtSecret := []byte(config.RequireEnv("SECRET_KEY"))

	dbCfg := database.DefaultConfig()
	dbCfg.URL = config.RequireEnv("DATABASE_URL")
	dbCfg.MaxOpenConns = config.GetEnvInt("DB_MAX_OPEN_CONNS", dbCfg.MaxOpenConns)
	dbCfg.MaxIdleConns = config.GetEnvInt("DB_MAX_IDLE_CONNS", dbCfg.MaxIdleConns)
	db := database.MustConnect(dbCfg, logger)
	defer db.Close()

	bootCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Migrate(bootCtx, db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}
	seedAdmin(bootCtx, db, logger)

	var readingCache *cache.ReadingCache
	if addr := config.GetEnv("REDIS_ADDR", ""); addr != "" {
		readingCache = cache.New(addr, config.GetEnv("REDIS_PASSWORD", ""), config.GetEnvInt("REDIS_DB", 0), logger)
		if err := readingCache.Ping(bootCtx); err != nil {
			logger.WithError(err).Warn("Redis unreachable, running without cache")
			readingCache = nil
		} else {
			defer readingCache.Close()
			logger.WithField("addr", addr).Info("Latest-reading cache enabled")
		}
	}

	healthChecker := monitoring.NewHealthChecker(serviceName, info.Version)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("configuration", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbCfg.URL,
		"SECRET_KEY":   string(jwtSecret),
	}))
	if readingCache != nil {
		healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(readingCache.Client()))
	}

	metricsCollector := monitoring.NewMetricsCollector(serviceName, info.Version, info.GitCommit)
	serviceMetrics := appmetrics.New(metricsCollector)

	readingStore := store.NewReadingStore(db, logger)
	userStore := store.NewUserStore(db, logger)
	gate := permissions.NewGate(userStore, logger)
	broadcastHub := hub.NewHub(logger, serviceMetrics)

	h := handlers.New(handlers.Config{
		Logger:     logger,
		Readings:   readingStore,
		Users:      userStore,
		Gate:       gate,
		Classifier: classify.NewThresholdClassifier(nil),
		Hub:        broadcastHub,
		Cache:      readingCache,
		Metrics:    serviceMetrics,
		JWTSecret:  jwtSecret,
	})

	router := server.SetupServiceRouter(logger, serviceName, healthChecker, metricsCollector)
	h.RegisterRoutes(router)

	if err := server.Start(server.DefaultConfig(serviceName, "18035"), router, logger); err != nil {
		logger.WithError(err).Fatal("Server exited with error")
	}
}

// seedAdmin creates the bootstrap Manager account when credentials are
// configured. An existing username is left alone.
func seedAdmin(ctx context.Context, db database.PostgresConn, logger logging.Logger) {
	username := config.GetEnv("ADMIN_USERNAME", "")
	password := config.GetEnv("ADMIN_PASSWORD", "")
	if username == "" || password == "" {
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.WithError(err).Fatal("Failed to hash admin password")
	}
	if err := store.SeedAdmin(ctx, db, username, hash, logger); err != nil {
		logger.WithError(err).Fatal("Failed to seed admin account")
	}
}
