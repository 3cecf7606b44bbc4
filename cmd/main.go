package main

import (
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/stocksentry/stocksentry/internal/cache"
	"github.com/stocksentry/stocksentry/internal/config"
	"github.com/stocksentry/stocksentry/internal/database"
	"github.com/stocksentry/stocksentry/internal/handlers"
	"github.com/stocksentry/stocksentry/internal/routes"
	"github.com/stocksentry/stocksentry/internal/scheduler"
	"github.com/stocksentry/stocksentry/internal/services"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"github.com/stocksentry/stocksentry/upstream"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", *configFile).Msg("failed to load config")
	}
	logger.SetLevel(cfg.Logging.Level)

	// Initialize database
	if err := database.InitDatabase(cfg.Database.DSN); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to initialize database")
	}
	db := database.GetDB()

	// Set up the upstream API client stack
	sessions := upstream.NewSessionProvider(cfg.Upstream)
	client := upstream.NewClient(cfg.Upstream, sessions)

	// Set up services
	timeseries := services.NewTimeSeriesService(db)
	settings := services.NewSettingsService(db)

	ingest := services.NewIngestService(db, client, timeseries)
	ingest.SetWatchlist(cfg.Watchlist)

	alerts := services.NewAlertService(db)
	if cfg.Cache.Enabled {
		store, err := buildCache(cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("cache unavailable, continuing without it")
		} else {
			alerts.SetCache(store, cfg.Cache.TTL())
			defer store.Close()
		}
	}

	analysis := services.NewAnalysisService(db, timeseries, settings)
	analysis.SetAlertService(alerts)

	notify := services.NewNotifyService(db)
	notify.SetEndpoints(cfg.Endpoints)

	// Start the scheduler with every active schedule
	dispatcher := services.NewTaskDispatcher(ingest, analysis, notify)
	sched := scheduler.New(db, dispatcher)
	if err := sched.StartAll(); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Shutdown()

	// Set up Gin
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handlers.SetGlobalHandler(handlers.NewCoreHandler(db, ingest, analysis, alerts, timeseries, sched))
	routes.SetupRoutes(r)

	// Start server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Log.Info().Str("addr", addr).Msg("starting server")

	if err := r.Run(addr); err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to start server")
	}
}

// buildCache constructs the configured cache backend
func buildCache(cfg config.CacheConfig) (cache.Cache, error) {
	if cfg.Backend == "redis" {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return cache.NewMemoryCache(), nil
}
