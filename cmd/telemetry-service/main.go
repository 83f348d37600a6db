package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/veritrack/platform/pkg/alerts"
	"github.com/veritrack/platform/pkg/common/config"
	"github.com/veritrack/platform/pkg/common/database"
	"github.com/veritrack/platform/pkg/common/kafka"
	"github.com/veritrack/platform/pkg/common/logger"
	"github.com/veritrack/platform/pkg/gateway/auth"
	"github.com/veritrack/platform/pkg/gateway/middleware"
	"github.com/veritrack/platform/pkg/geofence"
	"github.com/veritrack/platform/pkg/ingestion"
	"github.com/veritrack/platform/pkg/observability/metrics"
	"github.com/veritrack/platform/pkg/registry"
	"github.com/veritrack/platform/pkg/threshold"
)

func main() {
	logger.Init()
	cfg := config.Load()

	if cfg.IngestSharedSecret == "" {
		logger.Log.Fatal("INGEST_SHARED_SECRET must be configured")
	}

	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}

	deviceRepo := registry.NewRepository(db)
	readingRepo := ingestion.NewRepository(db)
	fenceRepo := geofence.NewRepository(db)
	thresholdRepo := threshold.NewRepository(db)
	alertRepo := alerts.NewRepository(db)

	for _, m := range []func() error{
		deviceRepo.AutoMigrate,
		readingRepo.AutoMigrate,
		fenceRepo.AutoMigrate,
		thresholdRepo.AutoMigrate,
		alertRepo.Migrate,
	} {
		if err := m(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate telemetry tables")
		}
	}

	bounds, err := threshold.LoadBounds(cfg.ThresholdConfigPath)
	if err != nil {
		logger.Log.WithError(err).Warn("falling back to built-in threshold defaults")
	}
	seedCtx, seedCancel := context.WithTimeout(context.Background(), cfg.StorageTimeout)
	if err := thresholdRepo.SeedDefaults(seedCtx, bounds); err != nil {
		logger.Log.WithError(err).Fatal("failed to seed threshold defaults")
	}
	seedCancel()

	var producer *kafka.Producer
	if cfg.AlertEventTopic != "" {
		producer = kafka.NewProducer(cfg.AlertEventTopic)
		defer producer.Close()
	}

	alertSvc := newAlertService(alertRepo, producer)

	var deviceCache registry.KV
	var locker ingestion.SubjectLocker = ingestion.NewMutexLocker()
	redisClient := database.GetRedis()
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Log.WithError(err).Warn("redis unavailable, using in-process evaluation locks")
	} else {
		deviceCache = registry.NewRedisKV(redisClient)
		locker = ingestion.NewRedisLocker(redisClient, cfg.EvalLockTTL, cfg.EvalLockWait)
	}
	pingCancel()

	deviceSvc := registry.NewService(deviceRepo, deviceCache, cfg.DeviceCacheTTL)
	fenceEval := geofence.NewEvaluator(fenceRepo, readingRepo, alertSvc)
	thresholdEval := threshold.NewEvaluator(thresholdRepo, alertSvc)

	ingestSvc := ingestion.NewService(
		cfg.IngestSharedSecret,
		ingestion.NewValidator(),
		deviceSvc,
		readingRepo,
		fenceEval,
		thresholdEval,
		locker,
		cfg.StorageTimeout,
	)

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.CORS)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/metrics", metrics.Handler).Methods(http.MethodGet)

	ingestAPI := router.PathPrefix("/api/v1").Subrouter()
	ingestAPI.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst), middleware.BodyLimit(cfg.MaxRequestBody))
	ingestion.NewHTTPHandler(ingestSvc).Register(ingestAPI)

	staffAPI := router.PathPrefix("/api/v1").Subrouter()
	if oidcAuth, err := auth.NewOIDCAuthenticator(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCClientSecret); err == nil {
		staffAPI.Use(middleware.Authenticate(oidcAuth))
	} else {
		logger.Log.WithError(err).Warn("staff API running without OIDC authentication")
	}
	alerts.NewHTTPHandler(alertSvc).Register(staffAPI)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Telemetry Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Telemetry Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	if err := database.ClosePostgres(); err != nil {
		logger.Log.WithError(err).Warn("failed to close postgres")
	}
	if err := database.CloseRedis(); err != nil {
		logger.Log.WithError(err).Warn("failed to close redis")
	}

	logger.Log.Info("Telemetry Service stopped")
}

func newAlertService(repo *alerts.Repository, producer *kafka.Producer) *alerts.Service {
	if producer == nil {
		return alerts.NewService(repo, nil)
	}
	return alerts.NewService(repo, producer)
}
