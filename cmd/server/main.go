package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"model-trainer-service/internal/adapters/primary/http/handlers"
	"model-trainer-service/internal/adapters/primary/http/middleware"
	"model-trainer-service/internal/adapters/secondary/detector"
	"model-trainer-service/internal/adapters/secondary/localfs"
	"model-trainer-service/internal/adapters/secondary/memory"
	"model-trainer-service/internal/adapters/secondary/objectstore"
	"model-trainer-service/internal/adapters/secondary/postgres"
	"model-trainer-service/internal/adapters/secondary/registryfile"
	"model-trainer-service/internal/adapters/secondary/sources"
	"model-trainer-service/internal/adapters/secondary/trainer"
	"model-trainer-service/internal/config"
	ports "model-trainer-service/internal/core/ports/output"
	"model-trainer-service/internal/core/services"
	"model-trainer-service/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Create database pool only when a postgres-backed driver is selected
	var pool *pgxpool.Pool
	if cfg.Index.Driver == "postgres" || cfg.Registry.Driver == "postgres" {
		pool, err = pgxpool.New(context.Background(), cfg.Database.DSN())
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatalf("ping db: %v", err)
		}
		if err := postgres.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		log.Info("database connection established")
	}

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Artifact store
	var store ports.ArtifactStore
	switch cfg.Store.Driver {
	case "s3", "minio":
		store, err = objectstore.NewStore(cfg.Store)
		if err != nil {
			log.Fatalf("init object store: %v", err)
		}
		log.WithField("bucket", cfg.Store.Bucket).Info("object store initialized")
	default:
		store, err = localfs.NewStore(cfg.Store.Root)
		if err != nil {
			log.Fatalf("init local store: %v", err)
		}
		log.WithField("root", cfg.Store.Root).Info("local store initialized")
	}

	// Deduplication index; the same adapter serves the artifact queries
	var (
		index     ports.DeduplicationIndex
		artifacts ports.ArtifactRepository
	)
	if cfg.Index.Driver == "postgres" {
		repo := postgres.NewArtifactIndexRepository(pool)
		index, artifacts = repo, repo
	} else {
		mem := memory.NewIndex()
		n, err := mem.Rebuild(context.Background(), store)
		if err != nil {
			log.Fatalf("rebuild index: %v", err)
		}
		log.WithField("artifacts", n).Info("index rebuilt from store metadata")
		index, artifacts = mem, mem
	}

	// Model registry
	var registry ports.RegistryRepository
	if cfg.Registry.Driver == "postgres" {
		registry = postgres.NewRegistryRepository(pool)
	} else {
		registry, err = registryfile.NewRegistry(cfg.Registry.File)
		if err != nil {
			log.Fatalf("open registry file: %v", err)
		}
	}

	// Detector client (optional, enables auto-labeling)
	var detectorClient ports.DetectorClient
	if cfg.Detector.Enabled {
		detectorClient = detector.NewDetectorClient(cfg.Detector)
		log.Info("detector client initialized")
	} else {
		log.Info("auto-labeling disabled")
	}

	// Fetchers for the enabled sources
	var fetchers []ports.Fetcher
	if cfg.Sources.Unsplash.Enabled {
		fetchers = append(fetchers, sources.NewUnsplashFetcher(cfg.Sources.Unsplash, cfg.Ingestion))
	}
	if cfg.Sources.Pexels.Enabled {
		fetchers = append(fetchers, sources.NewPexelsFetcher(cfg.Sources.Pexels, cfg.Ingestion))
	}
	if cfg.Sources.Civitai.Enabled {
		fetchers = append(fetchers, sources.NewCivitaiFetcher(cfg.Sources.Civitai, cfg.Ingestion))
	}
	if cfg.Sources.Lexica.Enabled {
		fetchers = append(fetchers, sources.NewLexicaFetcher(cfg.Sources.Lexica, cfg.Ingestion))
	}
	if cfg.Sources.Reddit.Enabled {
		fetchers = append(fetchers, sources.NewRedditFetcher(cfg.Sources.Reddit, cfg.Ingestion))
	}
	if len(fetchers) == 0 {
		log.Warn("no sources enabled, ingestion runs will be rejected")
	}

	// Core Services (Application Layer)
	tracker := services.NewRunTracker()
	ingestionSvc := services.NewIngestionService(store, index, registry, detectorClient, fetchers, tracker, services.IngestionOptions{
		LimitPerSource:   cfg.Ingestion.LimitPerSource,
		FetchTimeout:     cfg.Ingestion.FetchTimeout,
		ReservationLease: cfg.Index.Lease,
		ModelName:        cfg.Training.ModelName,
		AccuracyTarget:   cfg.Training.AccuracyTarget,
	})
	trainingSvc := services.NewTrainingService(artifacts, registry, trainer.NewEvaluator(), tracker, services.TrainingOptions{
		DefaultModel: cfg.Training.ModelName,
		Threshold:    cfg.Training.Threshold,
		ValRatio:     cfg.Training.ValRatio,
		Seed:         cfg.Training.Seed,
	})
	datasetSvc := services.NewDatasetService(artifacts, store)
	modelSvc := services.NewModelService(registry)
	metricsSvc := services.NewMetricsService(artifacts, registry, cfg.Training.ModelName)

	// Primary Adapter (HTTP Handlers)
	h := handlers.New(ingestionSvc, trainingSvc, datasetSvc, modelSvc, metricsSvc, tracker, store)

	// Setup router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())

	api := router.Group("/api/v1")
	api.Use(middleware.APIKeyAuth(cfg.Server.APIKey))
	h.RegisterRoutes(api)

	router.GET("/healthz", h.Healthz)

	// Periodic runs
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(ingestionSvc, trainingSvc, scheduler.Options{
			IngestEvery: cfg.Scheduler.IngestEvery,
			TrainEvery:  cfg.Scheduler.TrainEvery,
			RunTimeout:  cfg.Scheduler.RunTimeout,
		})
		sched.Start()
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
