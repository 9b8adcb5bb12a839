package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/pfas-dashboard-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/pfas-dashboard-service/internal/adapter/kafka"
	"github.com/couchcryptid/pfas-dashboard-service/internal/adapter/mapbox"
	"github.com/couchcryptid/pfas-dashboard-service/internal/config"
	"github.com/couchcryptid/pfas-dashboard-service/internal/dataset"
	"github.com/couchcryptid/pfas-dashboard-service/internal/domain"
	"github.com/couchcryptid/pfas-dashboard-service/internal/observability"
	"github.com/couchcryptid/pfas-dashboard-service/internal/pipeline"
	"github.com/couchcryptid/pfas-dashboard-service/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	units := domain.DefaultUnitTable()
	if cfg.UnitTablePath != "" {
		if units, err = domain.LoadUnitTable(cfg.UnitTablePath); err != nil {
			logger.Error("failed to load unit table", "path", cfg.UnitTablePath, "error", err)
			os.Exit(1)
		}
	}

	priority := domain.DefaultPriority()
	if cfg.PriorityPath != "" {
		if priority, err = domain.LoadPriority(cfg.PriorityPath); err != nil {
			logger.Error("failed to load priority list", "path", cfg.PriorityPath, "error", err)
			os.Exit(1)
		}
	}
	ranking := domain.NewRanking(priority)

	store := dataset.NewStore(cfg.DatasetPath, logger)
	store.OnReplace(func(_, next *dataset.Snapshot) {
		metrics.DatasetRows.Set(float64(len(next.Measurements)))
		metrics.SnapshotRevision.Set(float64(next.Revision))
		// Revision zero marks a fresh file load; appended snapshots inherit
		// the file's coercion stats and must not recount them.
		if next.Revision == 0 {
			for field, n := range next.Stats.CoercionFailures {
				metrics.CoercionFailures.WithLabelValues(field).Add(float64(n))
			}
			metrics.CoordinateRescales.Add(float64(next.Stats.RescaledCoordinates))
			metrics.CoordinateDrops.Add(float64(next.Stats.DroppedCoordinates))
		}
	})

	sched := scheduler.New(store, cfg.RefreshInterval, metrics, logger)
	if err := sched.Reload(); err != nil {
		// The service starts unready; a later refresh or stream append can
		// still bring the dataset up.
		logger.Error("initial dataset load failed", "path", cfg.DatasetPath, "error", err)
	}
	if err := sched.Start(); err != nil {
		logger.Error("failed to start dataset refresh", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, units, ranking, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Kafka ingest is optional; without brokers the service serves the file
	// dataset alone.
	var reader *kafkaadapter.Reader
	var dlq *kafkaadapter.DeadLetterWriter
	if cfg.KafkaEnabled {
		// Geocoding only serves stream enrichment (feature-flagged via
		// MAPBOX_ENABLED / MAPBOX_TOKEN).
		var geocoder domain.Geocoder
		if cfg.MapboxEnabled {
			client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
			geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
			metrics.GeocodeEnabled.Set(1)
			logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
		} else {
			logger.Info("mapbox geocoding disabled")
		}

		reader = kafkaadapter.NewReader(cfg, logger)
		dlq = kafkaadapter.NewDeadLetterWriter(cfg, logger)
		transformer := pipeline.NewTransformer(geocoder, logger)
		p := pipeline.New(reader, transformer, pipeline.NewStoreAppender(store), dlq, logger, metrics, cfg.BatchSize)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("kafka ingest disabled, running file-only")
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if dlq != nil {
		if err := dlq.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
