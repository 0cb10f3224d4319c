package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/isossa/routematrix/internal/adapter/bingmaps"
	httpadapter "github.com/isossa/routematrix/internal/adapter/http"
	kafkaadapter "github.com/isossa/routematrix/internal/adapter/kafka"
	"github.com/isossa/routematrix/internal/adapter/nominatim"
	"github.com/isossa/routematrix/internal/config"
	"github.com/isossa/routematrix/internal/domain"
	"github.com/isossa/routematrix/internal/observability"
	"github.com/isossa/routematrix/internal/service"
)

func main() {
	// Local development convenience; the file is absent in deployment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var geocoder domain.Geocoder = nominatim.NewClient(
		cfg.NominatimBaseURL, cfg.GeocoderTimeout, cfg.NominatimUserAgent, logger, metrics,
	)
	geocoder = nominatim.NewCachedGeocoder(geocoder, cfg.GeocodeCacheSize, metrics)
	logger.Info("geocoder configured", "base_url", cfg.NominatimBaseURL, "cache_size", cfg.GeocodeCacheSize)

	requester := bingmaps.NewClient("", cfg.BingMapsKey, cfg.MatrixTimeout, logger, metrics)
	matrixCache := domain.NewMatrixCache(requester, logger, metrics)

	// Event publishing is feature-flagged via KAFKA_ENABLED.
	var publisher service.MatrixPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaMatrixTopic, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaMatrixTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	svc := service.New(geocoder, matrixCache, publisher, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
