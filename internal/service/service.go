// Package service wires the geocoder and the matrix cache behind one
// orchestration surface used by the HTTP adapter and the batch CLI.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/isossa/routematrix/internal/domain"
	"github.com/isossa/routematrix/internal/observability"
)

// MatrixPublisher announces completed matrix lookups to downstream
// consumers. A nil publisher disables publishing.
type MatrixPublisher interface {
	PublishMatrixComputed(ctx context.Context, event domain.MatrixComputed) error
}

// Service orchestrates address resolution and matrix lookups.
type Service struct {
	geocoder  domain.Geocoder
	matrix    *domain.MatrixCache
	publisher MatrixPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Service. Pass a nil publisher to disable event publishing.
func New(geocoder domain.Geocoder, matrix *domain.MatrixCache, publisher MatrixPublisher, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		geocoder:  geocoder,
		matrix:    matrix,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the service has completed at least one
// geocode or matrix operation.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no operations completed yet")
	}
	return nil
}

// ResolveAddresses resolves each address in turn and returns "<lat>, <lon>"
// coordinate strings in input order. The first failure aborts the batch.
func (s *Service) ResolveAddresses(ctx context.Context, addresses []*domain.Address) ([]string, error) {
	coordinates, err := domain.ResolveAll(ctx, s.geocoder, addresses)
	if err != nil {
		return nil, err
	}
	s.markReady()
	return coordinates, nil
}

// Matrix returns the pairwise matrix for the requested metric. An empty
// travel mode defaults to driving. Successful lookups are announced to the
// publisher; publish failures are logged, not returned, so a slow broker
// never degrades the lookup itself.
func (s *Service) Matrix(ctx context.Context, coordinates []string, metric domain.Metric, travelMode string) ([][]float64, error) {
	if travelMode == "" {
		travelMode = "driving"
	}

	_, savedBefore := s.matrix.Counters()
	result, err := s.matrix.GetMatrix(ctx, coordinates, metric, travelMode)
	if err != nil {
		return nil, err
	}
	_, savedAfter := s.matrix.Counters()

	s.markReady()

	if s.publisher != nil {
		event := domain.MatrixComputed{
			CoordinateCount: len(coordinates),
			Metric:          metric,
			TravelMode:      travelMode,
			FromCache:       savedAfter > savedBefore,
			ComputedAt:      time.Now().UTC(),
		}
		if err := s.publisher.PublishMatrixComputed(ctx, event); err != nil {
			s.logger.Warn("matrix event publish failed", "error", err)
		}
	}

	return result, nil
}

// Counters reports the matrix cache's attempt and reuse counts.
func (s *Service) Counters() (made, saved int) {
	return s.matrix.Counters()
}

func (s *Service) markReady() {
	if s.ready.CompareAndSwap(false, true) {
		s.metrics.ServiceReady.Set(1)
	}
}
