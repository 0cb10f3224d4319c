package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/isossa/routematrix/internal/domain"
)

// MatrixService is the surface the HTTP handlers need from the service
// layer.
type MatrixService interface {
	CheckReadiness(ctx context.Context) error
	ResolveAddresses(ctx context.Context, addresses []*domain.Address) ([]string, error)
	Matrix(ctx context.Context, coordinates []string, metric domain.Metric, travelMode string) ([][]float64, error)
	Counters() (made, saved int)
}

// Server exposes the geocode and matrix endpoints plus health, readiness,
// and metrics routes.
type Server struct {
	httpServer *http.Server
	service    MatrixService
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, svc MatrixService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestID(logger, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		service: svc,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/geocode", s.handleGeocode)
	mux.HandleFunc("POST /v1/matrix", s.handleMatrix)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type addressPayload struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

type geocodeRequest struct {
	Addresses []addressPayload `json:"addresses"`
}

type geocodeResponse struct {
	Coordinates []string `json:"coordinates"`
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req geocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Addresses) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "addresses must not be empty")
		return
	}

	addresses := make([]*domain.Address, len(req.Addresses))
	for i, a := range req.Addresses {
		addresses[i] = domain.NewAddress(a.Street, a.City, a.State, a.Country, a.PostalCode)
	}

	coordinates, err := s.service.ResolveAddresses(r.Context(), addresses)
	if err != nil {
		if errors.Is(err, domain.ErrCoordinatesOutOfRange) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, geocodeResponse{Coordinates: coordinates})
}

type matrixRequest struct {
	Coordinates []string `json:"coordinates"`
	Metric      string   `json:"metric"`
	TravelMode  string   `json:"travel_mode"`
}

type matrixResponse struct {
	Matrix        [][]float64 `json:"matrix"`
	Degraded      bool        `json:"degraded"`
	RequestsMade  int         `json:"requests_made"`
	RequestsSaved int         `json:"requests_saved"`
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	var req matrixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Coordinates) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "coordinates must not be empty")
		return
	}

	matrix, err := s.service.Matrix(r.Context(), req.Coordinates, domain.Metric(req.Metric), req.TravelMode)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMetric) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	made, saved := s.service.Counters()
	if matrix == nil {
		matrix = [][]float64{}
	}
	writeJSON(w, http.StatusOK, matrixResponse{
		Matrix: matrix,
		// An empty matrix for a non-empty coordinate list means the
		// provider rejected the request and the lookup degraded.
		Degraded:      len(matrix) == 0,
		RequestsMade:  made,
		RequestsSaved: saved,
	})
}

// requestID tags every request with a UUID and logs its outcome.
func requestID(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("request handled",
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
