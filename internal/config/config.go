package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Nominatim geocoding configuration.
	NominatimBaseURL   string
	NominatimUserAgent string
	GeocoderTimeout    time.Duration
	GeocodeCacheSize   int

	// Bing Maps distance-matrix configuration.
	BingMapsKey   string
	TravelMode    string
	MatrixTimeout time.Duration

	// Kafka event publishing configuration.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaMatrixTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	matrixTimeout, err := parseDuration("MATRIX_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		NominatimBaseURL:   envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: envOrDefault("NOMINATIM_USER_AGENT", "routematrix/1.0"),
		GeocoderTimeout:    geocoderTimeout,
		GeocodeCacheSize:   cacheSize,

		BingMapsKey:   os.Getenv("BING_MAPS_KEY"),
		TravelMode:    envOrDefault("TRAVEL_MODE", "driving"),
		MatrixTimeout: matrixTimeout,

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaMatrixTopic: envOrDefault("KAFKA_MATRIX_TOPIC", "matrix-computed"),
	}

	if cfg.BingMapsKey == "" {
		return nil, errors.New("BING_MAPS_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaMatrixTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_MATRIX_TOPIC is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseCacheSize() (int, error) {
	s := os.Getenv("GEOCODE_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid GEOCODE_CACHE_SIZE")
	}
	return n, nil
}
