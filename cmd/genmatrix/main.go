// Command genmatrix resolves a spreadsheet of addresses and generates a
// travel matrix workbook, plus an optional JSON fixture for test suites.
// It uses the actual service packages so fixture output matches real
// service behavior.
//
// Usage:
//
//	go run ./cmd/genmatrix \
//	  -in data/depots.xlsx \
//	  -out data/depot_matrix.xlsx \
//	  -json-out data/mock/depot_matrix.json \
//	  -metric travelDuration
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/xuri/excelize/v2"

	"github.com/isossa/routematrix/internal/adapter/bingmaps"
	"github.com/isossa/routematrix/internal/adapter/nominatim"
	"github.com/isossa/routematrix/internal/config"
	"github.com/isossa/routematrix/internal/domain"
	"github.com/isossa/routematrix/internal/observability"
)

// fixture is the JSON shape consumed by downstream test suites.
type fixture struct {
	Coordinates []string    `json:"coordinates"`
	Metric      string      `json:"metric"`
	TravelMode  string      `json:"travel_mode"`
	Matrix      [][]float64 `json:"matrix"`
	GeneratedAt time.Time   `json:"generated_at"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "input workbook with an address sheet")
	sheet := flag.String("sheet", "Addresses", "name of the address sheet")
	out := flag.String("out", "", "output workbook for the travel matrix")
	jsonOut := flag.String("json-out", "", "optional output path for a JSON fixture")
	metricFlag := flag.String("metric", string(domain.MetricTravelDistance), "travelDistance or travelDuration")
	travelMode := flag.String("travel-mode", "driving", "travel mode passed to the matrix provider")
	frozenTime := flag.String("frozen-time", "", "RFC3339 timestamp to pin resolution times for reproducible fixtures")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	metric := domain.Metric(*metricFlag)
	if !metric.Valid() {
		return domain.ErrUnknownMetric
	}

	if *frozenTime != "" {
		at, err := time.Parse(time.RFC3339, *frozenTime)
		if err != nil {
			return fmt.Errorf("parse -frozen-time: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(at))
		defer domain.SetClock(nil)
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, "text")
	metrics := observability.NewMetrics()

	addresses, err := readAddresses(*in, *sheet)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *in, err)
	}
	log.Printf("loaded %d addresses", len(addresses))

	geocoder := nominatim.NewClient(cfg.NominatimBaseURL, cfg.GeocoderTimeout, cfg.NominatimUserAgent, logger, metrics)
	requester := bingmaps.NewClient("", cfg.BingMapsKey, cfg.MatrixTimeout, logger, metrics)
	cache := domain.NewMatrixCache(requester, logger, metrics)

	ctx := context.Background()
	coordinates, err := domain.ResolveAll(ctx, geocoder, addresses)
	if err != nil {
		return fmt.Errorf("resolving addresses: %w", err)
	}

	matrix, err := cache.GetMatrix(ctx, coordinates, metric, *travelMode)
	if err != nil {
		return fmt.Errorf("fetching matrix: %w", err)
	}
	if len(matrix) == 0 {
		return fmt.Errorf("matrix provider rejected the request")
	}

	if err := writeMatrix(*out, addresses, matrix); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	log.Printf("wrote matrix workbook: %s", *out)

	if *jsonOut != "" {
		f := fixture{
			Coordinates: coordinates,
			Metric:      string(metric),
			TravelMode:  *travelMode,
			Matrix:      matrix,
			GeneratedAt: time.Now().UTC(),
		}
		if err := writeJSON(*jsonOut, f); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote JSON fixture: %s", *jsonOut)
	}

	made, saved := cache.Counters()
	log.Printf("matrix requests: made=%d saved=%d", made, saved)
	return nil
}

// readAddresses loads one address per data row. The header row names the
// columns; Street, City, State, Country, and PostalCode are recognized.
func readAddresses(path, sheet string) ([]*domain.Address, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows in sheet %q", sheet)
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}

	addresses := make([]*domain.Address, 0, len(rows)-1)
	for _, row := range rows[1:] {
		addr := domain.NewAddress(
			get(row, colIdx, "Street"),
			get(row, colIdx, "City"),
			get(row, colIdx, "State"),
			get(row, colIdx, "Country"),
			get(row, colIdx, "PostalCode"),
		)
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// writeMatrix streams the matrix into a Matrix sheet with address labels on
// both axes.
func writeMatrix(path string, addresses []*domain.Address, matrix [][]float64) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Matrix"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	header := make([]any, len(addresses)+1)
	header[0] = ""
	for i, a := range addresses {
		header[i+1] = a.String()
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range matrix {
		cells := make([]any, len(row)+1)
		cells[0] = addresses[i].String()
		for j, v := range row {
			cells[j+1] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}

	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
