// Command validate performs integrity checks on the artifacts genmatrix
// produces: the JSON fixture and the matrix workbook. It verifies matrix
// shape, value sanity, coordinate bounds, and cross-artifact consistency.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixture data/mock/depot_matrix.json \
//	  -workbook data/depot_matrix.xlsx
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"

	"github.com/isossa/routematrix/internal/domain"
)

const valueEpsilon = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixturePath := flag.String("fixture", "", "JSON fixture produced by genmatrix")
	workbookPath := flag.String("workbook", "", "matrix workbook produced by genmatrix")
	flag.Parse()

	if *fixturePath == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "missing required flag: -fixture")
		os.Exit(2)
	}

	data, err := os.ReadFile(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read fixture: %v\n", err)
		os.Exit(2)
	}

	phases := []*phase{validateFixture(data)}
	if *workbookPath != "" {
		phases = append(phases, validateWorkbook(*workbookPath, data))
	}

	failed := false
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed = true
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// validateFixture checks the fixture's shape and value sanity.
func validateFixture(data []byte) *phase {
	p := &phase{name: "fixture integrity"}

	if !gjson.ValidBytes(data) {
		p.errorf("fixture is not valid JSON")
		return p
	}

	coordinates := gjson.GetBytes(data, "coordinates").Array()
	n := len(coordinates)
	if n == 0 {
		p.errorf("coordinates is empty")
	}
	for i, c := range coordinates {
		if err := checkCoordinate(c.String()); err != nil {
			p.errorf("coordinates[%d]: %v", i, err)
		}
	}

	if metric := domain.Metric(gjson.GetBytes(data, "metric").String()); !metric.Valid() {
		p.errorf("unrecognized metric %q", metric)
	}

	matrix := gjson.GetBytes(data, "matrix").Array()
	if len(matrix) != n {
		p.errorf("matrix has %d rows, want %d", len(matrix), n)
		return p
	}
	for i, row := range matrix {
		values := row.Array()
		if len(values) != n {
			p.errorf("row %d has %d values, want %d", i, len(values), n)
			continue
		}
		for j, v := range values {
			if v.Float() < 0 {
				p.errorf("matrix[%d][%d] is negative: %g", i, j, v.Float())
			}
		}
		if diag := values[i].Float(); math.Abs(diag) > valueEpsilon {
			p.errorf("matrix[%d][%d] diagonal is %g, want 0", i, i, diag)
		}
	}

	return p
}

// checkCoordinate parses a "<lat>, <lon>" string and bounds-checks both parts.
func checkCoordinate(s string) error {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed coordinate %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return fmt.Errorf("latitude in %q: %w", s, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return fmt.Errorf("longitude in %q: %w", s, err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinate %q out of range", s)
	}
	return nil
}

// validateWorkbook checks that the Matrix sheet agrees with the fixture.
func validateWorkbook(path string, fixtureData []byte) *phase {
	p := &phase{name: "workbook consistency"}

	f, err := excelize.OpenFile(path)
	if err != nil {
		p.errorf("open workbook: %v", err)
		return p
	}
	defer f.Close()

	rows, err := f.GetRows("Matrix")
	if err != nil {
		p.errorf("read Matrix sheet: %v", err)
		return p
	}

	matrix := gjson.GetBytes(fixtureData, "matrix").Array()
	n := len(matrix)
	if len(rows) != n+1 {
		p.errorf("workbook has %d rows, want %d (header + %d data rows)", len(rows), n+1, n)
		return p
	}

	for i, row := range matrix {
		cells := rows[i+1]
		values := row.Array()
		if len(cells) != len(values)+1 {
			p.errorf("workbook row %d has %d cells, want %d", i+2, len(cells), len(values)+1)
			continue
		}
		for j, v := range values {
			got, err := strconv.ParseFloat(cells[j+1], 64)
			if err != nil {
				p.errorf("workbook cell (%d,%d): %v", i+2, j+2, err)
				continue
			}
			if math.Abs(got-v.Float()) > valueEpsilon {
				p.errorf("workbook cell (%d,%d) is %g, fixture has %g", i+2, j+2, got, v.Float())
			}
		}
	}

	return p
}
