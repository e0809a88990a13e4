// Command validate performs integrity checks on cached input data before a
// generation run: record parseability, date range derivability, cumulative
// monotonicity, and county coverage against the boundary GeoJSON.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -records xdss-u53e.json \
//	  -geojson us-counties.geojson \
//	  -state-fips 36
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/covid-county-map/internal/domain"
)

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
	recordsPath := flag.String("records", "", "path to cached county testing records JSON")
	geojsonPath := flag.String("geojson", "", "path to cached national counties GeoJSON")
	stateFIPS := flag.String("state-fips", "36", "two-digit state FIPS code")
	flag.Parse()

	if *recordsPath == "" || *geojsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*recordsPath, *geojsonPath, *stateFIPS); code != 0 {
		os.Exit(code)
	}
}

func run(recordsPath, geojsonPath, stateFIPS string) int {
	fmt.Println("=== Covid Map Input Validation ===")
	fmt.Println()

	payload, err := os.ReadFile(recordsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read records: %v\n", err)
		return 1
	}
	geoPayload, err := os.ReadFile(geojsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read geojson: %v\n", err)
		return 1
	}

	parsePhase, records := validateParse(payload)
	datePhase, startDate, endDate := validateDateRange(records)
	phases := []*phase{
		parsePhase,
		datePhase,
		validateMonotonic(records),
		validateCoverage(records, geoPayload, stateFIPS, startDate, endDate),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d, date range: %s..%s\n", len(records), startDate, endDate)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Parse Integrity ──
// Every row must parse: counts numeric and non-negative, dates normalizable.

func validateParse(payload []byte) (*phase, []domain.Record) {
	p := &phase{name: "Phase 1: Parse Integrity"}

	records, err := domain.ParseRecords(payload)
	if err != nil {
		p.errorf("parse: %v", err)
		return p, nil
	}

	for i, r := range records {
		if r.County == "" {
			p.errorf("record %d: empty county", i)
		}
		if len(r.TestDate) != len("2006-01-02") || strings.Count(r.TestDate, "-") != 2 {
			p.errorf("record %d: date %q not normalized to YYYY-MM-DD", i, r.TestDate)
		}
	}
	return p, records
}

// ── Phase 2: Date Range ──
// A usable range needs at least two distinct dates; the effective start is
// the second one because the first day of reporting is typically sparse.

func validateDateRange(records []domain.Record) (*phase, string, string) {
	p := &phase{name: "Phase 2: Date Range"}
	if len(records) == 0 {
		p.errorf("no records to derive a range from")
		return p, "", ""
	}

	startDate, endDate, err := domain.DateBounds(records)
	if err != nil {
		p.errorf("derive bounds: %v", err)
		return p, "", ""
	}
	if startDate > endDate {
		p.errorf("effective start %s is after end %s", startDate, endDate)
	}
	return p, startDate, endDate
}

// ── Phase 3: Monotonic Cumulatives ──

func validateMonotonic(records []domain.Record) *phase {
	p := &phase{name: "Phase 3: Monotonic Cumulatives"}
	if err := domain.ValidateMonotonic(records); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			p.errorf("%s", line)
		}
	}
	return p
}

// ── Phase 4: County Coverage ──
// Every geography county must report on every date in the effective range,
// and every reporting county must match a geography feature.

func validateCoverage(records []domain.Record, geoPayload []byte, stateFIPS, startDate, endDate string) *phase {
	p := &phase{name: "Phase 4: County Coverage"}
	if startDate == "" || endDate == "" {
		p.errorf("skipped: no usable date range")
		return p
	}

	counties, err := stateCounties(geoPayload, stateFIPS)
	if err != nil {
		p.errorf("load geography: %v", err)
		return p
	}
	if len(counties) == 0 {
		p.errorf("no geography features for state FIPS %q", stateFIPS)
		return p
	}

	known := make(map[string]string, len(counties)) // key → display name
	for _, c := range counties {
		known[c.Key] = c.Name
	}

	reported := map[string]map[string]bool{} // date → county key → seen
	for _, r := range records {
		key := domain.CountyKey(r.County)
		if _, ok := known[key]; !ok {
			p.errorf("record county %q matches no geography feature", r.County)
			continue
		}
		if reported[r.TestDate] == nil {
			reported[r.TestDate] = map[string]bool{}
		}
		reported[r.TestDate][key] = true
	}

	for date, seen := range reported {
		if date < startDate || date > endDate {
			continue
		}
		for key, name := range known {
			if !seen[key] {
				p.errorf("%s: county %q has no record", date, name)
			}
		}
	}
	return p
}

// stateCounties extracts the identifying fields of one state's features.
func stateCounties(payload []byte, stateFIPS string) ([]domain.County, error) {
	var coll struct {
		Features []struct {
			ID         string `json:"id"`
			Properties struct {
				Name  string `json:"NAME"`
				State string `json:"STATE"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(payload, &coll); err != nil {
		return nil, err
	}

	var counties []domain.County
	for _, f := range coll.Features {
		inState := f.Properties.State == stateFIPS
		if f.Properties.State == "" {
			inState = strings.HasPrefix(f.ID, stateFIPS)
		}
		if !inState {
			continue
		}
		counties = append(counties, domain.County{
			FIPS: f.ID,
			Name: f.Properties.Name,
			Key:  domain.CountyKey(f.Properties.Name),
		})
	}
	return counties, nil
}
