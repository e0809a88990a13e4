// Command genfixture generates a deterministic Socrata-style JSON fixture for
// the test suites. It uses the actual domain package to verify the output
// parses and reshapes the way the pipeline would.
//
// Usage:
//
//	go run ./cmd/genfixture -counties 5 -days 14 -out testdata/fixture.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/domain"
)

var countyNames = []string{
	"Albany", "Bronx", "Erie", "Kings", "Monroe",
	"Nassau", "Onondaga", "Queens", "Suffolk", "Westchester",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	counties := flag.Int("counties", 5, "number of counties to generate")
	days := flag.Int("days", 14, "number of consecutive dates")
	start := flag.String("start", "2021-01-01", "first date (YYYY-MM-DD)")
	out := flag.String("out", "", "output path for the fixture JSON")
	sparse := flag.Bool("sparse-first-day", true, "emit only one county on the first date")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *counties < 1 || *counties > len(countyNames) {
		return fmt.Errorf("-counties must be between 1 and %d", len(countyNames))
	}
	if *days < 2 {
		return fmt.Errorf("-days must be at least 2, one date cannot form a range")
	}

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}

	raws := generate(*counties, *days, startDate, *sparse)

	// Round-trip through the real parser so a fixture that would break the
	// pipeline never gets written.
	payload, err := json.Marshal(raws)
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	records, err := domain.ParseRecords(payload)
	if err != nil {
		return fmt.Errorf("fixture does not parse: %w", err)
	}
	if err := domain.ValidateMonotonic(records); err != nil {
		return fmt.Errorf("fixture is not monotonic: %w", err)
	}
	startBound, endBound, err := domain.DateBounds(records)
	if err != nil {
		return fmt.Errorf("fixture has no usable date range: %w", err)
	}

	if err := writeJSON(*out, raws); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}

	log.Printf("wrote %s: %d records, %d counties, effective range %s..%s",
		*out, len(records), *counties, startBound, endBound)
	return nil
}

// generate produces county-day rows with strictly increasing cumulatives.
// Values are a fixed function of county and day index so reruns are identical.
func generate(counties, days int, start time.Time, sparseFirstDay bool) []domain.RawRecord {
	var raws []domain.RawRecord
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day).Format("2006-01-02") + "T00:00:00.000"
		for c := 0; c < counties; c++ {
			if day == 0 && sparseFirstDay && c != 0 {
				continue
			}
			newPos := (c+1)*3 + day%5
			tests := (c + 1) * 40
			cumPos := (c+1)*3*(day+1) + 10
			cumTests := (c + 1) * 40 * (day + 1)

			raws = append(raws, domain.RawRecord{
				TestDate:            date,
				County:              countyNames[c],
				NewPositives:        strconv.Itoa(newPos),
				CumulativePositives: strconv.Itoa(cumPos),
				TotalTests:          strconv.Itoa(tests),
				CumulativeTests:     strconv.Itoa(cumTests),
			})
		}
	}
	return raws
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
