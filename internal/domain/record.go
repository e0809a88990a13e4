package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawRecord is the Socrata wire shape for one county-day observation.
// Socrata encodes every field as a string, counts included.
type RawRecord struct {
	TestDate            string `json:"test_date"`
	County              string `json:"county"`
	NewPositives        string `json:"new_positives"`
	CumulativePositives string `json:"cumulative_number_of_positives"`
	TotalTests          string `json:"total_number_of_tests"`
	CumulativeTests     string `json:"cumulative_number_of_tests"`
}

// Record is one parsed county-day observation. TestDate is normalized to a
// plain "2006-01-02" string and the counts are non-negative integers.
type Record struct {
	County              string
	TestDate            string
	NewPositives        int
	CumulativePositives int
	TotalTests          int
	CumulativeTests     int
}

// ParseRecords decodes a raw Socrata payload into Records. Any decode or
// field failure aborts the whole parse with an IngestionError; the source is
// trusted to be well-formed or not used at all.
func ParseRecords(payload []byte) ([]Record, error) {
	var raws []RawRecord
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, &IngestionError{Source: "records", Err: fmt.Errorf("decode payload: %w", err)}
	}

	records := make([]Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := parseRecord(raw)
		if err != nil {
			return nil, &IngestionError{Source: "records", Err: fmt.Errorf("record %d: %w", i, err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(raw RawRecord) (Record, error) {
	if raw.County == "" {
		return Record{}, fmt.Errorf("empty county")
	}
	date := TruncateDate(raw.TestDate)
	if date == "" {
		return Record{}, fmt.Errorf("county %q: empty test_date", raw.County)
	}

	rec := Record{County: raw.County, TestDate: date}

	fields := []struct {
		name  string
		value string
		dst   *int
	}{
		{"new_positives", raw.NewPositives, &rec.NewPositives},
		{"cumulative_number_of_positives", raw.CumulativePositives, &rec.CumulativePositives},
		{"total_number_of_tests", raw.TotalTests, &rec.TotalTests},
		{"cumulative_number_of_tests", raw.CumulativeTests, &rec.CumulativeTests},
	}
	for _, f := range fields {
		n, err := parseCount(f.value)
		if err != nil {
			return Record{}, fmt.Errorf("county %q date %s: %s: %w", raw.County, date, f.name, err)
		}
		*f.dst = n
	}
	return rec, nil
}

// parseCount parses a Socrata count string as a non-negative integer.
// Empty strings count as zero (unreported).
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

// TruncateDate reduces an ISO-8601 timestamp to its calendar date,
// e.g. "2021-01-02T00:00:00.000" -> "2021-01-02". Plain dates pass through.
func TruncateDate(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	return s
}

// CountyKey normalizes a county name into the canonical join key shared by
// record and geography data: lowercased, trimmed, with a trailing "county"
// and all punctuation removed. "St. Lawrence" and "St Lawrence County" both
// map to "st lawrence".
func CountyKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSuffix(key, " county")
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
