package domain

import (
	"fmt"
	"sort"
)

// County is one geography entry for the target state. Key is the canonical
// join key from CountyKey; FIPS and Name come from the geography source.
// The reshaper treats the county slice order as the single reference order
// for every positional metric array it emits.
type County struct {
	FIPS string
	Name string
	Key  string
}

// MetricSeries holds the four metric arrays for one date, each positionally
// aligned to the reference county order. JSON tags match the source field
// names so the generated page can key lookups by Metric.Field().
type MetricSeries struct {
	NewPositives        []int `json:"new_positives"`
	CumulativePositives []int `json:"cumulative_number_of_positives"`
	TotalTests          []int `json:"total_number_of_tests"`
	CumulativeTests     []int `json:"cumulative_number_of_tests"`
}

// ByMetric returns the array for one metric.
func (s *MetricSeries) ByMetric(m Metric) []int {
	switch m {
	case NewPositives:
		return s.NewPositives
	case CumulativePositives:
		return s.CumulativePositives
	case TotalTests:
		return s.TotalTests
	case CumulativeTests:
		return s.CumulativeTests
	default:
		return nil
	}
}

func (s *MetricSeries) appendRecord(rec Record) {
	s.NewPositives = append(s.NewPositives, rec.NewPositives)
	s.CumulativePositives = append(s.CumulativePositives, rec.CumulativePositives)
	s.TotalTests = append(s.TotalTests, rec.TotalTests)
	s.CumulativeTests = append(s.CumulativeTests, rec.CumulativeTests)
}

// Snapshot is the current-date view: county identity arrays plus the four
// metric arrays, all positionally aligned to the reference county order.
type Snapshot struct {
	Date         string   `json:"date"`
	Counties     []string `json:"counties"`
	FIPS         []string `json:"fips"`
	MetricSeries
}

// TimeSeriesIndex is the date-keyed lookup table behind instantaneous
// date/metric switching. Built once, read-only thereafter. Every entry's
// arrays share the reference county order, so swapping dates never reorders
// counties.
type TimeSeriesIndex struct {
	Dates  []string                 // ascending, effective start through end
	Series map[string]*MetricSeries // keyed by normalized "2006-01-02" date
}

// Lookup returns the series for an exact normalized date key.
func (idx *TimeSeriesIndex) Lookup(date string) (*MetricSeries, bool) {
	s, ok := idx.Series[date]
	return s, ok
}

// DateBounds determines the effective date range of a record set. The end is
// the latest distinct date; the start is the second-earliest, skipping the
// known-sparse first day of the upstream dataset. Fewer than two distinct
// dates is ErrInsufficientDates.
func DateBounds(records []Record) (start, end string, err error) {
	dates := distinctDates(records)
	if len(dates) < 2 {
		return "", "", fmt.Errorf("%d distinct dates in %d records: %w",
			len(dates), len(records), ErrInsufficientDates)
	}
	return dates[1], dates[len(dates)-1], nil
}

// BuildSnapshot assembles the snapshot for one date, one entry per geography
// county in reference order. A county with no record for the date is a
// MissingCountyDataError; misaligned arrays are never emitted.
func BuildSnapshot(records []Record, counties []County, date string) (*Snapshot, error) {
	byKey := make(map[string]Record)
	for _, rec := range records {
		if rec.TestDate == date {
			byKey[CountyKey(rec.County)] = rec
		}
	}

	snap := &Snapshot{
		Date:     date,
		Counties: make([]string, 0, len(counties)),
		FIPS:     make([]string, 0, len(counties)),
	}
	for _, c := range counties {
		rec, ok := byKey[c.Key]
		if !ok {
			return nil, &MissingCountyDataError{County: c.Name, Date: date}
		}
		snap.Counties = append(snap.Counties, c.Name)
		snap.FIPS = append(snap.FIPS, c.FIPS)
		snap.appendRecord(rec)
	}
	return snap, nil
}

// BuildTimeSeriesIndex groups records by date and emits one MetricSeries per
// distinct date within [start, end], every one in the reference county order.
// Dates before the effective start are dropped entirely; they are sparse and
// unreachable from the page's slider. A missing county on an in-range date
// is a MissingCountyDataError.
//
// Ordering by record appearance instead of the reference order would only
// match the snapshot by luck, so every date's arrays are built from the
// county slice directly.
func BuildTimeSeriesIndex(records []Record, counties []County, start, end string) (*TimeSeriesIndex, error) {
	byDate := make(map[string]map[string]Record)
	for _, rec := range records {
		if rec.TestDate < start || rec.TestDate > end {
			continue
		}
		m, ok := byDate[rec.TestDate]
		if !ok {
			m = make(map[string]Record)
			byDate[rec.TestDate] = m
		}
		m[CountyKey(rec.County)] = rec
	}

	idx := &TimeSeriesIndex{
		Dates:  make([]string, 0, len(byDate)),
		Series: make(map[string]*MetricSeries, len(byDate)),
	}
	for date := range byDate {
		idx.Dates = append(idx.Dates, date)
	}
	sort.Strings(idx.Dates)

	for _, date := range idx.Dates {
		byKey := byDate[date]
		series := &MetricSeries{}
		for _, c := range counties {
			rec, ok := byKey[c.Key]
			if !ok {
				return nil, &MissingCountyDataError{County: c.Name, Date: date}
			}
			series.appendRecord(rec)
		}
		idx.Series[date] = series
	}
	return idx, nil
}

// distinctDates returns the sorted distinct normalized dates in records.
func distinctDates(records []Record) []string {
	seen := make(map[string]struct{}, len(records))
	var dates []string
	for _, rec := range records {
		if _, ok := seen[rec.TestDate]; ok {
			continue
		}
		seen[rec.TestDate] = struct{}{}
		dates = append(dates, rec.TestDate)
	}
	sort.Strings(dates)
	return dates
}
