package domain

import (
	"errors"
	"fmt"
	"sort"
)

// ValidateMonotonic checks that per-county cumulative metrics never decrease
// across ascending dates. Well-formed upstream data always satisfies this;
// the check exists for strict mode and the validate tool, so a bad fixture
// or a broken upstream export is flagged instead of silently accepted.
// All violations are reported, joined into one error.
func ValidateMonotonic(records []Record) error {
	byCounty := make(map[string][]Record)
	for _, rec := range records {
		key := CountyKey(rec.County)
		byCounty[key] = append(byCounty[key], rec)
	}

	keys := make([]string, 0, len(byCounty))
	for key := range byCounty {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		recs := byCounty[key]
		sort.Slice(recs, func(i, j int) bool { return recs[i].TestDate < recs[j].TestDate })
		for i := 1; i < len(recs); i++ {
			prev, cur := recs[i-1], recs[i]
			if cur.CumulativePositives < prev.CumulativePositives {
				errs = append(errs, fmt.Errorf(
					"county %q: cumulative positives decreased %d -> %d between %s and %s",
					cur.County, prev.CumulativePositives, cur.CumulativePositives, prev.TestDate, cur.TestDate))
			}
			if cur.CumulativeTests < prev.CumulativeTests {
				errs = append(errs, fmt.Errorf(
					"county %q: cumulative tests decreased %d -> %d between %s and %s",
					cur.County, prev.CumulativeTests, cur.CumulativeTests, prev.TestDate, cur.TestDate))
			}
		}
	}
	return errors.Join(errs...)
}
