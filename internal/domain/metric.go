package domain

// Metric identifies one of the four per-county measurements carried by every
// record. The zero value, NewPositives, is the page's initial driving metric.
type Metric int

const (
	NewPositives Metric = iota
	CumulativePositives
	TotalTests
	CumulativeTests
)

// Metrics lists all metrics in display order.
var Metrics = [4]Metric{NewPositives, CumulativePositives, TotalTests, CumulativeTests}

// Field returns the wire/source field name, used as the lookup key in the
// generated page's data objects.
func (m Metric) Field() string {
	switch m {
	case NewPositives:
		return "new_positives"
	case CumulativePositives:
		return "cumulative_number_of_positives"
	case TotalTests:
		return "total_number_of_tests"
	case CumulativeTests:
		return "cumulative_number_of_tests"
	default:
		return "unknown"
	}
}

// Label returns the human-readable name shown on widgets and table headers.
func (m Metric) Label() string {
	switch m {
	case NewPositives:
		return "New Positives"
	case CumulativePositives:
		return "Cumulative Number of Positives"
	case TotalTests:
		return "Total Number of Tests"
	case CumulativeTests:
		return "Cumulative Number of Tests"
	default:
		return "Unknown"
	}
}

func (m Metric) String() string { return m.Field() }

// Valid reports whether m is one of the four defined metrics.
func (m Metric) Valid() bool {
	return m >= NewPositives && m <= CumulativeTests
}
