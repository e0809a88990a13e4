// Package viewstate is the typed state machine behind the page's date and
// metric controls. Keeping the transition rule here, rather than only in
// generated browser script, makes it testable and independent of any
// rendering backend. The script block the renderer emits implements the
// same protocol.
package viewstate

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/domain"
	"github.com/jonboulle/clockwork"
)

// View is the externally visible state after a transition: the active date,
// the metric driving color and the table's second column, and all four
// metric arrays for the active date. The arrays are shared with the index
// and must be treated as read-only.
type View struct {
	Date   string
	Metric domain.Metric
	Series domain.MetricSeries
}

// Listener observes each committed transition. metricChanged reports whether
// the driving metric differs from the previous notification; rendering
// backends that cache color assignments by field name need that signal to
// force a repaint even though the arrays may be unchanged.
type Listener func(v View, metricChanged bool)

// Machine holds the mutable display state. Every mutation funnels through
// one internal apply step that replaces all four metric arrays from the
// index and then selects the driving metric, so a listener never observes a
// partially swapped state.
type Machine struct {
	index    *domain.TimeSeriesIndex
	dates    []string // ascending
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger

	mu       sync.Mutex
	date     string
	metric   domain.Metric
	series   *domain.MetricSeries
	listener Listener
	ticker   clockwork.Ticker
	playStop chan struct{} // non-nil while a play advancer is live
}

// New creates a Machine positioned at initialDate (clamped to the nearest
// valid date) with NewPositives driving. An index with no dates is a
// LookupError: there is nothing the machine could ever display.
func New(index *domain.TimeSeriesIndex, initialDate string, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) (*Machine, error) {
	if len(index.Dates) == 0 {
		return nil, &domain.LookupError{Date: initialDate}
	}

	m := &Machine{
		index:    index,
		dates:    index.Dates,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metric:   domain.NewPositives,
	}
	m.mu.Lock()
	m.applyLocked(m.clampDate(domain.TruncateDate(initialDate)), m.metric)
	m.mu.Unlock()
	return m, nil
}

// SetListener registers the single transition observer. The listener is
// invoked with the machine lock held and must not call back into the Machine.
func (m *Machine) SetListener(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = fn
}

// View returns the current state.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// SetActiveDate moves the machine to a date. The input is normalized to the
// calendar-date key format the index was built with; a lookup miss clamps to
// the nearest valid date rather than failing in front of the user.
func (m *Machine) SetActiveDate(date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	applied := m.clampDate(domain.TruncateDate(date))
	if applied != domain.TruncateDate(date) {
		m.logger.Warn("date not in index, clamped", "requested", date, "applied", applied)
	}
	m.applyLocked(applied, m.metric)
	return nil
}

// SetActiveMetric changes which metric drives color and the table column.
// The four underlying arrays are already current for the active date, so no
// index lookup happens; only the selection changes.
func (m *Machine) SetActiveMetric(metric domain.Metric) {
	if !metric.Valid() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyLocked(m.date, metric)
}

// StartPlay begins advancing the active date by one day per interval until
// the last date, then stops. Starting at the last date resets to the first
// date before advancing. Starting while already playing replaces the
// existing advancer; two can never run at once.
func (m *Machine) StartPlay() {
	m.mu.Lock()
	m.stopLocked()

	if m.date == m.dates[len(m.dates)-1] {
		m.applyLocked(m.dates[0], m.metric)
	}

	stop := make(chan struct{})
	m.playStop = stop
	m.ticker = m.clock.NewTicker(m.interval)
	ticker := m.ticker
	m.mu.Unlock()

	go m.playLoop(ticker, stop)
}

// StopPlay cancels the active advancer, if any.
func (m *Machine) StopPlay() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

// Playing reports whether an advancer is live.
func (m *Machine) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playStop != nil
}

func (m *Machine) playLoop(ticker clockwork.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
			if !m.advance(stop) {
				return
			}
		}
	}
}

// advance steps to the next date. Returns false when this advancer is no
// longer current or the last date has been reached.
func (m *Machine) advance(stop chan struct{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playStop != stop {
		return false // replaced by a newer StartPlay
	}

	i := sort.SearchStrings(m.dates, m.date)
	if i+1 >= len(m.dates) {
		m.stopLocked()
		return false
	}
	m.applyLocked(m.dates[i+1], m.metric)

	if m.date == m.dates[len(m.dates)-1] {
		m.stopLocked()
		return false
	}
	return true
}

func (m *Machine) stopLocked() {
	if m.playStop == nil {
		return
	}
	close(m.playStop)
	m.playStop = nil
	if m.ticker != nil {
		m.ticker.Stop()
		m.ticker = nil
	}
}

// applyLocked is the single mutation path: replace all four metric arrays
// for the date, then select the driving metric, then notify.
func (m *Machine) applyLocked(date string, metric domain.Metric) {
	series, ok := m.index.Lookup(date)
	if !ok {
		// clampDate guarantees membership; reaching here is a bug.
		m.logger.Error("date vanished from index", "date", date)
		return
	}

	metricChanged := metric != m.metric
	m.date = date
	m.series = series
	m.metric = metric

	if m.listener != nil {
		m.listener(m.viewLocked(), metricChanged)
	}
}

func (m *Machine) viewLocked() View {
	return View{Date: m.date, Metric: m.metric, Series: *m.series}
}

// clampDate returns date if the index holds it, otherwise the nearest valid
// date by calendar distance (lower neighbor on ties or unparseable input).
func (m *Machine) clampDate(date string) string {
	i := sort.SearchStrings(m.dates, date)
	if i < len(m.dates) && m.dates[i] == date {
		return date
	}
	if i == 0 {
		return m.dates[0]
	}
	if i == len(m.dates) {
		return m.dates[len(m.dates)-1]
	}

	lo, hi := m.dates[i-1], m.dates[i]
	want, err := time.Parse("2006-01-02", date)
	if err != nil {
		return lo
	}
	loT, errLo := time.Parse("2006-01-02", lo)
	hiT, errHi := time.Parse("2006-01-02", hi)
	if errLo != nil || errHi != nil {
		return lo
	}
	if hiT.Sub(want) < want.Sub(loT) {
		return hi
	}
	return lo
}
