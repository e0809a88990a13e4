// Package render produces the final self-contained HTML page: the filtered
// geography, the snapshot, and the full time series index are embedded
// inline, and a script block drives the map, table, and widgets with the
// same state-swap protocol the viewstate package defines. The page has no
// runtime dependency beyond the Plotly rendering library.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/covid-county-map/internal/domain"
)

//go:embed assets/page.html.tmpl assets/description.html
var assets embed.FS

// MetricInfo is one selectable metric as the page script sees it.
type MetricInfo struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

// PageData is everything the template needs to emit one page.
type PageData struct {
	Title       string
	Description template.HTML // header fragment, injected verbatim
	StateName   string
	GeneratedAt string

	StartDate string
	EndDate   string

	// Pre-marshalled JSON blobs injected into the script block.
	GeoJSON  template.JS
	Snapshot template.JS
	Index    template.JS
	Dates    template.JS
	Metrics  template.JS

	PlayIntervalMS int
}

// Renderer executes the embedded page template.
type Renderer struct {
	tmpl   *template.Template
	logger *slog.Logger
}

// NewRenderer parses the embedded template.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(assets, "assets/page.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl, logger: logger}, nil
}

// BuildPageData marshals the reshaped projections into template inputs.
func BuildPageData(
	title, stateName string,
	description template.HTML,
	snapshot *domain.Snapshot,
	index *domain.TimeSeriesIndex,
	featureCollection []byte,
	startDate, endDate string,
	playInterval time.Duration,
	generatedAt time.Time,
) (PageData, error) {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return PageData{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	indexJSON, err := json.Marshal(index.Series)
	if err != nil {
		return PageData{}, fmt.Errorf("marshal time series index: %w", err)
	}
	datesJSON, err := json.Marshal(index.Dates)
	if err != nil {
		return PageData{}, fmt.Errorf("marshal dates: %w", err)
	}

	metrics := make([]MetricInfo, 0, len(domain.Metrics))
	for _, m := range domain.Metrics {
		metrics = append(metrics, MetricInfo{Field: m.Field(), Label: m.Label()})
	}
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return PageData{}, fmt.Errorf("marshal metrics: %w", err)
	}

	return PageData{
		Title:          title,
		Description:    description,
		StateName:      stateName,
		GeneratedAt:    generatedAt.UTC().Format(time.RFC3339),
		StartDate:      startDate,
		EndDate:        endDate,
		GeoJSON:        template.JS(featureCollection),
		Snapshot:       template.JS(snapJSON),
		Index:          template.JS(indexJSON),
		Dates:          template.JS(datesJSON),
		Metrics:        template.JS(metricsJSON),
		PlayIntervalMS: int(playInterval.Milliseconds()),
	}, nil
}

// LoadDescription returns the header fragment: the file contents when a path
// is configured, otherwise the embedded default. The fragment is trusted and
// injected verbatim.
func LoadDescription(path string) (template.HTML, error) {
	if path == "" {
		data, err := assets.ReadFile("assets/description.html")
		if err != nil {
			return "", fmt.Errorf("read embedded description: %w", err)
		}
		return template.HTML(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read description file: %w", err)
	}
	return template.HTML(data), nil
}

// Render writes the page to w.
func (r *Renderer) Render(w io.Writer, data PageData) error {
	if err := r.tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	return nil
}

// WriteFile renders to a temp file and renames it into place, so an aborted
// run never leaves a half-written page. Returns the page size in bytes.
func (r *Renderer) WriteFile(path string, data PageData) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, fmt.Errorf("create temp output: %w", err)
	}

	if err := r.Render(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, err
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("stat temp output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("rename output: %w", err)
	}

	r.logger.Info("page written", "path", path, "bytes", info.Size())
	return info.Size(), nil
}
