package domain

// Geography is the target-state geography after filtering: the county
// reference order plus the matching GeoJSON FeatureCollection, carried as
// raw bytes for verbatim embedding in the generated page.
type Geography struct {
	Counties          []County
	FeatureCollection []byte
}
