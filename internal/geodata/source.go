// Package geodata provides the accident-history lookups consumed by the
// geographic scorer. Production wires the sqlite-backed source; tests use
// the deterministic static source.
package geodata

import "errors"

// ErrNoData indicates the source has no record for the queried location.
// The scorer recovers by substituting neutral defaults; this error never
// reaches the API caller.
var ErrNoData = errors.New("geodata: no data for location")

// GridStats are the per-grid-cell accident statistics.
type GridStats struct {
	AccidentFrequency float64 `json:"accident_frequency"`
	CasualtyRate      float64 `json:"casualty_rate"`
}

// Cluster is a known accident hotspot.
type Cluster struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	Severity      float64 `json:"severity"`
	AccidentCount int     `json:"accident_count"`
}

// AccidentHistory summarizes recorded accidents around a location.
type AccidentHistory struct {
	TotalAccidents  int     `json:"total_accidents"`
	AverageSeverity float64 `json:"average_severity"`
	TotalCasualties int     `json:"total_casualties"`
}

// AreaFlags are boolean area attributes that drive the multiplicative
// location modifiers.
type AreaFlags struct {
	Urban        bool `json:"urban"`
	NearHighway  bool `json:"near_highway"`
	WeatherProne bool `json:"weather_prone"`
}

// HistoricalSource supplies accident data for a coordinate. Implementations
// must be safe for concurrent use; assessments run in parallel.
type HistoricalSource interface {
	GridStats(lat, lon float64) (GridStats, error)
	NearbyClusters(lat, lon float64) ([]Cluster, error)
	AccidentHistory(lat, lon float64) (AccidentHistory, error)
	AreaFlags(lat, lon float64) (AreaFlags, error)
}
