package geodata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCell(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{51.5074, -0.1278, "51.51_-0.13"},
		{51.5049, -0.1240, "51.50_-0.12"},
		{0, 0, "0.00_0.00"},
		{-33.8688, 151.2093, "-33.87_151.21"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GridCell(tt.lat, tt.lon), "%.4f,%.4f", tt.lat, tt.lon)
	}
}

func TestGridCellNeighborsDiffer(t *testing.T) {
	// Points a full cell apart never share an identifier.
	assert.NotEqual(t, GridCell(51.50, -0.12), GridCell(51.51, -0.12))
	assert.NotEqual(t, GridCell(51.50, -0.12), GridCell(51.50, -0.13))
}

func openTestSource(t *testing.T) *SQLiteSource {
	t.Helper()
	src, err := OpenSQLiteSource(filepath.Join(t.TempDir(), "geodata.db"))
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSQLiteSourceEmptyStoreReturnsNoData(t *testing.T) {
	src := openTestSource(t)

	_, err := src.GridStats(51.5, -0.12)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = src.AccidentHistory(51.5, -0.12)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = src.AreaFlags(51.5, -0.12)
	assert.ErrorIs(t, err, ErrNoData)

	clusters, err := src.NearbyClusters(51.5, -0.12)
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestSQLiteSourceLookups(t *testing.T) {
	src := openTestSource(t)
	cell := GridCell(51.5, -0.12)

	_, err := src.db.Exec(`INSERT INTO grid_stats (grid_cell, accident_frequency, casualty_rate) VALUES (?, ?, ?)`, cell, 4.5, 1.2)
	require.NoError(t, err)
	_, err = src.db.Exec(`INSERT INTO accident_history (grid_cell, total_accidents, average_severity, total_casualties) VALUES (?, ?, ?, ?)`, cell, 12, 1.8, 3)
	require.NoError(t, err)
	_, err = src.db.Exec(`INSERT INTO area_flags (grid_cell, urban, near_highway, weather_prone) VALUES (?, 1, 0, 1)`, cell)
	require.NoError(t, err)
	_, err = src.db.Exec(`INSERT INTO accident_clusters (latitude, longitude, severity, accident_count) VALUES (?, ?, ?, ?)`, 51.51, -0.11, 2.5, 8)
	require.NoError(t, err)

	stats, err := src.GridStats(51.5, -0.12)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, stats.AccidentFrequency, 1e-9)
	assert.InDelta(t, 1.2, stats.CasualtyRate, 1e-9)

	history, err := src.AccidentHistory(51.5, -0.12)
	require.NoError(t, err)
	assert.Equal(t, 12, history.TotalAccidents)
	assert.InDelta(t, 1.8, history.AverageSeverity, 1e-9)
	assert.Equal(t, 3, history.TotalCasualties)

	flags, err := src.AreaFlags(51.5, -0.12)
	require.NoError(t, err)
	assert.True(t, flags.Urban)
	assert.False(t, flags.NearHighway)
	assert.True(t, flags.WeatherProne)

	clusters, err := src.NearbyClusters(51.5, -0.12)
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	assert.Equal(t, 8, clusters[0].AccidentCount)

	// The cluster box is ±0.05 degrees; a distant query misses it.
	far, err := src.NearbyClusters(52.5, -0.12)
	require.NoError(t, err)
	assert.Empty(t, far)
}
