package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/geodata"
	"github.com/ridewise/riskmeter/internal/types"
)

func TestGeographicScorerUnremarkableLocation(t *testing.T) {
	scorer := NewGeographicScorer(geodata.NewStaticSource())

	a, err := scorer.Score(types.LocationRecord{Latitude: 51.5074, Longitude: -0.1278})
	require.NoError(t, err)

	// grid 30, cluster 20, infrastructure 60 (all defaults), historical 20
	assert.InDelta(t, 30.0, a.Components.Grid.RiskScore, 1e-9)
	assert.InDelta(t, 20.0, a.Components.Cluster.RiskScore, 1e-9)
	assert.InDelta(t, 60.0, a.Components.Infrastructure.RiskScore, 1e-9)
	assert.InDelta(t, 20.0, a.Components.Historical.RiskScore, 1e-9)

	// 30*0.30 + 20*0.25 + 60*0.25 + 20*0.20
	assert.InDelta(t, 33.0, a.RiskScore, 1e-9)
	assert.Equal(t, CategoryLow, a.RiskCategory)
	assert.Equal(t, "unknown", a.Components.Infrastructure.RoadType)
	assert.NotEmpty(t, a.GridCell)
}

func TestGeographicScorerRejectsOutOfRangeCoordinates(t *testing.T) {
	scorer := NewGeographicScorer(geodata.NewStaticSource())

	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too high", 91, 0},
		{"latitude too low", -91, 0},
		{"longitude too high", 0, 181},
		{"longitude too low", 0, -181},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scorer.Score(types.LocationRecord{Latitude: tt.lat, Longitude: tt.lon})
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err))
		})
	}
}

func TestGeographicScorerWorstCaseInfrastructure(t *testing.T) {
	scorer := NewGeographicScorer(geodata.NewStaticSource())

	noSignals := false
	a, err := scorer.Score(types.LocationRecord{
		Latitude:  51.5,
		Longitude: -0.1,
		Road: &types.RoadAttributes{
			RoadType:       "highway",
			SpeedLimit:     120,
			RoadSurface:    "poor",
			Lighting:       "poor",
			TrafficSignals: &noSignals,
		},
	})
	require.NoError(t, err)

	// 25 base + 40 highway + 20 speed + 25 surface + 20 lighting + 10 signals, clamped
	infra := a.Components.Infrastructure
	assert.InDelta(t, 100.0, infra.RiskScore, 1e-9)
	assert.InDelta(t, 40.0, infra.RoadRisk, 1e-9)
	assert.InDelta(t, 20.0, infra.SpeedLimitRisk, 1e-9)
	assert.InDelta(t, 10.0, infra.SignalRisk, 1e-9)
}

func TestGeographicScorerClusterProximityTiers(t *testing.T) {
	tests := []struct {
		name          string
		clusterLat    float64
		wantProximity float64
	}{
		{"on top of hotspot", 51.5000, 40},
		{"under one km", 51.5070, 25}, // ~0.78 km north
		{"under two km", 51.5130, 15}, // ~1.4 km north
		{"under five km", 51.5300, 8}, // ~3.3 km north
		{"far away", 51.6000, 0},      // ~11 km north
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &geodata.StaticSource{
				Clusters: []geodata.Cluster{{Latitude: tt.clusterLat, Longitude: -0.1}},
			}
			scorer := NewGeographicScorer(source)

			a, err := scorer.Score(types.LocationRecord{Latitude: 51.5, Longitude: -0.1})
			require.NoError(t, err)
			assert.InDelta(t, tt.wantProximity, a.Components.Cluster.ProximityRisk, 1e-9)
			assert.Equal(t, 1, a.Components.Cluster.NearbyClusters)
		})
	}
}

func TestGeographicScorerLocationModifiers(t *testing.T) {
	source := &geodata.StaticSource{
		Flags: geodata.AreaFlags{Urban: true, NearHighway: true, WeatherProne: true},
	}
	scorer := NewGeographicScorer(source)

	a, err := scorer.Score(types.LocationRecord{Latitude: 51.5, Longitude: -0.1})
	require.NoError(t, err)

	// 33 base, then ×1.10 ×1.08 ×1.05
	assert.InDelta(t, 33.0*1.10*1.08*1.05, a.RiskScore, 1e-9)
	assert.Equal(t, CategoryModerate, a.RiskCategory)
}

func TestGeographicScorerAccidentHistory(t *testing.T) {
	source := &geodata.StaticSource{
		History: geodata.AccidentHistory{
			TotalAccidents:  20, // frequency capped at 30
			AverageSeverity: 2,  // +12.5
			TotalCasualties: 5,  // +5
		},
	}
	scorer := NewGeographicScorer(source)

	a, err := scorer.Score(types.LocationRecord{Latitude: 51.5, Longitude: -0.1})
	require.NoError(t, err)

	assert.InDelta(t, 20+30+12.5+5, a.Components.Historical.RiskScore, 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// London to Paris, roughly 344 km.
	d := haversineKM(51.5074, -0.1278, 48.8566, 2.3522)
	assert.InDelta(t, 344, d, 5)
}
