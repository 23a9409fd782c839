package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ridewise/riskmeter/internal/types"
)

// A plain Tuesday afternoon in June: no temporal surcharges apply.
var calmTimestamp = time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)

func TestContextualScorerMildDefaults(t *testing.T) {
	scorer := NewContextualScorer()

	a := scorer.Score(types.ContextRecord{Timestamp: calmTimestamp})

	// temporal 30 (base 20 + afternoon 10), weather 15, traffic 35
	assert.InDelta(t, 30.0, a.Components.Temporal.RiskScore, 1e-9)
	assert.InDelta(t, 15.0, a.Components.Weather.RiskScore, 1e-9)
	assert.InDelta(t, 35.0, a.Components.Traffic.RiskScore, 1e-9)

	// 30*0.40 + 15*0.35 + 35*0.25, no interactions
	assert.InDelta(t, 26.0, a.RiskScore, 1e-9)
	assert.Equal(t, CategoryLow, a.RiskCategory)
	assert.Zero(t, a.InteractionBonus)
}

func TestTemporalRiskPeriods(t *testing.T) {
	tests := []struct {
		hour       int
		wantPeriod string
	}{
		{2, "Night"},
		{5, "Night"},
		{6, "Morning"},
		{11, "Morning"},
		{12, "Afternoon"},
		{17, "Afternoon"},
		{18, "Evening"},
		{23, "Evening"},
	}
	for _, tt := range tests {
		ts := time.Date(2025, 6, 10, tt.hour, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.wantPeriod, temporalRisk(ts).TimePeriod, "hour %d", tt.hour)
	}
}

func TestTemporalRiskRushHourBounds(t *testing.T) {
	for _, hour := range []int{7, 9, 17, 19} {
		assert.True(t, isRushHour(hour), "hour %d", hour)
	}
	for _, hour := range []int{6, 10, 16, 20} {
		assert.False(t, isRushHour(hour), "hour %d", hour)
	}
}

func TestTemporalRiskWeekendNight(t *testing.T) {
	// Saturday 23:00: base 20 + evening 20 + weekend night 30
	sat := time.Date(2025, 6, 14, 23, 0, 0, 0, time.UTC)
	r := temporalRisk(sat)
	assert.InDelta(t, 70.0, r.RiskScore, 1e-9)
	assert.True(t, r.IsWeekend)
	assert.Contains(t, r.RiskFactors, "Weekend night driving (+30)")

	// Saturday 14:00: the quiet-weekend surcharge is only +5.
	satDay := time.Date(2025, 6, 14, 14, 0, 0, 0, time.UTC)
	assert.InDelta(t, 35.0, temporalRisk(satDay).RiskScore, 1e-9)
}

func TestTemporalRiskWinterRush(t *testing.T) {
	// Tuesday 08:00 in January: base 20 + morning 15 + rush 25 + winter 10
	ts := time.Date(2025, 1, 14, 8, 0, 0, 0, time.UTC)
	r := temporalRisk(ts)
	assert.InDelta(t, 70.0, r.RiskScore, 1e-9)
	assert.True(t, r.IsRushHour)
	assert.Contains(t, r.RiskFactors, "Winter season (+10)")
}

func TestWeatherRiskSevereConditions(t *testing.T) {
	r := weatherRisk(&types.WeatherConditions{
		PrecipitationMM: 15,
		TemperatureC:    -2,
		VisibilityKM:    0.5,
		WindSpeedKMH:    60,
		Conditions:      "snow",
	})

	// 15 + 40 + 30 + 40 + 20 + 45 clamps to 100
	assert.InDelta(t, 100.0, r.RiskScore, 1e-9)
	assert.Contains(t, r.RiskFactors, "Heavy rain (+40)")
	assert.Contains(t, r.RiskFactors, "Freezing conditions (+30)")
	assert.Contains(t, r.RiskFactors, "Snow conditions (+45)")
}

func TestWeatherRiskPrecipitationTiers(t *testing.T) {
	tests := []struct {
		mm   float64
		want float64
	}{
		{1, 15},
		{2, 15},
		{5, 25},
		{10, 25},
		{11, 40},
	}
	for _, tt := range tests {
		r := weatherRisk(&types.WeatherConditions{
			PrecipitationMM: tt.mm, TemperatureC: 20, VisibilityKM: 10, Conditions: "clear",
		})
		assert.InDelta(t, 15+tt.want, r.RiskScore, 1e-9, "%.0f mm", tt.mm)
	}
}

func TestTrafficRiskCongestion(t *testing.T) {
	r := trafficRisk(&types.TrafficConditions{
		Density:         "heavy",
		AverageSpeedKMH: 20,
		SpeedLimitKMH:   100,
		ActiveIncidents: 2,
	})

	// 20 + 30 density + 25 crawl + 20 incidents
	assert.InDelta(t, 95.0, r.RiskScore, 1e-9)
	assert.InDelta(t, 0.2, r.SpeedRatio, 1e-9)

	// Adding construction zones pushes past the cap.
	capped := trafficRisk(&types.TrafficConditions{
		Density:           "severe",
		AverageSpeedKMH:   10,
		SpeedLimitKMH:     100,
		ActiveIncidents:   5,
		ConstructionZones: 3,
	})
	assert.InDelta(t, 100.0, capped.RiskScore, 1e-9)
}

func TestContextualScorerCompoundingInteractions(t *testing.T) {
	scorer := NewContextualScorer()

	// Saturday 02:00 in a storm with gridlocked traffic.
	a := scorer.Score(types.ContextRecord{
		Timestamp: time.Date(2025, 6, 14, 2, 0, 0, 0, time.UTC),
		Weather: &types.WeatherConditions{
			PrecipitationMM: 15, TemperatureC: -2, VisibilityKM: 0.5,
			WindSpeedKMH: 60, Conditions: "snow",
		},
		Traffic: &types.TrafficConditions{
			Density: "heavy", AverageSpeedKMH: 20, SpeedLimitKMH: 100, ActiveIncidents: 2,
		},
	})

	// night storm +15, congestion in storm +10, weekend night +8
	assert.InDelta(t, 33.0, a.InteractionBonus, 1e-9)
	assert.InDelta(t, 100.0, a.RiskScore, 1e-9)
	assert.Equal(t, CategoryVeryHigh, a.RiskCategory)
}

func TestContextCategoryThresholds(t *testing.T) {
	assert.Equal(t, CategoryLow, contextCategory(29.9))
	assert.Equal(t, CategoryModerate, contextCategory(30))
	assert.Equal(t, CategoryModerate, contextCategory(59.9))
	assert.Equal(t, CategoryHigh, contextCategory(60))
	assert.Equal(t, CategoryHigh, contextCategory(79.9))
	assert.Equal(t, CategoryVeryHigh, contextCategory(80))
}
