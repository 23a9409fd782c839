package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ridewise/riskmeter/internal/signal"
)

func TestBehaviorScorerPerfectWindow(t *testing.T) {
	scorer := NewBehaviorScorer()

	assessment := scorer.Score(signal.FeatureVector{})

	assert.Equal(t, 100.0, assessment.BehaviorScore)
	assert.Equal(t, CategoryLow, assessment.RiskLevel)
	assert.Equal(t, StyleSmooth, assessment.DrivingStyle)
	assert.Empty(t, assessment.RiskFactors)
}

func TestBehaviorScorerAggressiveWindow(t *testing.T) {
	scorer := NewBehaviorScorer()

	fv := signal.FeatureVector{
		"Acc_magnitude_mean":  1.2, // -20 (capped)
		"Jerk_magnitude_mean": 1.0, // -15 (capped)
		"Gyro_magnitude_std":  0.5, // -5
	}
	assessment := scorer.Score(fv)

	assert.InDelta(t, 60.0, assessment.BehaviorScore, 1e-9)
	assert.Equal(t, CategoryModerate, assessment.RiskLevel)
	assert.Equal(t, StyleAggressive, assessment.DrivingStyle)
	assert.Len(t, assessment.RiskFactors, 3)
}

func TestBehaviorScorerHighFrequencyEnergy(t *testing.T) {
	scorer := NewBehaviorScorer()

	fv := signal.FeatureVector{}
	for _, ch := range signal.Channels() {
		fv[ch+"_energy_band_1_2"] = 50 // 300 total, penalty min(8, 200/50)=4
	}
	assessment := scorer.Score(fv)

	assert.InDelta(t, 96.0, assessment.BehaviorScore, 1e-9)
	assert.Contains(t, assessment.RiskFactors[0], "High frequency")
}

func TestBehaviorScorerNeverNegative(t *testing.T) {
	scorer := NewBehaviorScorer()

	fv := signal.FeatureVector{
		"Acc_magnitude_mean":  10,
		"Jerk_magnitude_mean": 10,
		"Gyro_magnitude_std":  10,
	}
	for _, ch := range signal.Channels() {
		fv[ch+"_energy_band_1_2"] = 1000
	}
	assessment := scorer.Score(fv)

	assert.GreaterOrEqual(t, assessment.BehaviorScore, 0.0)
	assert.Equal(t, CategoryVeryHigh, assessment.RiskLevel)
}

func TestBehaviorScorerStyleBoundaries(t *testing.T) {
	scorer := NewBehaviorScorer()

	tests := []struct {
		name            string
		acc, jerk, gyro float64
		want            string
	}{
		{"all calm", 0.1, 0.1, 0.1, StyleSmooth},
		{"middling", 0.5, 0.3, 0.2, StyleNormal},
		{"hard acceleration", 0.75, 0.1, 0.1, StyleAggressive},
		{"hard jerk", 0.2, 0.65, 0.1, StyleAggressive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := signal.FeatureVector{
				"Acc_magnitude_mean":  tt.acc,
				"Jerk_magnitude_mean": tt.jerk,
				"Gyro_magnitude_std":  tt.gyro,
			}
			assert.Equal(t, tt.want, scorer.Score(fv).DrivingStyle)
		})
	}
}
