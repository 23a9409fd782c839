package scoring

import (
	"fmt"

	"github.com/ridewise/riskmeter/internal/signal"
)

// BehaviorScorer maps an extracted feature vector to a 0-100 safety score.
//
// This is a deterministic rule table, not a learned model: the thresholds
// and penalty slopes stand in for a classifier trained on labeled trips.
// Keeping it behind the same assessment shape as the other experts lets a
// trained model replace it without touching the combiner.
type BehaviorScorer struct{}

// NewBehaviorScorer creates the rule-table behavior scorer.
func NewBehaviorScorer() *BehaviorScorer {
	return &BehaviorScorer{}
}

// Score assesses one feature window. The score starts at 100 and loses
// bounded penalties per triggered rule.
func (s *BehaviorScorer) Score(fv signal.FeatureVector) BehaviorAssessment {
	score := 100.0
	riskFactors := []string{}

	accMagMean := fv["Acc_magnitude_mean"]
	if accMagMean > 0.8 {
		penalty := min(20, (accMagMean-0.8)*50)
		score -= penalty
		riskFactors = append(riskFactors, fmt.Sprintf("High acceleration patterns (penalty: %.1f)", penalty))
	}

	jerkMagMean := fv["Jerk_magnitude_mean"]
	if jerkMagMean > 0.5 {
		penalty := min(15, (jerkMagMean-0.5)*30)
		score -= penalty
		riskFactors = append(riskFactors, fmt.Sprintf("Jerky driving patterns (penalty: %.1f)", penalty))
	}

	gyroMagStd := fv["Gyro_magnitude_std"]
	if gyroMagStd > 0.3 {
		penalty := min(10, (gyroMagStd-0.3)*25)
		score -= penalty
		riskFactors = append(riskFactors, fmt.Sprintf("Erratic steering (penalty: %.1f)", penalty))
	}

	highFreqEnergy := 0.0
	for _, ch := range signal.Channels() {
		highFreqEnergy += fv[ch+"_energy_band_1_2"]
	}
	if highFreqEnergy > 100 {
		penalty := min(8, (highFreqEnergy-100)/50)
		score -= penalty
		riskFactors = append(riskFactors, fmt.Sprintf("High frequency driving patterns (penalty: %.1f)", penalty))
	}

	score = clamp(score, 0, 100)

	return BehaviorAssessment{
		BehaviorScore: score,
		RiskLevel:     behaviorRiskLevel(score),
		DrivingStyle:  classifyDrivingStyle(accMagMean, jerkMagMean, gyroMagStd),
		FeatureScores: map[string]float64{
			"acceleration_score": clamp(100-accMagMean*100, 0, 100),
			"smoothness_score":   clamp(100-jerkMagMean*100, 0, 100),
			"steering_score":     clamp(100-gyroMagStd*100, 0, 100),
			"frequency_score":    clamp(100-highFreqEnergy/10, 0, 100),
		},
		RiskFactors: riskFactors,
	}
}

// behaviorRiskLevel buckets the safety score; note the inversion relative
// to the risk-score categorizers.
func behaviorRiskLevel(score float64) string {
	switch {
	case score >= 80:
		return CategoryLow
	case score >= 60:
		return CategoryModerate
	case score >= 40:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}

func classifyDrivingStyle(accMag, jerkMag, gyroStd float64) string {
	if accMag < 0.3 && jerkMag < 0.2 && gyroStd < 0.15 {
		return StyleSmooth
	}
	if accMag > 0.7 || jerkMag > 0.6 {
		return StyleAggressive
	}
	return StyleNormal
}
