package history

// Trend labels.
const (
	TrendImproving        = "improving"
	TrendDeteriorating    = "deteriorating"
	TrendStable           = "stable"
	TrendInsufficientData = "insufficient_data"
)

// TrendAnalysis summarizes how a driver's risk has moved across stored
// assessments.
type TrendAnalysis struct {
	RiskTrend           string  `json:"risk_trend"`
	BehaviorTrend       string  `json:"behavior_trend"`
	CurrentRisk         float64 `json:"current_risk"`
	AverageRisk         float64 `json:"average_risk"`
	RiskVariance        float64 `json:"risk_variance"`
	AssessmentsAnalyzed int     `json:"assessments_analyzed"`
	TrendConfidence     float64 `json:"trend_confidence"`
}

// AnalyzeTrend compares recent assessments against earlier ones. Records
// must be ordered oldest first. Fewer than two records yields an
// insufficient-data result.
func AnalyzeTrend(records []Record) TrendAnalysis {
	if len(records) < 2 {
		return TrendAnalysis{
			RiskTrend:           TrendInsufficientData,
			BehaviorTrend:       TrendInsufficientData,
			AssessmentsAnalyzed: len(records),
		}
	}

	risks := make([]float64, len(records))
	behaviors := make([]float64, len(records))
	for i, r := range records {
		risks[i] = r.RiskScore
		behaviors[i] = r.BehaviorScore
	}

	// With five or more records compare the last five against the rest;
	// below that, the last two.
	split := len(risks) - 5
	if len(risks) < 5 {
		split = len(risks) - 2
	}
	riskTrend := TrendStable
	if split > 0 {
		recentAvg := mean(risks[split:])
		earlierAvg := mean(risks[:split])
		switch {
		case recentAvg > earlierAvg+10:
			riskTrend = TrendDeteriorating
		case recentAvg < earlierAvg-10:
			riskTrend = TrendImproving
		}
	}

	behaviorTrend := TrendInsufficientData
	if len(behaviors) >= 3 {
		slope := linearSlope(behaviors)
		switch {
		case slope > 2:
			behaviorTrend = TrendImproving
		case slope < -2:
			behaviorTrend = TrendDeteriorating
		default:
			behaviorTrend = TrendStable
		}
	}

	confidence := float64(len(records)) / 10
	if confidence > 1 {
		confidence = 1
	}

	return TrendAnalysis{
		RiskTrend:           riskTrend,
		BehaviorTrend:       behaviorTrend,
		CurrentRisk:         risks[len(risks)-1],
		AverageRisk:         mean(risks),
		RiskVariance:        variance(risks),
		AssessmentsAnalyzed: len(records),
		TrendConfidence:     confidence,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// linearSlope is the least-squares slope of xs over the index sequence
// 0..n-1.
func linearSlope(xs []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range xs {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
