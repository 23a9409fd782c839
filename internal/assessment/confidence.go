package assessment

import "github.com/ridewise/riskmeter/internal/scoring"

// Base confidence per expert; a failed expert drops to 0.5.
const (
	behaviorBaseConfidence   = 0.9
	geographicBaseConfidence = 0.8
	contextualBaseConfidence = 0.85
	failedExpertConfidence   = 0.5
)

// ConfidenceMetrics quantifies how much to trust each expert's output and
// the combined result.
type ConfidenceMetrics struct {
	Behavior    float64 `json:"behavior_confidence"`
	Geographic  float64 `json:"geographic_confidence"`
	Contextual  float64 `json:"contextual_confidence"`
	Overall     float64 `json:"overall_confidence"`
	DataQuality float64 `json:"data_quality_score"`
}

// computeConfidence assigns per-expert confidence and the weighted
// overall. A NORMAL driving style slightly lowers behavior confidence:
// the rule table discriminates least in the middle of its range.
func computeConfidence(behaviorFailed, geoFailed, contextFailed bool, drivingStyle string, w scoring.Weights) ConfidenceMetrics {
	behavior := behaviorBaseConfidence
	if behaviorFailed {
		behavior = failedExpertConfidence
	}
	geo := geographicBaseConfidence
	if geoFailed {
		geo = failedExpertConfidence
	}
	contextual := contextualBaseConfidence
	if contextFailed {
		contextual = failedExpertConfidence
	}

	if drivingStyle == scoring.StyleNormal {
		behavior *= 0.95
	}

	overall := behavior*w.Behavior + geo*w.Geographic + contextual*w.Contextual

	return ConfidenceMetrics{
		Behavior:    behavior,
		Geographic:  geo,
		Contextual:  contextual,
		Overall:     overall,
		DataQuality: (behavior + geo + contextual) / 3,
	}
}
