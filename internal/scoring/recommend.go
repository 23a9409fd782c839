package scoring

import "strings"

// Recommendations groups the per-expert advice plus the combined overall
// items.
type Recommendations struct {
	Behavior   []string `json:"behavior"`
	Geographic []string `json:"geographic"`
	Contextual []string `json:"contextual"`
	Overall    []string `json:"overall"`
}

// BehaviorRecommendations returns driving improvement advice for a safety
// score and its triggered risk factors.
func BehaviorRecommendations(score float64, riskFactors []string) []string {
	var recs []string

	switch {
	case score < 40:
		recs = append(recs,
			"Focus on smooth acceleration and braking",
			"Maintain steady steering inputs",
			"Reduce aggressive driving behaviors",
			"Practice defensive driving techniques")
	case score < 60:
		recs = append(recs,
			"Work on maintaining consistent speeds",
			"Avoid sudden steering movements",
			"Practice gradual acceleration and deceleration")
	case score < 80:
		recs = append(recs,
			"Continue practicing smooth driving habits",
			"Monitor your acceleration patterns")
	default:
		recs = append(recs, "Excellent driving! Maintain these safe habits")
	}

	if containsWord(riskFactors, "acceleration") {
		recs = append(recs, "Practice gentler acceleration and braking")
	}
	if containsWord(riskFactors, "steering") {
		recs = append(recs, "Focus on smooth, gradual steering inputs")
	}
	if containsWord(riskFactors, "frequency") {
		recs = append(recs, "Avoid rapid, jerky movements while driving")
	}

	return recs
}

// GeographicRecommendations returns location advice for a geographic risk
// score.
func GeographicRecommendations(riskScore float64) []string {
	switch {
	case riskScore > 75:
		return []string{
			"Exercise extra caution in this high-risk area",
			"Reduce speed and increase following distance",
			"Avoid driving during peak accident hours if possible",
		}
	case riskScore > 50:
		return []string{
			"Be aware of moderate risk factors in this area",
			"Stay alert for local traffic patterns",
		}
	default:
		return []string{"Generally safe area - maintain normal precautions"}
	}
}

// ContextualRecommendations returns situational advice from a contextual
// assessment.
func ContextualRecommendations(a ContextualAssessment) []string {
	var recs []string

	switch {
	case a.RiskScore > 80:
		recs = append(recs,
			"Consider delaying non-essential trips",
			"Use extreme caution if driving is necessary",
			"Reduce speed significantly below normal",
			"Increase following distance substantially")
	case a.RiskScore > 60:
		recs = append(recs,
			"Exercise extra caution while driving",
			"Reduce speed and increase following distance",
			"Avoid aggressive maneuvers")
	case a.RiskScore > 40:
		recs = append(recs,
			"Stay alert to changing conditions",
			"Drive defensively")
	}

	if containsAnyWord(a.RiskFactors, "rush", "night", "weekend", "friday") {
		recs = append(recs,
			"Plan for extra travel time during peak hours",
			"Consider alternative routes during high-risk times")
	}
	if containsAnyWord(a.RiskFactors, "rain", "snow", "fog", "wind", "visibility") {
		recs = append(recs,
			"Ensure vehicle is properly maintained for weather conditions",
			"Use appropriate lighting and visibility aids",
			"Check weather updates before traveling")
	}
	if containsAnyWord(a.RiskFactors, "traffic", "incident", "construction") {
		recs = append(recs,
			"Monitor traffic reports for real-time updates",
			"Consider public transportation alternatives",
			"Allow extra time for traffic delays")
	}

	return recs
}

// OverallRecommendations adds advice that only makes sense across experts.
func OverallRecommendations(behaviorRisk, geoRisk, contextRisk float64) []string {
	var recs []string

	if behaviorRisk > 60 && geoRisk > 60 {
		recs = append(recs, "High-risk driver in high-risk location - consider advanced driver training")
	}
	if contextRisk > 70 {
		recs = append(recs, "Avoid driving in high-risk conditions when possible")
	}
	if behaviorRisk > 70 && geoRisk > 70 && contextRisk > 70 {
		recs = append(recs,
			"Consider usage-based insurance monitoring",
			"Implement comprehensive risk mitigation strategies")
	}

	return recs
}

func containsWord(factors []string, word string) bool {
	for _, f := range factors {
		if strings.Contains(strings.ToLower(f), word) {
			return true
		}
	}
	return false
}

func containsAnyWord(factors []string, words ...string) bool {
	for _, w := range words {
		if containsWord(factors, w) {
			return true
		}
	}
	return false
}
