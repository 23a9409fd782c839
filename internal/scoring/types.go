// Package scoring holds the three expert risk scorers (behavior,
// geographic, contextual), the ensemble combiner that gates them into one
// risk score, and the premium tier table.
package scoring

// Risk category labels shared by the scorers.
const (
	CategoryVeryLow  = "Very Low Risk"
	CategoryLow      = "Low Risk"
	CategoryModerate = "Moderate Risk"
	CategoryHigh     = "High Risk"
	CategoryVeryHigh = "Very High Risk"
)

// Driving style labels produced by the behavior scorer.
const (
	StyleSmooth     = "SMOOTH"
	StyleNormal     = "NORMAL"
	StyleAggressive = "AGGRESSIVE"
)

// NeutralRiskScore substitutes for a failed expert so the ensemble can
// always complete.
const NeutralRiskScore = 50.0

// BehaviorAssessment is the behavior expert's output. Score is a safety
// score: higher is safer.
type BehaviorAssessment struct {
	BehaviorScore float64            `json:"behavior_score"`
	RiskLevel     string             `json:"risk_level"`
	DrivingStyle  string             `json:"driving_style"`
	FeatureScores map[string]float64 `json:"feature_scores"`
	RiskFactors   []string           `json:"risk_factors"`
}

// GridRisk is the grid-cell sub-score of the geographic assessment.
type GridRisk struct {
	RiskScore         float64 `json:"risk_score"`
	AccidentFrequency float64 `json:"accident_frequency"`
	CasualtyRate      float64 `json:"casualty_rate"`
	GridCell          string  `json:"grid_cell"`
}

// ClusterRisk is the accident-hotspot proximity sub-score.
type ClusterRisk struct {
	RiskScore              float64 `json:"risk_score"`
	NearestClusterDistance float64 `json:"nearest_cluster_distance_km"`
	NearbyClusters         int     `json:"nearby_clusters"`
	ProximityRisk          float64 `json:"proximity_risk"`
}

// InfrastructureRisk is the road-attribute sub-score.
type InfrastructureRisk struct {
	RiskScore      float64 `json:"risk_score"`
	RoadType       string  `json:"road_type"`
	RoadRisk       float64 `json:"road_risk"`
	SpeedLimitRisk float64 `json:"speed_limit_risk"`
	SurfaceRisk    float64 `json:"surface_risk"`
	LightingRisk   float64 `json:"lighting_risk"`
	SignalRisk     float64 `json:"signal_risk"`
}

// HistoricalRisk is the recorded-accident sub-score.
type HistoricalRisk struct {
	RiskScore       float64 `json:"risk_score"`
	TotalAccidents  int     `json:"total_accidents"`
	AverageSeverity float64 `json:"average_severity"`
	TotalCasualties int     `json:"total_casualties"`
}

// GeographicComponents groups the four geographic sub-scores.
type GeographicComponents struct {
	Grid           GridRisk           `json:"grid_based"`
	Cluster        ClusterRisk        `json:"cluster_proximity"`
	Infrastructure InfrastructureRisk `json:"infrastructure"`
	Historical     HistoricalRisk     `json:"historical"`
}

// GeographicAssessment is the geographic expert's output. RiskScore is a
// risk score: higher is riskier.
type GeographicAssessment struct {
	RiskScore    float64              `json:"geographic_risk_score"`
	RiskCategory string               `json:"risk_category"`
	Components   GeographicComponents `json:"risk_components"`
	Latitude     float64              `json:"latitude"`
	Longitude    float64              `json:"longitude"`
	GridCell     string               `json:"grid_cell"`
	RiskFactors  []string             `json:"risk_factors,omitempty"`
}

// TemporalRisk is the time-of-day/calendar sub-score.
type TemporalRisk struct {
	RiskScore   float64  `json:"risk_score"`
	TimePeriod  string   `json:"time_period"`
	IsRushHour  bool     `json:"is_rush_hour"`
	IsWeekend   bool     `json:"is_weekend"`
	RiskFactors []string `json:"risk_factors"`
}

// WeatherRisk is the weather sub-score.
type WeatherRisk struct {
	RiskScore   float64  `json:"risk_score"`
	Conditions  string   `json:"conditions"`
	RiskFactors []string `json:"risk_factors"`
}

// TrafficRisk is the traffic sub-score.
type TrafficRisk struct {
	RiskScore   float64  `json:"risk_score"`
	Density     string   `json:"density"`
	SpeedRatio  float64  `json:"speed_ratio"`
	RiskFactors []string `json:"risk_factors"`
}

// ContextComponents groups the three contextual sub-scores.
type ContextComponents struct {
	Temporal TemporalRisk `json:"temporal"`
	Weather  WeatherRisk  `json:"weather"`
	Traffic  TrafficRisk  `json:"traffic"`
}

// ContextualAssessment is the contextual expert's output.
type ContextualAssessment struct {
	RiskScore        float64           `json:"contextual_risk_score"`
	RiskCategory     string            `json:"risk_category"`
	Components       ContextComponents `json:"risk_components"`
	InteractionBonus float64           `json:"interaction_bonus"`
	RiskFactors      []string          `json:"risk_factors"`
}

// InteractionEffects records the pairwise/triple corrections the combiner
// adds on top of the weighted sum.
type InteractionEffects struct {
	BehaviorGeo     float64 `json:"behavior_geo"`
	BehaviorContext float64 `json:"behavior_context"`
	GeoContext      float64 `json:"geo_context"`
	Triple          float64 `json:"triple_interaction"`
	Total           float64 `json:"total_interaction"`
}

// ExpertScores echoes the raw inputs the combiner saw.
type ExpertScores struct {
	BehaviorSafety float64 `json:"behavior_safety"`
	BehaviorRisk   float64 `json:"behavior_risk"`
	GeographicRisk float64 `json:"geographic_risk"`
	ContextualRisk float64 `json:"contextual_risk"`
}

// EnsembleResult is the gated combination of the three expert scores.
// RiskScore and SafetyScore always sum to 100.
type EnsembleResult struct {
	RiskScore          float64            `json:"risk_score"`
	SafetyScore        float64            `json:"safety_score"`
	RiskCategory       string             `json:"risk_category"`
	WeightedComponents map[string]float64 `json:"weighted_components"`
	InteractionEffects InteractionEffects `json:"interaction_effects"`
	ExpertScores       ExpertScores       `json:"expert_scores"`
}

// PremiumInfo prices a risk score against a base premium.
type PremiumInfo struct {
	BasePremium          float64 `json:"base_premium"`
	AdjustedPremium      float64 `json:"adjusted_premium"`
	AdjustmentFactor     float64 `json:"adjustment_factor"`
	Tier                 string  `json:"tier"`
	RiskScore            float64 `json:"risk_score"`
	DiscountPercentage   float64 `json:"discount_percentage"`
	SurchargePercentage  float64 `json:"surcharge_percentage"`
	MonthlySavings       float64 `json:"monthly_savings"`
	AnnualSavings        float64 `json:"annual_savings"`
	AdditionalAnnualCost float64 `json:"additional_annual_cost"`
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// categorize maps a 0-100 risk score onto the five categories using the
// given ascending thresholds.
func categorize(risk float64, t [4]float64) string {
	switch {
	case risk < t[0]:
		return CategoryVeryLow
	case risk < t[1]:
		return CategoryLow
	case risk < t[2]:
		return CategoryModerate
	case risk < t[3]:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}
