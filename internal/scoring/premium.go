package scoring

// DefaultBasePremium is the monthly premium assumed when the request does
// not carry one.
const DefaultBasePremium = 1000.0

// Pricing tier names, best to worst.
const (
	TierPreferred    = "Preferred"
	TierStandardPlus = "Standard Plus"
	TierStandard     = "Standard"
	TierSubstandard  = "Substandard"
	TierHighRisk     = "High Risk"
)

// premiumTier is one row of the pricing table.
type premiumTier struct {
	name      string
	threshold float64 // upper bound on risk score, exclusive
	factor    float64
}

// The last row catches everything at or above the Substandard bound.
var premiumTiers = []premiumTier{
	{TierPreferred, 25, 0.75},
	{TierStandardPlus, 45, 0.85},
	{TierStandard, 65, 1.00},
	{TierSubstandard, 85, 1.25},
	{TierHighRisk, 101, 1.50},
}

// PremiumForRisk prices a risk score against a monthly base premium. A
// non-positive base falls back to the default.
func PremiumForRisk(riskScore, basePremium float64) PremiumInfo {
	if basePremium <= 0 {
		basePremium = DefaultBasePremium
	}

	tier := premiumTiers[len(premiumTiers)-1]
	for _, t := range premiumTiers {
		if riskScore < t.threshold {
			tier = t
			break
		}
	}

	adjusted := basePremium * tier.factor
	savings := basePremium - adjusted

	info := PremiumInfo{
		BasePremium:      basePremium,
		AdjustedPremium:  adjusted,
		AdjustmentFactor: tier.factor,
		Tier:             tier.name,
		RiskScore:        riskScore,
	}

	if tier.factor < 1 {
		info.DiscountPercentage = (1 - tier.factor) * 100
	}
	if tier.factor > 1 {
		info.SurchargePercentage = (tier.factor - 1) * 100
	}
	if savings > 0 {
		info.MonthlySavings = savings
		info.AnnualSavings = savings * 12
	} else if savings < 0 {
		info.AdditionalAnnualCost = -savings * 12
	}

	return info
}

// TierExplanation describes why a risk score landed in its tier and what a
// better tier would cost.
type TierExplanation struct {
	CurrentTier            string            `json:"current_tier"`
	RiskScore              float64           `json:"risk_score"`
	Description            string            `json:"description"`
	Benefits               []string          `json:"benefits"`
	Requirements           string            `json:"requirements"`
	NextBetterTier         string            `json:"next_better_tier,omitempty"`
	PointsReductionNeeded  float64           `json:"points_reduction_needed,omitempty"`
	PotentialSavings       *PotentialSavings `json:"potential_savings,omitempty"`
	ImprovementSuggestions []string          `json:"improvement_suggestions"`
}

// PotentialSavings quantifies the premium impact of reaching a lower-risk
// tier.
type PotentialSavings struct {
	MonthlySavings    float64 `json:"monthly_savings"`
	AnnualSavings     float64 `json:"annual_savings"`
	PercentageSavings float64 `json:"percentage_savings"`
}

type tierDetail struct {
	description  string
	benefits     []string
	requirements string
}

var tierDetails = map[string]tierDetail{
	TierPreferred: {
		description:  "Excellent safety record with minimal risk factors",
		benefits:     []string{"Maximum discount available", "Priority claims processing", "Additional coverage options"},
		requirements: "Risk score below 25",
	},
	TierStandardPlus: {
		description:  "Good safety record with minor risk factors",
		benefits:     []string{"Moderate discount", "Standard claims processing", "Good coverage options"},
		requirements: "Risk score between 25-45",
	},
	TierStandard: {
		description:  "Average risk profile",
		benefits:     []string{"Base premium rates", "Standard coverage and service"},
		requirements: "Risk score between 45-65",
	},
	TierSubstandard: {
		description:  "Elevated risk factors requiring premium adjustment",
		benefits:     []string{"Standard coverage with premium surcharge"},
		requirements: "Risk score between 65-85",
	},
	TierHighRisk: {
		description:  "Significant risk factors requiring careful monitoring",
		benefits:     []string{"Coverage available with higher premiums", "Risk management resources"},
		requirements: "Risk score above 85",
	},
}

// ExplainTier builds the tier explanation for a priced assessment.
func ExplainTier(tier string, riskScore, basePremium float64) TierExplanation {
	detail := tierDetails[tier]

	exp := TierExplanation{
		CurrentTier:            tier,
		RiskScore:              riskScore,
		Description:            detail.description,
		Benefits:               detail.benefits,
		Requirements:           detail.requirements,
		ImprovementSuggestions: tierImprovementSuggestions(tier, riskScore),
	}

	// Find the nearest tier bound at or below the current risk; below the
	// first bound there is nothing better to reach.
	for i := len(premiumTiers) - 2; i >= 0; i-- {
		t := premiumTiers[i]
		if riskScore >= t.threshold {
			exp.NextBetterTier = t.name
			exp.PointsReductionNeeded = riskScore - t.threshold + 1
			exp.PotentialSavings = potentialSavings(riskScore, t.threshold-1, basePremium)
			break
		}
	}

	return exp
}

func potentialSavings(currentRisk, targetRisk, basePremium float64) *PotentialSavings {
	current := PremiumForRisk(currentRisk, basePremium)
	target := PremiumForRisk(targetRisk, basePremium)

	monthly := current.AdjustedPremium - target.AdjustedPremium
	return &PotentialSavings{
		MonthlySavings:    monthly,
		AnnualSavings:     monthly * 12,
		PercentageSavings: monthly / current.AdjustedPremium * 100,
	}
}

func tierImprovementSuggestions(tier string, riskScore float64) []string {
	var suggestions []string

	switch tier {
	case TierHighRisk, TierSubstandard:
		suggestions = append(suggestions,
			"Focus on improving driving behavior through defensive driving courses",
			"Consider telematics monitoring to demonstrate safe driving",
			"Avoid high-risk locations and times when possible")
	case TierStandard, TierStandardPlus:
		suggestions = append(suggestions,
			"Maintain consistent safe driving habits",
			"Continue avoiding risky driving conditions",
			"Consider advanced driver safety programs")
	}

	if riskScore > 60 {
		suggestions = append(suggestions, "Significant improvement needed - consider comprehensive driver training")
	} else if riskScore > 40 {
		suggestions = append(suggestions, "Moderate improvement possible with focused safety efforts")
	}

	return suggestions
}
