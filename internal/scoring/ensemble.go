package scoring

import (
	"math"

	"github.com/ridewise/riskmeter/internal/errors"
)

// Weights are the expert weights of the ensemble. They are fixed at
// construction; the combiner never mutates them.
type Weights struct {
	Behavior   float64
	Geographic float64
	Contextual float64
}

// DefaultWeights weights driver behavior highest.
func DefaultWeights() Weights {
	return Weights{Behavior: 0.4, Geographic: 0.3, Contextual: 0.3}
}

var ensembleThresholds = [4]float64{25, 45, 65, 85}

// Combiner gates the three expert scores into one risk score, adding
// bounded interaction corrections where risks compound.
type Combiner struct {
	weights Weights
}

// NewCombiner validates that the weights sum to one and returns the
// combiner.
func NewCombiner(w Weights) (*Combiner, error) {
	sum := w.Behavior + w.Geographic + w.Contextual
	if math.Abs(sum-1.0) > 0.001 {
		return nil, errors.NewInvalidInputError(
			"expert weights must sum to 1.0",
			map[string]interface{}{"sum": sum})
	}
	return &Combiner{weights: w}, nil
}

// NewDefaultCombiner returns a combiner with the production weights.
func NewDefaultCombiner() *Combiner {
	return &Combiner{weights: DefaultWeights()}
}

// Combine merges a behavior safety score with geographic and contextual
// risk scores. The behavior score is inverted onto the risk scale first so
// all three agree on direction.
func (c *Combiner) Combine(behaviorScore, geoRisk, contextRisk float64) EnsembleResult {
	behaviorRisk := 100 - behaviorScore

	weighted := behaviorRisk*c.weights.Behavior +
		geoRisk*c.weights.Geographic +
		contextRisk*c.weights.Contextual

	interactions := interactionEffects(behaviorRisk, geoRisk, contextRisk)

	finalRisk := clamp(weighted+interactions.Total, 0, 100)
	finalSafety := 100 - finalRisk

	return EnsembleResult{
		RiskScore:    finalRisk,
		SafetyScore:  finalSafety,
		RiskCategory: categorize(finalRisk, ensembleThresholds),
		WeightedComponents: map[string]float64{
			"behavior_contribution":   behaviorRisk * c.weights.Behavior,
			"geographic_contribution": geoRisk * c.weights.Geographic,
			"contextual_contribution": contextRisk * c.weights.Contextual,
		},
		InteractionEffects: interactions,
		ExpertScores: ExpertScores{
			BehaviorSafety: behaviorScore,
			BehaviorRisk:   behaviorRisk,
			GeographicRisk: geoRisk,
			ContextualRisk: contextRisk,
		},
	}
}

// interactionEffects adds capped corrections when multiple experts report
// elevated risk at once: the combined danger exceeds what a linear blend
// captures.
func interactionEffects(behaviorRisk, geoRisk, contextRisk float64) InteractionEffects {
	var fx InteractionEffects

	if behaviorRisk > 60 && geoRisk > 60 {
		fx.BehaviorGeo = min(15, (behaviorRisk+geoRisk-120)*0.3)
	}
	if behaviorRisk > 60 && contextRisk > 60 {
		fx.BehaviorContext = min(12, (behaviorRisk+contextRisk-120)*0.25)
	}
	if geoRisk > 50 && contextRisk > 50 {
		fx.GeoContext = min(10, (geoRisk+contextRisk-100)*0.2)
	}
	if behaviorRisk > 70 && geoRisk > 70 && contextRisk > 70 {
		fx.Triple = 8
	}

	fx.Total = fx.BehaviorGeo + fx.BehaviorContext + fx.GeoContext + fx.Triple
	return fx
}
