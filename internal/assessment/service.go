// Package assessment orchestrates the full risk assessment pipeline:
// feature extraction, the three expert scorers, the ensemble combiner,
// premium pricing, and persistence of the result.
package assessment

import (
	"time"

	"github.com/google/uuid"

	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/history"
	"github.com/ridewise/riskmeter/internal/privacy"
	"github.com/ridewise/riskmeter/internal/scoring"
	"github.com/ridewise/riskmeter/internal/signal"
	"github.com/ridewise/riskmeter/internal/types"
)

const modelVersion = "2.0"

// OverallAssessment is the headline block of a result.
type OverallAssessment struct {
	FinalRiskScore float64 `json:"final_risk_score"`
	SafetyScore    float64 `json:"safety_score"`
	RiskCategory   string  `json:"risk_category"`
	Confidence     float64 `json:"confidence"`
}

// ExpertAssessments groups the three expert outputs.
type ExpertAssessments struct {
	Behavior   scoring.BehaviorAssessment   `json:"behavior"`
	Geographic scoring.GeographicAssessment `json:"geographic"`
	Contextual scoring.ContextualAssessment `json:"contextual"`
}

// Metadata describes how the assessment was produced.
type Metadata struct {
	AssessmentTimestamp time.Time          `json:"assessment_timestamp"`
	ModelVersion        string             `json:"model_version"`
	ExpertWeights       map[string]float64 `json:"expert_weights"`
	WindowsAnalyzed     int                `json:"windows_analyzed"`
}

// Result is one complete risk assessment.
type Result struct {
	AssessmentID      string                  `json:"assessment_id"`
	DriverID          string                  `json:"driver_id,omitempty"`
	Overall           OverallAssessment       `json:"overall_assessment"`
	ExpertAssessments ExpertAssessments       `json:"expert_assessments"`
	Ensemble          scoring.EnsembleResult  `json:"ensemble_details"`
	Premium           scoring.PremiumInfo     `json:"premium_information"`
	TierExplanation   scoring.TierExplanation `json:"tier_explanation"`
	Recommendations   scoring.Recommendations `json:"recommendations"`
	Confidence        ConfidenceMetrics       `json:"confidence_metrics"`
	Metadata          Metadata                `json:"model_metadata"`
	Annotations       []string                `json:"annotations,omitempty"`
}

// Service runs assessments. The history store is optional; without it
// results are not persisted.
type Service struct {
	extractor  *signal.Extractor
	behavior   *scoring.BehaviorScorer
	geographic *scoring.GeographicScorer
	contextual *scoring.ContextualScorer
	combiner   *scoring.Combiner
	weights    scoring.Weights
	store      *history.Store
}

// NewService wires the pipeline. store may be nil.
func NewService(extractor *signal.Extractor, geo *scoring.GeographicScorer, store *history.Store) *Service {
	return &Service{
		extractor:  extractor,
		behavior:   scoring.NewBehaviorScorer(),
		geographic: geo,
		contextual: scoring.NewContextualScorer(),
		combiner:   scoring.NewDefaultCombiner(),
		weights:    scoring.DefaultWeights(),
		store:      store,
	}
}

// Assess runs the full pipeline for one request. Invalid input fails the
// request; a failed expert degrades to the neutral score and the failure
// is recorded in the result's annotations.
func (s *Service) Assess(req types.AssessRequest) (*Result, error) {
	if len(req.Samples) == 0 {
		return nil, errors.NewInvalidInputError("sensor samples are required", nil)
	}

	var annotations []string

	vectors := s.extractor.Extract(req.Samples)

	// Behavior expert. A trip shorter than one window produces no feature
	// vectors; score neutrally rather than failing the assessment.
	var behaviorAssessment scoring.BehaviorAssessment
	behaviorFailed := false
	if len(vectors) > 0 {
		behaviorAssessment = s.behavior.Score(vectors[0])
	} else {
		behaviorFailed = true
		annotations = append(annotations, "behavior: trip shorter than one analysis window, using neutral score")
		behaviorAssessment = neutralBehavior()
	}

	// Geographic expert. Out-of-range coordinates are the caller's error;
	// anything else degrades to neutral.
	var geoAssessment scoring.GeographicAssessment
	geoFailed := false
	if req.Location != nil {
		var err error
		geoAssessment, err = s.geographic.Score(*req.Location)
		if err != nil {
			if errors.IsInvalidInput(err) {
				return nil, err
			}
			geoFailed = true
			annotations = append(annotations, "geographic: assessment failed, using neutral score")
			geoAssessment = neutralGeographic()
		}
	} else {
		geoFailed = true
		annotations = append(annotations, "geographic: no location provided, using neutral score")
		geoAssessment = neutralGeographic()
	}

	// Contextual expert never fails; missing fields use mild defaults.
	ctx := types.ContextRecord{Timestamp: time.Now()}
	if req.Context != nil {
		ctx = *req.Context
		if ctx.Timestamp.IsZero() {
			ctx.Timestamp = time.Now()
		}
	}
	contextAssessment := s.contextual.Score(ctx)

	ensemble := s.combiner.Combine(
		behaviorAssessment.BehaviorScore,
		geoAssessment.RiskScore,
		contextAssessment.RiskScore,
	)

	premium := scoring.PremiumForRisk(ensemble.RiskScore, req.BasePremium)
	tierExplanation := scoring.ExplainTier(premium.Tier, ensemble.RiskScore, premium.BasePremium)

	recommendations := scoring.Recommendations{
		Behavior:   scoring.BehaviorRecommendations(behaviorAssessment.BehaviorScore, behaviorAssessment.RiskFactors),
		Geographic: scoring.GeographicRecommendations(geoAssessment.RiskScore),
		Contextual: scoring.ContextualRecommendations(contextAssessment),
		Overall: scoring.OverallRecommendations(
			ensemble.ExpertScores.BehaviorRisk,
			geoAssessment.RiskScore,
			contextAssessment.RiskScore,
		),
	}

	confidence := computeConfidence(
		behaviorFailed, geoFailed, false,
		behaviorAssessment.DrivingStyle, s.weights,
	)

	result := &Result{
		AssessmentID: uuid.New().String(),
		DriverID:     req.DriverID,
		Overall: OverallAssessment{
			FinalRiskScore: ensemble.RiskScore,
			SafetyScore:    ensemble.SafetyScore,
			RiskCategory:   ensemble.RiskCategory,
			Confidence:     confidence.Overall,
		},
		ExpertAssessments: ExpertAssessments{
			Behavior:   behaviorAssessment,
			Geographic: geoAssessment,
			Contextual: contextAssessment,
		},
		Ensemble:        ensemble,
		Premium:         premium,
		TierExplanation: tierExplanation,
		Recommendations: recommendations,
		Confidence:      confidence,
		Metadata: Metadata{
			AssessmentTimestamp: time.Now(),
			ModelVersion:        modelVersion,
			ExpertWeights: map[string]float64{
				"behavior":   s.weights.Behavior,
				"geographic": s.weights.Geographic,
				"contextual": s.weights.Contextual,
			},
			WindowsAnalyzed: len(vectors),
		},
		Annotations: annotations,
	}

	s.persist(req.DriverID, result)

	return result, nil
}

// persist stores the result when a store and driver are present. Storage
// failures never fail an assessment that already completed.
func (s *Service) persist(driverID string, result *Result) {
	if s.store == nil || driverID == "" {
		return
	}

	rec := history.Record{
		DriverHash:     privacy.AnonymizeDriverID(driverID),
		RiskScore:      result.Overall.FinalRiskScore,
		SafetyScore:    result.Overall.SafetyScore,
		RiskCategory:   result.Overall.RiskCategory,
		BehaviorScore:  result.ExpertAssessments.Behavior.BehaviorScore,
		GeographicRisk: result.ExpertAssessments.Geographic.RiskScore,
		ContextualRisk: result.ExpertAssessments.Contextual.RiskScore,
		PremiumTier:    result.Premium.Tier,
		Confidence:     result.Overall.Confidence,
	}
	if _, err := s.store.SaveAssessment(rec, result); err != nil {
		result.Annotations = append(result.Annotations, "history: failed to persist assessment")
	}
}

// Trend returns the driver's risk trend from stored assessments.
func (s *Service) Trend(driverID string) (history.TrendAnalysis, error) {
	if s.store == nil {
		return history.TrendAnalysis{}, errors.NewDataUnavailableError("assessment history is not enabled", nil)
	}
	records, err := s.store.AssessmentsByDriver(privacy.AnonymizeDriverID(driverID))
	if err != nil {
		return history.TrendAnalysis{}, errors.NewInternalError("failed to load assessment history", err)
	}
	return history.AnalyzeTrend(records), nil
}

func neutralBehavior() scoring.BehaviorAssessment {
	return scoring.BehaviorAssessment{
		BehaviorScore: scoring.NeutralRiskScore,
		RiskLevel:     scoring.CategoryModerate,
		DrivingStyle:  scoring.StyleNormal,
		FeatureScores: map[string]float64{},
	}
}

func neutralGeographic() scoring.GeographicAssessment {
	return scoring.GeographicAssessment{
		RiskScore:    scoring.NeutralRiskScore,
		RiskCategory: scoring.CategoryModerate,
	}
}
