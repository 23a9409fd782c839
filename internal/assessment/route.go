package assessment

import (
	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/scoring"
	"github.com/ridewise/riskmeter/internal/types"
)

// highRiskSegmentThreshold flags route points whose geographic risk calls
// for a warning.
const highRiskSegmentThreshold = 75.0

// RouteSegment is the assessment of one point along a route.
type RouteSegment struct {
	Index      int                          `json:"index"`
	Assessment scoring.GeographicAssessment `json:"assessment"`
	HighRisk   bool                         `json:"high_risk"`
}

// RouteResult summarizes the geographic risk along a route.
type RouteResult struct {
	Segments         []RouteSegment `json:"segments"`
	AverageRisk      float64        `json:"average_risk"`
	MaxRisk          float64        `json:"max_risk"`
	MinRisk          float64        `json:"min_risk"`
	RiskVariance     float64        `json:"risk_variance"`
	HighRiskSegments int            `json:"high_risk_segments"`
	RiskCategory     string         `json:"risk_category"`
}

// AssessRoute scores each point of a route with the geographic expert and
// aggregates the results. Any invalid coordinate fails the whole request.
func (s *Service) AssessRoute(req types.RouteAssessRequest) (*RouteResult, error) {
	if len(req.Points) == 0 {
		return nil, errors.NewInvalidInputError("route contains no points", nil)
	}

	segments := make([]RouteSegment, 0, len(req.Points))
	risks := make([]float64, 0, len(req.Points))
	highRisk := 0

	for i, p := range req.Points {
		assessment, err := s.geographic.Score(types.LocationRecord{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Road:      p.Road,
		})
		if err != nil {
			return nil, errors.WrapError(err, "route point %d", i)
		}

		seg := RouteSegment{
			Index:      i,
			Assessment: assessment,
			HighRisk:   assessment.RiskScore > highRiskSegmentThreshold,
		}
		if seg.HighRisk {
			highRisk++
		}
		segments = append(segments, seg)
		risks = append(risks, assessment.RiskScore)
	}

	avg, minRisk, maxRisk, variance := riskStats(risks)

	return &RouteResult{
		Segments:         segments,
		AverageRisk:      avg,
		MaxRisk:          maxRisk,
		MinRisk:          minRisk,
		RiskVariance:     variance,
		HighRiskSegments: highRisk,
		RiskCategory:     routeCategory(avg),
	}, nil
}

func riskStats(risks []float64) (avg, minRisk, maxRisk, variance float64) {
	minRisk, maxRisk = risks[0], risks[0]
	sum := 0.0
	for _, r := range risks {
		sum += r
		if r < minRisk {
			minRisk = r
		}
		if r > maxRisk {
			maxRisk = r
		}
	}
	avg = sum / float64(len(risks))

	for _, r := range risks {
		d := r - avg
		variance += d * d
	}
	variance /= float64(len(risks))
	return avg, minRisk, maxRisk, variance
}

func routeCategory(avgRisk float64) string {
	switch {
	case avgRisk < 20:
		return scoring.CategoryVeryLow
	case avgRisk < 40:
		return scoring.CategoryLow
	case avgRisk < 60:
		return scoring.CategoryModerate
	case avgRisk < 80:
		return scoring.CategoryHigh
	default:
		return scoring.CategoryVeryHigh
	}
}
