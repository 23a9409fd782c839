package scoring

import (
	"fmt"
	"math"

	"github.com/ridewise/riskmeter/internal/errors"
	"github.com/ridewise/riskmeter/internal/geodata"
	"github.com/ridewise/riskmeter/internal/types"
)

const earthRadiusKM = 6371.0

// Sub-score weights for the geographic combination.
var geoWeights = struct {
	grid, cluster, infrastructure, historical float64
}{0.30, 0.25, 0.25, 0.20}

var geoCategoryThresholds = [4]float64{20, 40, 60, 80}

var roadTypeRisk = map[string]float64{
	"urban_center": 35,
	"highway":      40,
	"rural":        15,
	"suburban":     25,
	"industrial":   30,
	"commercial":   28,
}

const defaultRoadRisk = 25

var surfaceRisk = map[string]float64{
	"poor":      25,
	"fair":      15,
	"good":      5,
	"excellent": 0,
}

var lightingRisk = map[string]float64{
	"poor":     20,
	"limited":  15,
	"adequate": 5,
	"good":     0,
}

// GeographicScorer maps a coordinate and optional road attributes to a
// 0-100 risk score. All accident data comes from the injected source; a
// lookup miss degrades the affected sub-score to its base value instead of
// failing the assessment.
type GeographicScorer struct {
	source geodata.HistoricalSource
}

// NewGeographicScorer creates a scorer backed by the given data source.
func NewGeographicScorer(source geodata.HistoricalSource) *GeographicScorer {
	return &GeographicScorer{source: source}
}

// Score assesses one location. Out-of-range coordinates are rejected before
// any sub-score is computed.
func (s *GeographicScorer) Score(loc types.LocationRecord) (GeographicAssessment, error) {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return GeographicAssessment{}, errors.NewInvalidInputError(
			fmt.Sprintf("coordinates out of range: lat=%v lon=%v", loc.Latitude, loc.Longitude), nil)
	}

	var notes []string

	grid := s.gridRisk(loc.Latitude, loc.Longitude, &notes)
	cluster := s.clusterRisk(loc.Latitude, loc.Longitude, &notes)
	infra := s.infrastructureRisk(loc.Road)
	historical := s.historicalRisk(loc.Latitude, loc.Longitude, &notes)

	combined := grid.RiskScore*geoWeights.grid +
		cluster.RiskScore*geoWeights.cluster +
		infra.RiskScore*geoWeights.infrastructure +
		historical.RiskScore*geoWeights.historical

	final := s.applyLocationModifiers(combined, loc.Latitude, loc.Longitude, &notes)

	return GeographicAssessment{
		RiskScore:    final,
		RiskCategory: categorize(final, geoCategoryThresholds),
		Components: GeographicComponents{
			Grid:           grid,
			Cluster:        cluster,
			Infrastructure: infra,
			Historical:     historical,
		},
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		GridCell:    geodata.GridCell(loc.Latitude, loc.Longitude),
		RiskFactors: notes,
	}, nil
}

func (s *GeographicScorer) gridRisk(lat, lon float64, notes *[]string) GridRisk {
	stats, err := s.source.GridStats(lat, lon)
	if err != nil && err != geodata.ErrNoData {
		*notes = append(*notes, "grid statistics unavailable, using base risk")
	}

	frequencyRisk := min(40, stats.AccidentFrequency*2)
	casualtyRisk := min(30, stats.CasualtyRate*15)

	return GridRisk{
		RiskScore:         clamp(30+frequencyRisk+casualtyRisk, 0, 100),
		AccidentFrequency: stats.AccidentFrequency,
		CasualtyRate:      stats.CasualtyRate,
		GridCell:          geodata.GridCell(lat, lon),
	}
}

func (s *GeographicScorer) clusterRisk(lat, lon float64, notes *[]string) ClusterRisk {
	clusters, err := s.source.NearbyClusters(lat, lon)
	if err != nil && err != geodata.ErrNoData {
		*notes = append(*notes, "accident cluster data unavailable, using base risk")
		clusters = nil
	}

	nearest := math.Inf(1)
	for _, c := range clusters {
		d := haversineKM(lat, lon, c.Latitude, c.Longitude)
		if d < nearest {
			nearest = d
		}
	}

	proximity := 0.0
	switch {
	case nearest < 0.5:
		proximity = 40
	case nearest < 1.0:
		proximity = 25
	case nearest < 2.0:
		proximity = 15
	case nearest < 5.0:
		proximity = 8
	}

	return ClusterRisk{
		RiskScore:              clamp(20+proximity, 0, 100),
		NearestClusterDistance: nearest,
		NearbyClusters:         len(clusters),
		ProximityRisk:          proximity,
	}
}

func (s *GeographicScorer) infrastructureRisk(road *types.RoadAttributes) InfrastructureRisk {
	if road == nil {
		road = &types.RoadAttributes{}
	}

	roadRisk := float64(defaultRoadRisk)
	if r, ok := roadTypeRisk[road.RoadType]; ok {
		roadRisk = r
	}

	speedRisk := 0.0
	switch {
	case road.SpeedLimit > 80:
		speedRisk = 20
	case road.SpeedLimit > 60:
		speedRisk = 10
	}

	sRisk := 5.0
	if r, ok := surfaceRisk[road.RoadSurface]; ok {
		sRisk = r
	}

	lRisk := 5.0
	if r, ok := lightingRisk[road.Lighting]; ok {
		lRisk = r
	}

	signalRisk := 0.0
	if road.TrafficSignals != nil && !*road.TrafficSignals {
		signalRisk = 10
	}

	total := 25 + roadRisk + speedRisk + sRisk + lRisk + signalRisk

	roadType := road.RoadType
	if roadType == "" {
		roadType = "unknown"
	}

	return InfrastructureRisk{
		RiskScore:      clamp(total, 0, 100),
		RoadType:       roadType,
		RoadRisk:       roadRisk,
		SpeedLimitRisk: speedRisk,
		SurfaceRisk:    sRisk,
		LightingRisk:   lRisk,
		SignalRisk:     signalRisk,
	}
}

func (s *GeographicScorer) historicalRisk(lat, lon float64, notes *[]string) HistoricalRisk {
	history, err := s.source.AccidentHistory(lat, lon)
	if err != nil && err != geodata.ErrNoData {
		*notes = append(*notes, "historical accident data unavailable, using base risk")
	}

	frequencyRisk := min(30, float64(history.TotalAccidents)*2)
	severityRisk := 0.0
	if history.AverageSeverity > 1 {
		severityRisk = min(25, (history.AverageSeverity-1)*12.5)
	}
	casualtyRisk := min(20, float64(history.TotalCasualties))

	return HistoricalRisk{
		RiskScore:       clamp(20+frequencyRisk+severityRisk+casualtyRisk, 0, 100),
		TotalAccidents:  history.TotalAccidents,
		AverageSeverity: history.AverageSeverity,
		TotalCasualties: history.TotalCasualties,
	}
}

// applyLocationModifiers multiplies the combined risk by the area modifiers
// in sequence: urban ×1.10, near-highway ×1.08, weather-prone ×1.05.
func (s *GeographicScorer) applyLocationModifiers(risk, lat, lon float64, notes *[]string) float64 {
	flags, err := s.source.AreaFlags(lat, lon)
	if err != nil {
		if err != geodata.ErrNoData {
			*notes = append(*notes, "area flags unavailable, skipping location modifiers")
		}
		return clamp(risk, 0, 100)
	}

	if flags.Urban {
		risk *= 1.10
	}
	if flags.NearHighway {
		risk *= 1.08
	}
	if flags.WeatherProne {
		risk *= 1.05
	}
	return clamp(risk, 0, 100)
}

// haversineKM is the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKM * c
}
