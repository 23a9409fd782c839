package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/ridewise/riskmeter/internal/types"
)

// Sub-score weights for the contextual combination.
var contextWeights = struct {
	temporal, weather, traffic float64
}{0.40, 0.35, 0.25}

var conditionRisk = map[string]float64{
	"clear":      0,
	"rain":       25,
	"heavy_rain": 40,
	"snow":       45,
	"fog":        35,
	"ice":        50,
}

// Time period labels.
const (
	periodNight     = "Night"
	periodMorning   = "Morning"
	periodAfternoon = "Afternoon"
	periodEvening   = "Evening"
)

// ContextualScorer maps the driving situation (time, weather, traffic) to a
// 0-100 risk score. All inputs are optional; missing ones fall back to mild
// defaults rather than failing.
type ContextualScorer struct{}

// NewContextualScorer creates the contextual scorer.
func NewContextualScorer() *ContextualScorer {
	return &ContextualScorer{}
}

// Score assesses one situational record.
func (s *ContextualScorer) Score(ctx types.ContextRecord) ContextualAssessment {
	temporal := temporalRisk(ctx.Timestamp)
	weather := weatherRisk(ctx.Weather)
	traffic := trafficRisk(ctx.Traffic)

	combined := temporal.RiskScore*contextWeights.temporal +
		weather.RiskScore*contextWeights.weather +
		traffic.RiskScore*contextWeights.traffic

	interaction := riskInteractions(temporal, weather, traffic)
	final := clamp(combined+interaction, 0, 100)

	factors := make([]string, 0, len(temporal.RiskFactors)+len(weather.RiskFactors)+len(traffic.RiskFactors))
	factors = append(factors, temporal.RiskFactors...)
	factors = append(factors, weather.RiskFactors...)
	factors = append(factors, traffic.RiskFactors...)

	return ContextualAssessment{
		RiskScore:    final,
		RiskCategory: contextCategory(final),
		Components: ContextComponents{
			Temporal: temporal,
			Weather:  weather,
			Traffic:  traffic,
		},
		InteractionBonus: interaction,
		RiskFactors:      factors,
	}
}

func temporalRisk(ts time.Time) TemporalRisk {
	hour := ts.Hour()
	weekday := ts.Weekday()
	month := ts.Month()

	risk := 20.0
	var factors []string

	period := timePeriod(hour)
	switch period {
	case periodNight:
		risk += 25
	case periodMorning:
		risk += 15
	case periodAfternoon:
		risk += 10
	case periodEvening:
		risk += 20
	}

	rush := isRushHour(hour)
	if rush {
		risk += 25
		factors = append(factors, "Rush hour traffic (+25)")
	}

	weekend := weekday == time.Saturday || weekday == time.Sunday
	if weekend {
		if hour >= 22 || hour <= 3 {
			risk += 30
			factors = append(factors, "Weekend night driving (+30)")
		} else {
			risk += 5
		}
	}

	if weekday == time.Friday && hour >= 17 && hour <= 20 {
		risk += 15
		factors = append(factors, "Friday evening (+15)")
	}

	if month == time.December || month == time.January || month == time.February {
		risk += 10
		factors = append(factors, "Winter season (+10)")
	}

	return TemporalRisk{
		RiskScore:   clamp(risk, 0, 100),
		TimePeriod:  period,
		IsRushHour:  rush,
		IsWeekend:   weekend,
		RiskFactors: factors,
	}
}

func weatherRisk(w *types.WeatherConditions) WeatherRisk {
	if w == nil {
		w = &types.WeatherConditions{TemperatureC: 20, VisibilityKM: 10, Conditions: "clear"}
	}

	risk := 15.0
	var factors []string

	if w.PrecipitationMM > 0 {
		var precipRisk float64
		var label string
		switch {
		case w.PrecipitationMM <= 2:
			precipRisk, label = 15, "Light rain"
		case w.PrecipitationMM <= 10:
			precipRisk, label = 25, "Moderate rain"
		default:
			precipRisk, label = 40, "Heavy rain"
		}
		risk += precipRisk
		factors = append(factors, fmt.Sprintf("%s (+%.0f)", label, precipRisk))
	}

	switch {
	case w.TemperatureC < 0:
		risk += 30
		factors = append(factors, "Freezing conditions (+30)")
	case w.TemperatureC < 5:
		risk += 15
		factors = append(factors, "Cold conditions (+15)")
	}

	switch {
	case w.VisibilityKM < 1:
		risk += 40
		factors = append(factors, "Very poor visibility (+40)")
	case w.VisibilityKM < 5:
		risk += 25
		factors = append(factors, "Poor visibility (+25)")
	case w.VisibilityKM < 10:
		risk += 10
		factors = append(factors, "Reduced visibility (+10)")
	}

	switch {
	case w.WindSpeedKMH > 50:
		risk += 20
		factors = append(factors, "High winds (+20)")
	case w.WindSpeedKMH > 30:
		risk += 10
		factors = append(factors, "Moderate winds (+10)")
	}

	condition := strings.ToLower(w.Conditions)
	if condition == "" {
		condition = "clear"
	}
	if cr := conditionRisk[condition]; cr > 0 {
		risk += cr
		factors = append(factors, fmt.Sprintf("%s conditions (+%.0f)", titleCase(condition), cr))
	}

	return WeatherRisk{
		RiskScore:   clamp(risk, 0, 100),
		Conditions:  condition,
		RiskFactors: factors,
	}
}

func trafficRisk(t *types.TrafficConditions) TrafficRisk {
	if t == nil {
		t = &types.TrafficConditions{Density: "moderate", AverageSpeedKMH: 50, SpeedLimitKMH: 50}
	}

	risk := 20.0
	var factors []string

	density := strings.ToLower(t.Density)
	if density == "" {
		density = "moderate"
	}
	densityRisk := 15.0
	switch density {
	case "light":
		densityRisk = 5
	case "moderate":
		densityRisk = 15
	case "heavy":
		densityRisk = 30
	case "severe":
		densityRisk = 45
	}
	risk += densityRisk
	if densityRisk > 15 {
		factors = append(factors, fmt.Sprintf("%s traffic (+%.0f)", titleCase(density), densityRisk))
	}

	speedRatio := 0.0
	if t.SpeedLimitKMH > 0 {
		speedRatio = t.AverageSpeedKMH / t.SpeedLimitKMH
		switch {
		case speedRatio < 0.3:
			risk += 25
			factors = append(factors, "Very slow traffic (+25)")
		case speedRatio < 0.5:
			risk += 15
			factors = append(factors, "Slow traffic (+15)")
		case speedRatio > 1.3:
			risk += 20
			factors = append(factors, "Fast traffic (+20)")
		}
	}

	if t.ActiveIncidents > 0 {
		incidentRisk := min(30, float64(t.ActiveIncidents)*10)
		risk += incidentRisk
		factors = append(factors, fmt.Sprintf("Active incidents (+%.0f)", incidentRisk))
	}

	if t.ConstructionZones > 0 {
		constructionRisk := min(20, float64(t.ConstructionZones)*15)
		risk += constructionRisk
		factors = append(factors, fmt.Sprintf("Construction zones (+%.0f)", constructionRisk))
	}

	return TrafficRisk{
		RiskScore:   clamp(risk, 0, 100),
		Density:     density,
		SpeedRatio:  speedRatio,
		RiskFactors: factors,
	}
}

// riskInteractions adds bonuses where situational factors compound: bad
// weather at night, congestion in bad weather, rush hour in bad weather,
// weekend nights paired with any other elevated factor.
func riskInteractions(temporal TemporalRisk, weather WeatherRisk, traffic TrafficRisk) float64 {
	bonus := 0.0

	if weather.RiskScore > 40 && temporal.TimePeriod == periodNight {
		bonus += 15
	}
	if traffic.RiskScore > 50 && weather.RiskScore > 40 {
		bonus += 10
	}
	if temporal.IsRushHour && weather.RiskScore > 30 {
		bonus += 12
	}
	if temporal.IsWeekend && temporal.TimePeriod == periodNight &&
		(weather.RiskScore > 30 || traffic.RiskScore > 40) {
		bonus += 8
	}

	return bonus
}

func timePeriod(hour int) string {
	switch {
	case hour < 6:
		return periodNight
	case hour < 12:
		return periodMorning
	case hour < 18:
		return periodAfternoon
	default:
		return periodEvening
	}
}

// Rush hour is inclusive on both ends of each span.
func isRushHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// contextCategory uses the contextual model's own thresholds, which are
// coarser than the geographic ones.
func contextCategory(risk float64) string {
	switch {
	case risk < 30:
		return CategoryLow
	case risk < 60:
		return CategoryModerate
	case risk < 80:
		return CategoryHigh
	default:
		return CategoryVeryHigh
	}
}
