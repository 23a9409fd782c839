// Package gamification turns completed assessments into reward points,
// badges, and a safe-driver leaderboard.
package gamification

import (
	"fmt"
	"log/slog"

	"github.com/ridewise/riskmeter/internal/assessment"
	"github.com/ridewise/riskmeter/internal/history"
	"github.com/ridewise/riskmeter/internal/privacy"
	"github.com/ridewise/riskmeter/internal/scoring"
)

// Point values per reward event.
const (
	pointsTripCompletion    = 50
	pointsExcellentBehavior = 150
	pointsSafeTrip          = 100
	pointsSmoothDriving     = 75
	pointsLowRiskLocation   = 50
	pointsWeatherAwareness  = 50
	pointsTrafficAwareness  = 40
	pointsRushHourSafety    = 60
	pointsNightSafety       = 80
)

// Level is one row of the driver level table.
type Level struct {
	Number         int      `json:"number"`
	Name           string   `json:"name"`
	PointsRequired int      `json:"points_required"`
	Benefits       []string `json:"benefits"`
}

var levels = []Level{
	{1, "Telematics Novice", 0, []string{"Basic insights"}},
	{2, "Sensor Student", 500, []string{"Behavior tracking", "5% discount"}},
	{3, "Location Learner", 1500, []string{"Route recommendations", "10% discount"}},
	{4, "Context Aware", 3000, []string{"Weather alerts", "15% discount"}},
	{5, "Risk Expert", 5000, []string{"Premium insights", "20% discount"}},
	{6, "Safety Master", 8000, []string{"Advanced analytics", "25% discount"}},
	{7, "Telematics Legend", 12000, []string{"Maximum benefits", "30% discount"}},
}

// Badge names.
const (
	BadgeSensorMaster   = "sensor_master"
	BadgeLocationWise   = "location_wise"
	BadgeWeatherWarrior = "weather_warrior"
	BadgeEnsembleExpert = "ensemble_expert"
)

// LevelProgress describes where a point total sits in the level table.
type LevelProgress struct {
	CurrentLevel    int     `json:"current_level"`
	LevelName       string  `json:"level_name"`
	PointsToNext    int     `json:"points_to_next"`
	ProgressPercent float64 `json:"progress_percent"`
}

// RewardSummary is the gamification outcome of one assessment.
type RewardSummary struct {
	PointsEarned    int            `json:"points_earned"`
	TotalPoints     int            `json:"total_points"`
	PointsBreakdown map[string]int `json:"points_breakdown"`
	BadgesEarned    []string       `json:"badges_earned"`
	LevelProgress   LevelProgress  `json:"level_progress"`
	SafetyStreak    int            `json:"safety_streak"`
}

// LeaderboardEntry is one row of the safe-driver leaderboard. Only the
// anonymized driver hash is exposed.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	DriverHash  string `json:"driver_hash"`
	TotalPoints int    `json:"total_points"`
	LevelName   string `json:"level_name"`
	BadgeCount  int    `json:"badge_count"`
}

// Service maintains per-driver reward state in the history store.
type Service struct {
	store *history.Store
}

// NewService creates the gamification service.
func NewService(store *history.Store) *Service {
	return &Service{store: store}
}

// AwardForAssessment computes reward points for a completed assessment and
// updates the driver's persistent stats.
func (s *Service) AwardForAssessment(driverID string, result *assessment.Result) (*RewardSummary, error) {
	driverHash := privacy.AnonymizeDriverID(driverID)

	stats, err := s.store.GetDriverStats(driverHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver stats: %w", err)
	}

	breakdown := map[string]int{"trip_completion": pointsTripCompletion}
	total := pointsTripCompletion

	behavior := result.ExpertAssessments.Behavior
	geo := result.ExpertAssessments.Geographic
	contextual := result.ExpertAssessments.Contextual
	finalRisk := result.Overall.FinalRiskScore

	switch {
	case behavior.BehaviorScore >= 90:
		breakdown["excellent_behavior"] = pointsExcellentBehavior
		total += pointsExcellentBehavior
	case behavior.BehaviorScore >= 80:
		breakdown["safe_trip"] = pointsSafeTrip
		total += pointsSafeTrip
	}

	if behavior.DrivingStyle == scoring.StyleSmooth {
		breakdown["smooth_driving"] = pointsSmoothDriving
		total += pointsSmoothDriving
	}

	if geo.RiskScore < 40 {
		breakdown["low_risk_location"] = pointsLowRiskLocation
		total += pointsLowRiskLocation
	}

	// Composure bonuses: low overall contextual risk despite a hostile
	// component.
	if contextual.Components.Weather.RiskScore > 40 && contextual.RiskScore < 60 {
		breakdown["weather_awareness"] = pointsWeatherAwareness
		total += pointsWeatherAwareness
	}
	if contextual.Components.Traffic.RiskScore > 50 && contextual.RiskScore < 60 {
		breakdown["traffic_awareness"] = pointsTrafficAwareness
		total += pointsTrafficAwareness
	}
	if contextual.Components.Temporal.IsRushHour && finalRisk < 50 {
		breakdown["rush_hour_safety"] = pointsRushHourSafety
		total += pointsRushHourSafety
	}
	if contextual.Components.Temporal.TimePeriod == "Night" && behavior.BehaviorScore >= 85 {
		breakdown["night_safety"] = pointsNightSafety
		total += pointsNightSafety
	}

	updateStreaksAndCounters(&stats, behavior, geo, contextual, finalRisk)
	stats.TotalPoints += total

	newBadges := checkBadges(&stats, behavior, geo, contextual)
	stats.Badges = append(stats.Badges, newBadges...)

	if err := s.store.SaveDriverStats(stats); err != nil {
		return nil, fmt.Errorf("failed to save driver stats: %w", err)
	}

	if len(newBadges) > 0 {
		slog.Info("Badges earned", "driver_hash", driverHash[:8]+"...", "badges", newBadges)
	}

	return &RewardSummary{
		PointsEarned:    total,
		TotalPoints:     stats.TotalPoints,
		PointsBreakdown: breakdown,
		BadgesEarned:    newBadges,
		LevelProgress:   Progress(stats.TotalPoints),
		SafetyStreak:    stats.SafetyStreak,
	}, nil
}

func updateStreaksAndCounters(stats *history.DriverStats, behavior scoring.BehaviorAssessment,
	geo scoring.GeographicAssessment, contextual scoring.ContextualAssessment, finalRisk float64) {

	if behavior.BehaviorScore >= 80 {
		stats.SafetyStreak++
	} else {
		stats.SafetyStreak = 0
	}
	if behavior.DrivingStyle == scoring.StyleSmooth {
		stats.SmoothStreak++
	} else {
		stats.SmoothStreak = 0
	}
	if finalRisk < 40 {
		stats.LowRiskStreak++
	} else {
		stats.LowRiskStreak = 0
	}

	if behavior.BehaviorScore >= 90 {
		stats.HighBehaviorTrips++
	}
	if geo.RiskScore < 40 {
		stats.LowRiskLocationTrips++
	}
	if contextual.Components.Weather.RiskScore > 40 && contextual.RiskScore < 60 {
		stats.WeatherChallengeTrips++
	}
	if behavior.BehaviorScore >= 85 && geo.RiskScore <= 20 && contextual.RiskScore <= 20 {
		stats.ExpertExcellenceTrips++
	}
}

// checkBadges awards badges whose trip-count criteria the updated stats
// now satisfy.
func checkBadges(stats *history.DriverStats, behavior scoring.BehaviorAssessment,
	geo scoring.GeographicAssessment, contextual scoring.ContextualAssessment) []string {

	var earned []string

	if behavior.BehaviorScore >= 90 && stats.HighBehaviorTrips >= 10 && !hasBadge(stats, BadgeSensorMaster) {
		earned = append(earned, BadgeSensorMaster)
	}
	if geo.RiskScore < 40 && stats.LowRiskLocationTrips >= 15 && !hasBadge(stats, BadgeLocationWise) {
		earned = append(earned, BadgeLocationWise)
	}
	if contextual.RiskScore < 60 && stats.WeatherChallengeTrips >= 5 && !hasBadge(stats, BadgeWeatherWarrior) {
		earned = append(earned, BadgeWeatherWarrior)
	}
	if stats.ExpertExcellenceTrips >= 10 && !hasBadge(stats, BadgeEnsembleExpert) {
		earned = append(earned, BadgeEnsembleExpert)
	}

	return earned
}

func hasBadge(stats *history.DriverStats, badge string) bool {
	for _, b := range stats.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// Progress places a point total in the level table.
func Progress(totalPoints int) LevelProgress {
	current := levels[0]
	for _, l := range levels {
		if totalPoints >= l.PointsRequired {
			current = l
		}
	}

	if current.Number == levels[len(levels)-1].Number {
		return LevelProgress{
			CurrentLevel:    current.Number,
			LevelName:       current.Name,
			ProgressPercent: 100,
		}
	}

	next := levels[current.Number] // levels are 1-indexed by Number
	span := next.PointsRequired - current.PointsRequired
	progress := float64(totalPoints-current.PointsRequired) / float64(span) * 100

	return LevelProgress{
		CurrentLevel:    current.Number,
		LevelName:       current.Name,
		PointsToNext:    next.PointsRequired - totalPoints,
		ProgressPercent: progress,
	}
}

// DriverStatus is the persistent reward state of one driver.
type DriverStatus struct {
	DriverHash    string        `json:"driver_hash"`
	TotalPoints   int           `json:"total_points"`
	Badges        []string      `json:"badges"`
	SafetyStreak  int           `json:"safety_streak"`
	SmoothStreak  int           `json:"smooth_streak"`
	LowRiskStreak int           `json:"low_risk_streak"`
	LevelProgress LevelProgress `json:"level_progress"`
}

// Status returns the driver's current points, badges, and level.
func (s *Service) Status(driverID string) (*DriverStatus, error) {
	driverHash := privacy.AnonymizeDriverID(driverID)

	stats, err := s.store.GetDriverStats(driverHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver stats: %w", err)
	}

	return &DriverStatus{
		DriverHash:    driverHash,
		TotalPoints:   stats.TotalPoints,
		Badges:        stats.Badges,
		SafetyStreak:  stats.SafetyStreak,
		SmoothStreak:  stats.SmoothStreak,
		LowRiskStreak: stats.LowRiskStreak,
		LevelProgress: Progress(stats.TotalPoints),
	}, nil
}

// Leaderboard returns the top drivers by reward points.
func (s *Service) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	top, err := s.store.TopDrivers(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(top))
	for i, stats := range top {
		entries = append(entries, LeaderboardEntry{
			Rank:        i + 1,
			DriverHash:  stats.DriverHash,
			TotalPoints: stats.TotalPoints,
			LevelName:   Progress(stats.TotalPoints).LevelName,
			BadgeCount:  len(stats.Badges),
		})
	}
	return entries, nil
}
