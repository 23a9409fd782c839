package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one stored assessment row. Detail carries the full assessment
// JSON when it was requested at save time.
type Record struct {
	ID             string    `json:"id"`
	DriverHash     string    `json:"driver_hash"`
	RiskScore      float64   `json:"risk_score"`
	SafetyScore    float64   `json:"safety_score"`
	RiskCategory   string    `json:"risk_category"`
	BehaviorScore  float64   `json:"behavior_score"`
	GeographicRisk float64   `json:"geographic_risk"`
	ContextualRisk float64   `json:"contextual_risk"`
	PremiumTier    string    `json:"premium_tier"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

// DriverStats is the per-driver reward state maintained alongside the
// assessment history.
type DriverStats struct {
	DriverHash            string    `json:"driver_hash"`
	TotalPoints           int       `json:"total_points"`
	Badges                []string  `json:"badges"`
	SafetyStreak          int       `json:"safety_streak"`
	SmoothStreak          int       `json:"smooth_streak"`
	LowRiskStreak         int       `json:"low_risk_streak"`
	HighBehaviorTrips     int       `json:"high_behavior_trips"`
	LowRiskLocationTrips  int       `json:"low_risk_location_trips"`
	WeatherChallengeTrips int       `json:"weather_challenge_trips"`
	ExpertExcellenceTrips int       `json:"expert_excellence_trips"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Store reads and writes assessment history.
type Store struct {
	db *DB
}

// NewStore creates a store over the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// SaveAssessment persists one completed assessment. The record's ID is
// assigned here; detail may be nil.
func (s *Store) SaveAssessment(rec Record, detail interface{}) (string, error) {
	stmt, err := s.db.GetPreparedStatement("insert_assessment")
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var detailJSON []byte
	if detail != nil {
		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return "", fmt.Errorf("failed to marshal assessment detail: %w", err)
		}
	}

	_, err = stmt.Exec(
		id, rec.DriverHash, rec.RiskScore, rec.SafetyScore, rec.RiskCategory,
		rec.BehaviorScore, rec.GeographicRisk, rec.ContextualRisk,
		rec.PremiumTier, rec.Confidence, string(detailJSON), createdAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save assessment: %w", err)
	}

	return id, nil
}

// AssessmentsByDriver returns a driver's assessments oldest first, the
// order the trend analysis expects.
func (s *Store) AssessmentsByDriver(driverHash string) ([]Record, error) {
	stmt, err := s.db.GetPreparedStatement("get_assessments_by_driver")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(driverHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.DriverHash, &r.RiskScore, &r.SafetyScore, &r.RiskCategory,
			&r.BehaviorScore, &r.GeographicRisk, &r.ContextualRisk,
			&r.PremiumTier, &r.Confidence, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteDriverData removes all stored assessments for a driver. Used by
// the privacy deletion flow.
func (s *Store) DeleteDriverData(driverHash string) (int64, error) {
	stmt, err := s.db.GetPreparedStatement("delete_assessments_by_driver")
	if err != nil {
		return 0, err
	}

	res, err := stmt.Exec(driverHash)
	if err != nil {
		return 0, fmt.Errorf("failed to delete driver assessments: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM driver_stats WHERE driver_hash = ?`, driverHash); err != nil {
		return 0, fmt.Errorf("failed to delete driver stats: %w", err)
	}

	return res.RowsAffected()
}

// GetDriverStats returns the driver's reward state, or a zero-valued
// record when the driver has none yet.
func (s *Store) GetDriverStats(driverHash string) (DriverStats, error) {
	stmt, err := s.db.GetPreparedStatement("get_driver_stats")
	if err != nil {
		return DriverStats{}, err
	}

	rows, err := stmt.Query(driverHash)
	if err != nil {
		return DriverStats{}, fmt.Errorf("failed to query driver stats: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return DriverStats{DriverHash: driverHash, Badges: []string{}}, rows.Err()
	}
	return scanDriverStats(rows)
}

// SaveDriverStats upserts the driver's reward state.
func (s *Store) SaveDriverStats(stats DriverStats) error {
	stmt, err := s.db.GetPreparedStatement("upsert_driver_stats")
	if err != nil {
		return err
	}

	badges, err := json.Marshal(stats.Badges)
	if err != nil {
		return fmt.Errorf("failed to marshal badges: %w", err)
	}

	_, err = stmt.Exec(
		stats.DriverHash, stats.TotalPoints, string(badges),
		stats.SafetyStreak, stats.SmoothStreak, stats.LowRiskStreak,
		stats.HighBehaviorTrips, stats.LowRiskLocationTrips,
		stats.WeatherChallengeTrips, stats.ExpertExcellenceTrips,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save driver stats: %w", err)
	}
	return nil
}

// TopDrivers returns the highest-scoring drivers by reward points.
func (s *Store) TopDrivers(limit int) ([]DriverStats, error) {
	stmt, err := s.db.GetPreparedStatement("get_top_drivers")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top drivers: %w", err)
	}
	defer rows.Close()

	var all []DriverStats
	for rows.Next() {
		stats, err := scanDriverStats(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, stats)
	}
	return all, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDriverStats(row rowScanner) (DriverStats, error) {
	var stats DriverStats
	var badges string
	if err := row.Scan(
		&stats.DriverHash, &stats.TotalPoints, &badges,
		&stats.SafetyStreak, &stats.SmoothStreak, &stats.LowRiskStreak,
		&stats.HighBehaviorTrips, &stats.LowRiskLocationTrips,
		&stats.WeatherChallengeTrips, &stats.ExpertExcellenceTrips,
		&stats.UpdatedAt,
	); err != nil {
		return DriverStats{}, fmt.Errorf("failed to scan driver stats: %w", err)
	}
	if err := json.Unmarshal([]byte(badges), &stats.Badges); err != nil {
		stats.Badges = []string{}
	}
	return stats, nil
}
