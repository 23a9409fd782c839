// Package privacy pseudonymizes driver identifiers and implements the
// data deletion and retention flows over the assessment history.
package privacy

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/ridewise/riskmeter/internal/history"
)

// PrivacyService handles data anonymization and privacy compliance
type PrivacyService struct {
	db *history.DB
}

// NewService creates a new privacy service
func NewService(db *history.DB) *PrivacyService {
	return &PrivacyService{db: db}
}

// AnonymizeDriverID hashes a raw driver identifier. Only the hash is ever
// persisted or logged.
func AnonymizeDriverID(driverID string) string {
	hash := sha256.Sum256([]byte(driverID))
	return hex.EncodeToString(hash[:])
}

// DeleteDriverData removes all data associated with a driver hash
func (ps *PrivacyService) DeleteDriverData(driverHash string) error {
	slog.Info("Initiating GDPR-compliant data deletion", "driver_hash", shortHash(driverHash))

	assessmentResult, err := ps.db.Exec("DELETE FROM risk_assessments WHERE driver_hash = ?", driverHash)
	if err != nil {
		return fmt.Errorf("failed to delete driver assessments: %w", err)
	}
	assessmentRows, _ := assessmentResult.RowsAffected()

	statsResult, err := ps.db.Exec("DELETE FROM driver_stats WHERE driver_hash = ?", driverHash)
	if err != nil {
		return fmt.Errorf("failed to delete driver stats: %w", err)
	}
	statsRows, _ := statsResult.RowsAffected()

	slog.Info("Data deletion completed",
		"driver_hash", shortHash(driverHash),
		"assessments_deleted", assessmentRows,
		"stats_deleted", statsRows,
	)

	return nil
}

// GetDataRetentionInfo provides information about data retention policies
func (ps *PrivacyService) GetDataRetentionInfo() map[string]interface{} {
	return map[string]interface{}{
		"assessment_retention_days":   365,
		"reward_stats_retention_days": 365,
		"cache_retention_minutes":     15,
		"anonymization_method":        "SHA-256",
		"data_deletion_response_time": "24 hours",
		"privacy_policy_url":          "/privacy-policy",
	}
}

// ScheduleDataCleanup deletes assessments older than the retention window.
func (ps *PrivacyService) ScheduleDataCleanup(retentionDays int) error {
	slog.Info("Scheduling data cleanup", "retention_days", retentionDays)

	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	result, err := ps.db.Exec("DELETE FROM risk_assessments WHERE created_at < ?", cutoffDate)
	if err != nil {
		return fmt.Errorf("failed to delete old assessments: %w", err)
	}

	rows, _ := result.RowsAffected()

	slog.Info("Data cleanup completed", "cutoff_date", cutoffDate, "assessments_deleted", rows)
	return nil
}

// GetPrivacySettings returns stored-data facts for a driver hash.
func (ps *PrivacyService) GetPrivacySettings(driverHash string) (map[string]interface{}, error) {
	query := `
		SELECT
			COUNT(*) as total_assessments,
			MAX(created_at) as last_assessment_date,
			MIN(created_at) as first_assessment_date
		FROM risk_assessments
		WHERE driver_hash = ?
	`

	// Aggregates lose the column's declared type, so sqlite hands the
	// timestamps back as text.
	var totalAssessments int
	var lastRaw, firstRaw sql.NullString

	err := ps.db.QueryRow(query, driverHash).Scan(&totalAssessments, &lastRaw, &firstRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to get privacy settings: %w", err)
	}

	lastDate := parseStoredTime(lastRaw)
	firstDate := parseStoredTime(firstRaw)

	return map[string]interface{}{
		"driver_hash":           shortHash(driverHash),
		"total_assessments":     totalAssessments,
		"last_assessment_date":  lastDate,
		"first_assessment_date": firstDate,
		"data_retention_info":   ps.GetDataRetentionInfo(),
		"can_delete_data":       true,
	}, nil
}

var storedTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

func parseStoredTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	for _, format := range storedTimeFormats {
		if t, err := time.Parse(format, raw.String); err == nil {
			return &t
		}
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8] + "..."
}
