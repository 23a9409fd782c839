// Package history persists completed risk assessments and serves the
// per-driver trend analysis built on top of them.
package history

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool creates a new database connection pool
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}

// NewDB creates a new database connection with optimized pooling
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "riskmeter.db")

	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(); err != nil {
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized with connection pooling",
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns,
		"max_lifetime", pool.maxLifetime)

	return database, nil
}

// migrate creates the necessary tables
func (db *DB) migrate() error {
	queries := []string{
		// Assessment history. driver_hash is the anonymized driver
		// identifier; raw driver IDs never reach disk.
		`CREATE TABLE IF NOT EXISTS risk_assessments (
			id TEXT PRIMARY KEY,
			driver_hash TEXT NOT NULL,
			risk_score REAL NOT NULL,
			safety_score REAL NOT NULL,
			risk_category TEXT NOT NULL,
			behavior_score REAL NOT NULL,
			geographic_risk REAL NOT NULL,
			contextual_risk REAL NOT NULL,
			premium_tier TEXT NOT NULL,
			confidence REAL NOT NULL,
			detail TEXT, -- JSON snapshot of the full assessment
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS driver_stats (
			driver_hash TEXT PRIMARY KEY,
			total_points INTEGER NOT NULL DEFAULT 0,
			badges TEXT NOT NULL DEFAULT '[]', -- JSON array of badge names
			safety_streak INTEGER NOT NULL DEFAULT 0,
			smooth_streak INTEGER NOT NULL DEFAULT 0,
			low_risk_streak INTEGER NOT NULL DEFAULT 0,
			high_behavior_trips INTEGER NOT NULL DEFAULT 0,
			low_risk_location_trips INTEGER NOT NULL DEFAULT 0,
			weather_challenge_trips INTEGER NOT NULL DEFAULT 0,
			expert_excellence_trips INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		)`,

		// Indexes for performance
		`CREATE INDEX IF NOT EXISTS idx_assessments_driver ON risk_assessments(driver_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_created ON risk_assessments(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_driver_created ON risk_assessments(driver_hash, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// initPreparedStatements initializes frequently used prepared statements
func (db *DB) initPreparedStatements() error {
	statements := map[string]string{
		"insert_assessment": `INSERT INTO risk_assessments (
			id, driver_hash, risk_score, safety_score, risk_category,
			behavior_score, geographic_risk, contextual_risk,
			premium_tier, confidence, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		"get_assessments_by_driver": `SELECT id, driver_hash, risk_score, safety_score, risk_category,
			behavior_score, geographic_risk, contextual_risk, premium_tier, confidence, created_at
			FROM risk_assessments WHERE driver_hash = ? ORDER BY created_at ASC`,

		"delete_assessments_by_driver": `DELETE FROM risk_assessments WHERE driver_hash = ?`,

		"upsert_driver_stats": `INSERT INTO driver_stats (
			driver_hash, total_points, badges, safety_streak, smooth_streak, low_risk_streak,
			high_behavior_trips, low_risk_location_trips, weather_challenge_trips,
			expert_excellence_trips, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(driver_hash) DO UPDATE SET
			total_points = excluded.total_points,
			badges = excluded.badges,
			safety_streak = excluded.safety_streak,
			smooth_streak = excluded.smooth_streak,
			low_risk_streak = excluded.low_risk_streak,
			high_behavior_trips = excluded.high_behavior_trips,
			low_risk_location_trips = excluded.low_risk_location_trips,
			weather_challenge_trips = excluded.weather_challenge_trips,
			expert_excellence_trips = excluded.expert_excellence_trips,
			updated_at = excluded.updated_at`,

		"get_driver_stats": `SELECT driver_hash, total_points, badges, safety_streak, smooth_streak,
			low_risk_streak, high_behavior_trips, low_risk_location_trips,
			weather_challenge_trips, expert_excellence_trips, updated_at
			FROM driver_stats WHERE driver_hash = ?`,

		"get_top_drivers": `SELECT driver_hash, total_points, badges, safety_streak, smooth_streak,
			low_risk_streak, high_behavior_trips, low_risk_location_trips,
			weather_challenge_trips, expert_excellence_trips, updated_at
			FROM driver_stats ORDER BY total_points DESC LIMIT ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}

	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
