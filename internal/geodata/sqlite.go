package geodata

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

// gridSize is the cell edge in degrees, roughly 1 km.
const gridSize = 0.01

// clusterSearchRadius bounds the cluster lookup box in degrees.
const clusterSearchRadius = 0.05

// GridCell returns the cell identifier a coordinate falls into.
func GridCell(lat, lon float64) string {
	latGrid := math.Round(lat/gridSize) * gridSize
	lonGrid := math.Round(lon/gridSize) * gridSize
	return fmt.Sprintf("%.2f_%.2f", latGrid, lonGrid)
}

// SQLiteSource reads accident data from a sqlite spatial store.
type SQLiteSource struct {
	db *sql.DB
}

// OpenSQLiteSource opens (and if necessary initializes) the accident store
// at the given path.
func OpenSQLiteSource(path string) (*SQLiteSource, error) {
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open geodata store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to geodata store: %w", err)
	}
	src := &SQLiteSource{db: db}
	if err := src.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

func (s *SQLiteSource) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS grid_stats (
		grid_cell TEXT PRIMARY KEY,
		accident_frequency REAL NOT NULL DEFAULT 0,
		casualty_rate REAL NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS accident_clusters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		severity REAL NOT NULL DEFAULT 1,
		accident_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_clusters_lat_lon ON accident_clusters(latitude, longitude);
	CREATE TABLE IF NOT EXISTS accident_history (
		grid_cell TEXT PRIMARY KEY,
		total_accidents INTEGER NOT NULL DEFAULT 0,
		average_severity REAL NOT NULL DEFAULT 1,
		total_casualties INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS area_flags (
		grid_cell TEXT PRIMARY KEY,
		urban INTEGER NOT NULL DEFAULT 0,
		near_highway INTEGER NOT NULL DEFAULT 0,
		weather_prone INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create geodata schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) GridStats(lat, lon float64) (GridStats, error) {
	var gs GridStats
	err := s.db.QueryRow(
		`SELECT accident_frequency, casualty_rate FROM grid_stats WHERE grid_cell = ?`,
		GridCell(lat, lon),
	).Scan(&gs.AccidentFrequency, &gs.CasualtyRate)
	if err == sql.ErrNoRows {
		return GridStats{}, ErrNoData
	}
	if err != nil {
		return GridStats{}, fmt.Errorf("grid stats query failed: %w", err)
	}
	return gs, nil
}

func (s *SQLiteSource) NearbyClusters(lat, lon float64) ([]Cluster, error) {
	rows, err := s.db.Query(
		`SELECT latitude, longitude, severity, accident_count
		 FROM accident_clusters
		 WHERE latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`,
		lat-clusterSearchRadius, lat+clusterSearchRadius,
		lon-clusterSearchRadius, lon+clusterSearchRadius,
	)
	if err != nil {
		return nil, fmt.Errorf("cluster query failed: %w", err)
	}
	defer rows.Close()

	var clusters []Cluster
	for rows.Next() {
		var c Cluster
		if err := rows.Scan(&c.Latitude, &c.Longitude, &c.Severity, &c.AccidentCount); err != nil {
			return nil, fmt.Errorf("cluster scan failed: %w", err)
		}
		clusters = append(clusters, c)
	}
	return clusters, rows.Err()
}

func (s *SQLiteSource) AccidentHistory(lat, lon float64) (AccidentHistory, error) {
	var h AccidentHistory
	err := s.db.QueryRow(
		`SELECT total_accidents, average_severity, total_casualties FROM accident_history WHERE grid_cell = ?`,
		GridCell(lat, lon),
	).Scan(&h.TotalAccidents, &h.AverageSeverity, &h.TotalCasualties)
	if err == sql.ErrNoRows {
		return AccidentHistory{}, ErrNoData
	}
	if err != nil {
		return AccidentHistory{}, fmt.Errorf("accident history query failed: %w", err)
	}
	return h, nil
}

func (s *SQLiteSource) AreaFlags(lat, lon float64) (AreaFlags, error) {
	var urban, highway, weather int
	err := s.db.QueryRow(
		`SELECT urban, near_highway, weather_prone FROM area_flags WHERE grid_cell = ?`,
		GridCell(lat, lon),
	).Scan(&urban, &highway, &weather)
	if err == sql.ErrNoRows {
		return AreaFlags{}, ErrNoData
	}
	if err != nil {
		return AreaFlags{}, fmt.Errorf("area flags query failed: %w", err)
	}
	return AreaFlags{Urban: urban != 0, NearHighway: highway != 0, WeatherProne: weather != 0}, nil
}
