package store

import (
	"database/sql"
	"fmt"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema: locations, measurements, conditions",
		SQL: `
CREATE TABLE IF NOT EXISTS locations (
    location_id INTEGER PRIMARY KEY AUTOINCREMENT,
    city_name TEXT NOT NULL,
    country_code TEXT NOT NULL,
    country_name TEXT,
    state_province TEXT,
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    altitude_meters REAL,
    timezone TEXT,
    population INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(city_name, country_code, latitude, longitude)
);

CREATE TABLE IF NOT EXISTS weather_measurements (
    measurement_id INTEGER PRIMARY KEY AUTOINCREMENT,
    location_id INTEGER NOT NULL REFERENCES locations(location_id),
    measurement_datetime DATETIME NOT NULL,
    temperature_celsius REAL,
    feels_like_celsius REAL,
    temp_min_celsius REAL,
    temp_max_celsius REAL,
    humidity_percent REAL,
    pressure_hpa REAL,
    sea_level_pressure_hpa REAL,
    ground_level_pressure_hpa REAL,
    wind_speed_mps REAL,
    wind_gust_mps REAL,
    wind_direction_degrees REAL,
    cloudiness_percent REAL,
    visibility_meters REAL,
    precipitation_mm REAL,
    snow_mm REAL,
    uv_index REAL,
    source_type TEXT NOT NULL,
    data_quality_score INTEGER DEFAULT 3,
    processed_at DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(location_id, measurement_datetime, source_type)
);

CREATE TABLE IF NOT EXISTS weather_conditions (
    condition_id INTEGER PRIMARY KEY AUTOINCREMENT,
    measurement_id INTEGER NOT NULL UNIQUE REFERENCES weather_measurements(measurement_id),
    condition_main TEXT,
    condition_description TEXT,
    condition_icon_code TEXT,
    sunrise_time TEXT,
    sunset_time TEXT,
    moon_phase REAL,
    air_quality_index INTEGER,
    weather_alert BOOLEAN DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_measurements_location_time
    ON weather_measurements(location_id, measurement_datetime);
CREATE INDEX IF NOT EXISTS idx_measurements_time
    ON weather_measurements(measurement_datetime);
`,
	},
}

// RunMigrations applies any pending schema migrations in order, each inside
// its own transaction.
func (s *Store) RunMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		s.logger.Info("applying migration", "version", m.Version, "description", m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// MigrationVersion reports the highest applied migration, 0 for a fresh
// database.
func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
