// Package store persists cleaned weather records into SQLite across the
// locations, weather_measurements and weather_conditions tables.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/altocumulus/weather-etl/internal/domain"
)

// progressEvery controls how often Load reports batch progress.
const progressEvery = 50

// Open opens (creating if needed) the SQLite database at path with WAL
// journaling and a busy timeout suitable for a single-writer ETL process.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

// Store wraps the database handle with the loading and migration logic.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store over an open database handle.
func New(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Load upserts a batch of cleaned records. Each record runs in its own
// transaction so one bad record cannot poison the rest: a record already
// present counts as a duplicate, a failed record is rolled back and counted
// as an error, and the loop continues. Inserted + Duplicates + Errors always
// equals len(records). Only a failure to even begin a transaction aborts the
// batch, since that means the database itself is gone.
func (s *Store) Load(ctx context.Context, records []domain.WeatherRecord) (domain.LoadResult, error) {
	var result domain.LoadResult

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		inserted, err := s.loadOne(ctx, rec)
		switch {
		case err != nil && isFatal(err):
			return result, err
		case err != nil:
			s.logger.Error("record load failed", "city", rec.CityName,
				"measured_at", rec.MeasuredAt, "source", rec.Source, "error", err)
			result.Errors++
		case inserted:
			result.Inserted++
		default:
			result.Duplicates++
		}

		if (i+1)%progressEvery == 0 {
			s.logger.Info("load progress", "processed", i+1, "total", len(records))
		}
	}

	return result, nil
}

// fatalError marks failures that abort the whole batch.
type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

func isFatal(err error) bool {
	var fe fatalError
	return errors.As(err, &fe)
}

// loadOne runs the three-table upsert for a single record inside one
// transaction. It reports whether a new measurement row was created.
func (s *Store) loadOne(ctx context.Context, rec domain.WeatherRecord) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fatalError{fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback()

	locationID, err := getOrCreateLocation(ctx, tx, rec)
	if err != nil {
		return false, fmt.Errorf("location: %w", err)
	}

	measurementID, created, err := insertMeasurement(ctx, tx, locationID, rec)
	if err != nil {
		return false, fmt.Errorf("measurement: %w", err)
	}

	if created {
		if err := insertCondition(ctx, tx, measurementID, rec); err != nil {
			return false, fmt.Errorf("condition: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// getOrCreateLocation resolves the location row for the record's natural key
// (city, country, latitude, longitude), inserting it on first sight. An
// existing row is reused as-is.
func getOrCreateLocation(ctx context.Context, tx *sql.Tx, rec domain.WeatherRecord) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO locations (city_name, country_code, country_name, state_province,
			latitude, longitude, altitude_meters, timezone, population)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(city_name, country_code, latitude, longitude) DO NOTHING
	`, rec.CityName, rec.CountryCode, rec.CountryName, rec.StateProvince,
		rec.Latitude, rec.Longitude, rec.AltitudeMeters, rec.Timezone, rec.Population)
	if err != nil {
		return 0, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return res.LastInsertId()
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT location_id FROM locations
		WHERE city_name = ? AND country_code = ? AND latitude = ? AND longitude = ?
	`, rec.CityName, rec.CountryCode, rec.Latitude, rec.Longitude).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolve existing: %w", err)
	}
	return id, nil
}

// insertMeasurement inserts the measurement row, reporting created=false when
// the (location, datetime, source) key already exists.
func insertMeasurement(ctx context.Context, tx *sql.Tx, locationID int64, rec domain.WeatherRecord) (int64, bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO weather_measurements (location_id, measurement_datetime,
			temperature_celsius, feels_like_celsius, temp_min_celsius, temp_max_celsius,
			humidity_percent, pressure_hpa, sea_level_pressure_hpa, ground_level_pressure_hpa,
			wind_speed_mps, wind_gust_mps, wind_direction_degrees,
			cloudiness_percent, visibility_meters, precipitation_mm, snow_mm, uv_index,
			source_type, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_id, measurement_datetime, source_type) DO NOTHING
	`, locationID, rec.MeasuredAt,
		rec.TemperatureC, rec.FeelsLikeC, rec.TempMinC, rec.TempMaxC,
		rec.HumidityPct, rec.PressureHPa, rec.SeaLevelPressureHPa, rec.GroundLevelPressureHPa,
		rec.WindSpeedMPS, rec.WindGustMPS, rec.WindDirectionDeg,
		rec.CloudinessPct, rec.VisibilityMeters, rec.PrecipitationMM, rec.SnowMM, rec.UVIndex,
		string(rec.Source), rec.ProcessedAt)
	if err != nil {
		return 0, false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	return id, true, err
}

// insertCondition adds the 1:1 condition detail row for a new measurement.
func insertCondition(ctx context.Context, tx *sql.Tx, measurementID int64, rec domain.WeatherRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO weather_conditions (measurement_id, condition_main, condition_description,
			condition_icon_code, sunrise_time, sunset_time, moon_phase, air_quality_index, weather_alert)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(measurement_id) DO NOTHING
	`, measurementID, rec.ConditionMain, rec.ConditionDescription, rec.ConditionIcon,
		rec.SunriseTime, rec.SunsetTime, rec.MoonPhase, rec.AirQualityIndex, rec.WeatherAlert)
	return err
}

// CountMeasurements returns the number of stored measurements, used by the
// dry-run reporting tools.
func (s *Store) CountMeasurements(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM weather_measurements").Scan(&n)
	return n, err
}
