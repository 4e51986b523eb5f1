package store

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altocumulus/weather-etl/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	s := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, s.RunMigrations())
	return s, db
}

func testRecord(city string, at time.Time, source domain.SourceType) domain.WeatherRecord {
	return domain.WeatherRecord{
		CityName:             city,
		CountryCode:          "MX",
		CountryName:          "México",
		Latitude:             20.97,
		Longitude:            -89.62,
		AltitudeMeters:       10,
		Timezone:             "-21600",
		Population:           892363,
		MeasuredAt:           at,
		TemperatureC:         domain.Float(34.5),
		HumidityPct:          domain.Float(70),
		PressureHPa:          domain.Float(1012),
		WindSpeedMPS:         domain.Float(3.2),
		PrecipitationMM:      domain.Float(0),
		SnowMM:               domain.Float(0),
		UVIndex:              domain.Float(8),
		ConditionMain:        "Clouds",
		ConditionDescription: "nublado",
		ConditionIcon:        "04d",
		SunriseTime:          "11:55:00",
		SunsetTime:           "01:12:00",
		MoonPhase:            domain.Float(0.5),
		AirQualityIndex:      domain.Int(2),
		WeatherAlert:         domain.Bool(false),
		Source:               source,
		ProcessedAt:          at.Add(time.Hour),
	}
}

func TestRunMigrations(t *testing.T) {
	s, _ := newTestStore(t)

	t.Run("is idempotent", func(t *testing.T) {
		require.NoError(t, s.RunMigrations())
	})

	t.Run("reports the schema version", func(t *testing.T) {
		version, err := s.MigrationVersion()
		require.NoError(t, err)
		assert.Equal(t, 1, version)
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)

	t.Run("inserts across all three tables", func(t *testing.T) {
		s, db := newTestStore(t)

		result, err := s.Load(ctx, []domain.WeatherRecord{testRecord("Mérida", at, domain.SourceCSV)})

		require.NoError(t, err)
		assert.Equal(t, domain.LoadResult{Inserted: 1}, result)

		var cityName string
		var quality int
		var description string
		row := db.QueryRow(`
			SELECT l.city_name, m.data_quality_score, c.condition_description
			FROM weather_measurements m
			JOIN locations l ON l.location_id = m.location_id
			JOIN weather_conditions c ON c.measurement_id = m.measurement_id
		`)
		require.NoError(t, row.Scan(&cityName, &quality, &description))
		assert.Equal(t, "Mérida", cityName)
		assert.Equal(t, 3, quality)
		assert.Equal(t, "nublado", description)
	})

	t.Run("stores nil optionals as NULL", func(t *testing.T) {
		s, db := newTestStore(t)
		rec := testRecord("Mérida", at, domain.SourceCSV)
		rec.HumidityPct = nil
		rec.WindGustMPS = nil

		_, err := s.Load(ctx, []domain.WeatherRecord{rec})
		require.NoError(t, err)

		var humidity, gust sql.NullFloat64
		row := db.QueryRow("SELECT humidity_percent, wind_gust_mps FROM weather_measurements")
		require.NoError(t, row.Scan(&humidity, &gust))
		assert.False(t, humidity.Valid)
		assert.False(t, gust.Valid)
	})

	t.Run("reloading the same batch only produces duplicates", func(t *testing.T) {
		s, db := newTestStore(t)
		batch := []domain.WeatherRecord{
			testRecord("Mérida", at, domain.SourceCSV),
			testRecord("Mérida", at.Add(time.Hour), domain.SourceCSV),
		}

		first, err := s.Load(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, domain.LoadResult{Inserted: 2}, first)

		second, err := s.Load(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, domain.LoadResult{Duplicates: 2}, second)

		var measurements, locations int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM weather_measurements").Scan(&measurements))
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&locations))
		assert.Equal(t, 2, measurements)
		assert.Equal(t, 1, locations)
	})

	t.Run("same moment from different sources stays distinct", func(t *testing.T) {
		s, db := newTestStore(t)

		result, err := s.Load(ctx, []domain.WeatherRecord{
			testRecord("Mérida", at, domain.SourceCSV),
			testRecord("Mérida", at, domain.SourceJSON),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.LoadResult{Inserted: 2}, result)

		var locations int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM locations").Scan(&locations))
		assert.Equal(t, 1, locations)
	})

	t.Run("failed record rolls back and the batch continues", func(t *testing.T) {
		s, db := newTestStore(t)
		good := testRecord("Mérida", at, domain.SourceCSV)
		_, err := db.Exec("DROP TABLE weather_conditions")
		require.NoError(t, err)

		result, err := s.Load(ctx, []domain.WeatherRecord{good, testRecord("Cancún", at, domain.SourceCSV)})

		require.NoError(t, err)
		assert.Equal(t, domain.LoadResult{Errors: 2}, result)

		var measurements int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM weather_measurements").Scan(&measurements))
		assert.Equal(t, 0, measurements, "rolled-back measurements must not persist")
	})

	t.Run("counters always cover the whole batch", func(t *testing.T) {
		s, _ := newTestStore(t)
		batch := []domain.WeatherRecord{
			testRecord("Mérida", at, domain.SourceCSV),
			testRecord("Mérida", at, domain.SourceCSV),
			testRecord("Cancún", at, domain.SourceJSON),
		}

		result, err := s.Load(ctx, batch)

		require.NoError(t, err)
		assert.Equal(t, len(batch), result.Total())
		assert.Equal(t, domain.LoadResult{Inserted: 2, Duplicates: 1}, result)
	})

	t.Run("unreachable database aborts the batch", func(t *testing.T) {
		s, db := newTestStore(t)
		require.NoError(t, db.Close())

		_, err := s.Load(ctx, []domain.WeatherRecord{testRecord("Mérida", at, domain.SourceCSV)})

		require.Error(t, err)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		s, _ := newTestStore(t)

		result, err := s.Load(ctx, nil)

		require.NoError(t, err)
		assert.Equal(t, domain.LoadResult{}, result)
	})
}
