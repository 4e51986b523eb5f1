package csvfile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altocumulus/weather-etl/internal/domain"
)

const testHeader = "city_name,country_code,country_name,latitude,longitude,altitude_meters,timezone,population," +
	"measurement_datetime,temperature_celsius,feels_like_celsius,humidity_percent,pressure_hpa," +
	"wind_speed_mps,visibility_meters,precipitation_mm,condition_main,condition_description,weather_alert\n"

func writeCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weather_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(testHeader+rows), 0o644))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract(t *testing.T) {
	t.Run("maps full and sparse rows", func(t *testing.T) {
		path := writeCSV(t,
			"Mérida,MX,México,20.97,-89.62,10,-21600,892363,2024-07-15 12:00:00,34.5,40.1,70,1012,3.2,10000,0,Clouds,nublado,false\n"+
				"Cancún,MX,México,21.16,-86.85,10,-18000,888797,2024-07-15 12:00:00,31.0,,,,,,,,,\n")

		result, err := New(path, discardLogger()).Extract(context.Background())

		require.NoError(t, err)
		assert.Equal(t, domain.SourceCSV, result.Source)
		assert.Zero(t, result.Skipped)
		require.Len(t, result.Records, 2)

		full := result.Records[0]
		assert.Equal(t, "Mérida", full.CityName)
		assert.Equal(t, "MX", full.CountryCode)
		assert.Equal(t, 20.97, full.Latitude)
		assert.Equal(t, int64(892363), full.Population)
		assert.Equal(t, time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC), full.MeasuredAt)
		assert.Equal(t, 34.5, *full.TemperatureC)
		assert.Equal(t, 70.0, *full.HumidityPct)
		assert.Equal(t, "Clouds", full.ConditionMain)
		assert.False(t, *full.WeatherAlert)
		assert.Equal(t, domain.SourceCSV, full.Source)

		sparse := result.Records[1]
		assert.Equal(t, 31.0, *sparse.TemperatureC)
		assert.Nil(t, sparse.FeelsLikeC)
		assert.Nil(t, sparse.HumidityPct)
		assert.Nil(t, sparse.WeatherAlert)
		assert.Empty(t, sparse.ConditionMain)
	})

	t.Run("accepts RFC3339 timestamps", func(t *testing.T) {
		path := writeCSV(t,
			"Puebla,MX,México,19.04,-98.20,2135,-21600,1576259,2024-07-15T12:00:00Z,25.0,,,,,,,,,\n")

		result, err := New(path, discardLogger()).Extract(context.Background())

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC), result.Records[0].MeasuredAt)
	})

	t.Run("skips malformed rows and keeps counting", func(t *testing.T) {
		path := writeCSV(t,
			"Mérida,MX,México,not-a-number,-89.62,10,-21600,892363,2024-07-15 12:00:00,34.5,,,,,,,,,\n"+
				"Toluca,MX,México,19.28,-99.65,2660,-21600,910608,15-07-2024,18.0,,,,,,,,,\n"+
				"Tijuana,MX,México,32.51,-117.03,20,-25200,1810645,2024-07-15 12:00:00,22.1,,,,,,,,,\n")

		result, err := New(path, discardLogger()).Extract(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, result.Skipped)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "Tijuana", result.Records[0].CityName)
	})

	t.Run("skips rows without measurement time", func(t *testing.T) {
		path := writeCSV(t,
			"Mérida,MX,México,20.97,-89.62,10,-21600,892363,,34.5,,,,,,,,,\n")

		result, err := New(path, discardLogger()).Extract(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, result.Skipped)
		assert.Empty(t, result.Records)
	})

	t.Run("missing file is a source outage", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.csv")

		_, err := New(path, discardLogger()).Extract(context.Background())

		assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		path := writeCSV(t,
			"Mérida,MX,México,20.97,-89.62,10,-21600,892363,2024-07-15 12:00:00,34.5,,,,,,,,,\n")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(path, discardLogger()).Extract(ctx)

		assert.True(t, errors.Is(err, context.Canceled))
	})
}
