package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() WeatherRecord {
	return WeatherRecord{
		CityName:     "Mérida",
		CountryCode:  "MX",
		CountryName:  "México",
		Latitude:     20.97,
		Longitude:    -89.62,
		MeasuredAt:   time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC),
		TemperatureC: Float(34.5),
		HumidityPct:  Float(70),
		WindSpeedMPS: Float(3.2),
		PressureHPa:  Float(1012),
		Source:       SourceCSV,
	}
}

func TestClean(t *testing.T) {
	fixed := time.Date(2024, 7, 15, 18, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	t.Run("valid record survives with defaults filled", func(t *testing.T) {
		kept, counts := Clean([]WeatherRecord{validRecord()})

		require.Len(t, kept, 1)
		assert.Zero(t, counts.Total())
		rec := kept[0]
		assert.Equal(t, 0.0, *rec.PrecipitationMM)
		assert.Equal(t, 0.0, *rec.SnowMM)
		assert.Equal(t, 0.0, *rec.UVIndex)
		assert.False(t, *rec.WeatherAlert)
		assert.Equal(t, int64(1), *rec.AirQualityIndex)
		assert.Equal(t, fixed, rec.ProcessedAt)
	})

	t.Run("explicit values are not overwritten by defaults", func(t *testing.T) {
		rec := validRecord()
		rec.PrecipitationMM = Float(12.4)
		rec.AirQualityIndex = Int(4)
		rec.WeatherAlert = Bool(true)

		kept, _ := Clean([]WeatherRecord{rec})

		require.Len(t, kept, 1)
		assert.Equal(t, 12.4, *kept[0].PrecipitationMM)
		assert.Equal(t, int64(4), *kept[0].AirQualityIndex)
		assert.True(t, *kept[0].WeatherAlert)
	})

	t.Run("missing mandatory fields", func(t *testing.T) {
		noCity := validRecord()
		noCity.CityName = "   "
		noTemp := validRecord()
		noTemp.TemperatureC = nil

		kept, counts := Clean([]WeatherRecord{noCity, noTemp})

		assert.Empty(t, kept)
		assert.Equal(t, 2, counts.MissingMandatory)
		assert.Equal(t, 2, counts.Total())
	})

	t.Run("out-of-range temperature", func(t *testing.T) {
		rec := validRecord()
		rec.TemperatureC = Float(95)

		kept, counts := Clean([]WeatherRecord{rec})

		assert.Empty(t, kept)
		assert.Equal(t, 1, counts.Temperature)
	})

	t.Run("boundary values pass", func(t *testing.T) {
		low := validRecord()
		low.TemperatureC = Float(TemperatureMinC)
		low.PressureHPa = Float(PressureMinHPa)
		high := validRecord()
		high.TemperatureC = Float(TemperatureMaxC)
		high.HumidityPct = Float(HumidityMaxPct)
		high.VisibilityMeters = Float(VisibilityMaxMtr)

		kept, counts := Clean([]WeatherRecord{low, high})

		assert.Len(t, kept, 2)
		assert.Zero(t, counts.Total())
	})

	t.Run("nil optionals pass range rules", func(t *testing.T) {
		rec := validRecord()
		rec.HumidityPct = nil
		rec.WindSpeedMPS = nil
		rec.PressureHPa = nil
		rec.VisibilityMeters = nil

		kept, counts := Clean([]WeatherRecord{rec})

		assert.Len(t, kept, 1)
		assert.Zero(t, counts.Total())
	})

	t.Run("each rule counts separately", func(t *testing.T) {
		humidity := validRecord()
		humidity.HumidityPct = Float(150)
		wind := validRecord()
		wind.WindSpeedMPS = Float(-1)
		pressure := validRecord()
		pressure.PressureHPa = Float(450)
		visibility := validRecord()
		visibility.VisibilityMeters = Float(80000)

		kept, counts := Clean([]WeatherRecord{humidity, wind, pressure, visibility, validRecord()})

		assert.Len(t, kept, 1)
		assert.Equal(t, 1, counts.Humidity)
		assert.Equal(t, 1, counts.WindSpeed)
		assert.Equal(t, 1, counts.Pressure)
		assert.Equal(t, 1, counts.Visibility)
		assert.Equal(t, 4, counts.Total())
	})

	t.Run("normalizes city and country", func(t *testing.T) {
		rec := validRecord()
		rec.CityName = "  mexico CITY "
		rec.CountryCode = "mx"

		kept, _ := Clean([]WeatherRecord{rec})

		require.Len(t, kept, 1)
		assert.Equal(t, "Mexico City", kept[0].CityName)
		assert.Equal(t, "MX", kept[0].CountryCode)
	})
}

func TestNormalizeCityName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"mérida", "Mérida"},
		{"SAN LUIS POTOSÍ", "San Luis Potosí"},
		{"  guadalajara  ", "Guadalajara"},
		{"Mexico City", "Mexico City"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := NormalizeCityName(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.want, NormalizeCityName(got), "normalization should be idempotent")
		})
	}
}
