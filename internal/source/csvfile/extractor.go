// Package csvfile extracts weather records from flat CSV export files whose
// header uses the canonical column names.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/altocumulus/weather-etl/internal/domain"
)

// timestampLayouts are accepted for measurement_datetime, in priority order.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// csvRow mirrors one line of the export file. Pointer fields stay nil when
// the cell is empty, which csvutil treats as "not decoded".
type csvRow struct {
	CityName         string    `csv:"city_name"`
	CountryCode      string    `csv:"country_code"`
	CountryName      string    `csv:"country_name"`
	StateProvince    string    `csv:"state_province"`
	Latitude         float64   `csv:"latitude"`
	Longitude        float64   `csv:"longitude"`
	AltitudeMeters   float64   `csv:"altitude_meters"`
	Timezone         string    `csv:"timezone"`
	Population       int64     `csv:"population"`
	MeasuredAt       time.Time `csv:"measurement_datetime"`
	TemperatureC     *float64  `csv:"temperature_celsius"`
	FeelsLikeC       *float64  `csv:"feels_like_celsius"`
	TempMinC         *float64  `csv:"temp_min_celsius"`
	TempMaxC         *float64  `csv:"temp_max_celsius"`
	HumidityPct      *float64  `csv:"humidity_percent"`
	PressureHPa      *float64  `csv:"pressure_hpa"`
	SeaLevelHPa      *float64  `csv:"sea_level_pressure_hpa"`
	GroundLevelHPa   *float64  `csv:"ground_level_pressure_hpa"`
	WindSpeedMPS     *float64  `csv:"wind_speed_mps"`
	WindGustMPS      *float64  `csv:"wind_gust_mps"`
	WindDirectionDeg *float64  `csv:"wind_direction_degrees"`
	CloudinessPct    *float64  `csv:"cloudiness_percent"`
	VisibilityMeters *float64  `csv:"visibility_meters"`
	PrecipitationMM  *float64  `csv:"precipitation_mm"`
	SnowMM           *float64  `csv:"snow_mm"`
	UVIndex          *float64  `csv:"uv_index"`
	ConditionMain    string    `csv:"condition_main"`
	ConditionDesc    string    `csv:"condition_description"`
	ConditionIcon    string    `csv:"condition_icon_code"`
	SunriseTime      string    `csv:"sunrise_time"`
	SunsetTime       string    `csv:"sunset_time"`
	MoonPhase        *float64  `csv:"moon_phase"`
	AirQualityIndex  *int64    `csv:"air_quality_index"`
	WeatherAlert     *bool     `csv:"weather_alert"`
}

func unmarshalTimestamp(data []byte, t *time.Time) error {
	var err error
	for _, layout := range timestampLayouts {
		*t, err = time.Parse(layout, string(data))
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", data)
}

// Extractor reads a CSV export file from disk.
type Extractor struct {
	path   string
	logger *slog.Logger
}

// New creates a CSV extractor for the file at path.
func New(path string, logger *slog.Logger) *Extractor {
	return &Extractor{path: path, logger: logger}
}

// Source identifies records produced by this extractor.
func (e *Extractor) Source() domain.SourceType { return domain.SourceCSV }

// Extract reads and maps every row of the file. Rows that fail to decode are
// skipped and counted rather than aborting the batch. A missing or unreadable
// file is reported as domain.ErrSourceUnavailable.
func (e *Extractor) Extract(ctx context.Context) (domain.ExtractResult, error) {
	result := domain.ExtractResult{Source: domain.SourceCSV}

	f, err := os.Open(e.path)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return result, fmt.Errorf("%w: reading header of %s: %v", domain.ErrSourceUnavailable, e.path, err)
	}
	dec.Register(unmarshalTimestamp)

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line++

		var row csvRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e.logger.Warn("skipping malformed row", "source", domain.SourceCSV, "line", line, "error", err)
			result.Skipped++
			continue
		}
		if row.MeasuredAt.IsZero() {
			e.logger.Warn("skipping row without measurement time", "source", domain.SourceCSV, "line", line)
			result.Skipped++
			continue
		}

		result.Records = append(result.Records, row.toRecord())
	}

	return result, nil
}

func (r csvRow) toRecord() domain.WeatherRecord {
	return domain.WeatherRecord{
		CityName:               r.CityName,
		CountryCode:            r.CountryCode,
		CountryName:            r.CountryName,
		StateProvince:          r.StateProvince,
		Latitude:               r.Latitude,
		Longitude:              r.Longitude,
		AltitudeMeters:         r.AltitudeMeters,
		Timezone:               r.Timezone,
		Population:             r.Population,
		MeasuredAt:             r.MeasuredAt.UTC(),
		TemperatureC:           r.TemperatureC,
		FeelsLikeC:             r.FeelsLikeC,
		TempMinC:               r.TempMinC,
		TempMaxC:               r.TempMaxC,
		HumidityPct:            r.HumidityPct,
		PressureHPa:            r.PressureHPa,
		SeaLevelPressureHPa:    r.SeaLevelHPa,
		GroundLevelPressureHPa: r.GroundLevelHPa,
		WindSpeedMPS:           r.WindSpeedMPS,
		WindGustMPS:            r.WindGustMPS,
		WindDirectionDeg:       r.WindDirectionDeg,
		CloudinessPct:          r.CloudinessPct,
		VisibilityMeters:       r.VisibilityMeters,
		PrecipitationMM:        r.PrecipitationMM,
		SnowMM:                 r.SnowMM,
		UVIndex:                r.UVIndex,
		ConditionMain:          r.ConditionMain,
		ConditionDescription:   r.ConditionDesc,
		ConditionIcon:          r.ConditionIcon,
		SunriseTime:            r.SunriseTime,
		SunsetTime:             r.SunsetTime,
		MoonPhase:              r.MoonPhase,
		AirQualityIndex:        r.AirQualityIndex,
		WeatherAlert:           r.WeatherAlert,
		Source:                 domain.SourceCSV,
	}
}
