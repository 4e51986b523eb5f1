// Package jsonfile extracts weather records from nested JSON documents that
// group fields under location, weather, conditions and astronomy objects.
package jsonfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/altocumulus/weather-etl/internal/domain"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// fieldMapping binds one JSON path to its slot on the canonical record.
// Every path is required: documents with a missing path are rejected, the
// nested format carries the complete field set or nothing.
type fieldMapping struct {
	path   string
	assign func(*domain.WeatherRecord, gjson.Result)
}

var fieldMappings = []fieldMapping{
	{"location.city", func(r *domain.WeatherRecord, v gjson.Result) { r.CityName = v.String() }},
	{"location.country", func(r *domain.WeatherRecord, v gjson.Result) { r.CountryCode = v.String() }},
	{"location.coordinates.lat", func(r *domain.WeatherRecord, v gjson.Result) { r.Latitude = v.Float() }},
	{"location.coordinates.lon", func(r *domain.WeatherRecord, v gjson.Result) { r.Longitude = v.Float() }},
	{"location.altitude", func(r *domain.WeatherRecord, v gjson.Result) { r.AltitudeMeters = v.Float() }},
	{"location.timezone", func(r *domain.WeatherRecord, v gjson.Result) { r.Timezone = v.String() }},
	{"location.population", func(r *domain.WeatherRecord, v gjson.Result) { r.Population = v.Int() }},
	{"weather.temperature.current", func(r *domain.WeatherRecord, v gjson.Result) { r.TemperatureC = domain.Float(v.Float()) }},
	{"weather.temperature.feels_like", func(r *domain.WeatherRecord, v gjson.Result) { r.FeelsLikeC = domain.Float(v.Float()) }},
	{"weather.temperature.min", func(r *domain.WeatherRecord, v gjson.Result) { r.TempMinC = domain.Float(v.Float()) }},
	{"weather.temperature.max", func(r *domain.WeatherRecord, v gjson.Result) { r.TempMaxC = domain.Float(v.Float()) }},
	{"weather.atmospheric.humidity", func(r *domain.WeatherRecord, v gjson.Result) { r.HumidityPct = domain.Float(v.Float()) }},
	{"weather.atmospheric.pressure", func(r *domain.WeatherRecord, v gjson.Result) {
		// The nested format reports a single surface pressure, which also
		// serves as the ground-level reading.
		r.PressureHPa = domain.Float(v.Float())
		r.GroundLevelPressureHPa = domain.Float(v.Float())
	}},
	{"weather.atmospheric.sea_level", func(r *domain.WeatherRecord, v gjson.Result) { r.SeaLevelPressureHPa = domain.Float(v.Float()) }},
	{"weather.atmospheric.visibility", func(r *domain.WeatherRecord, v gjson.Result) { r.VisibilityMeters = domain.Float(v.Float()) }},
	{"weather.wind.speed", func(r *domain.WeatherRecord, v gjson.Result) { r.WindSpeedMPS = domain.Float(v.Float()) }},
	{"weather.wind.gust", func(r *domain.WeatherRecord, v gjson.Result) { r.WindGustMPS = domain.Float(v.Float()) }},
	{"weather.wind.direction", func(r *domain.WeatherRecord, v gjson.Result) { r.WindDirectionDeg = domain.Float(v.Float()) }},
	{"weather.clouds", func(r *domain.WeatherRecord, v gjson.Result) { r.CloudinessPct = domain.Float(v.Float()) }},
	{"weather.precipitation.rain", func(r *domain.WeatherRecord, v gjson.Result) { r.PrecipitationMM = domain.Float(v.Float()) }},
	{"weather.precipitation.snow", func(r *domain.WeatherRecord, v gjson.Result) { r.SnowMM = domain.Float(v.Float()) }},
	{"weather.uv_index", func(r *domain.WeatherRecord, v gjson.Result) { r.UVIndex = domain.Float(v.Float()) }},
	{"conditions.main", func(r *domain.WeatherRecord, v gjson.Result) { r.ConditionMain = v.String() }},
	{"conditions.description", func(r *domain.WeatherRecord, v gjson.Result) { r.ConditionDescription = v.String() }},
	{"conditions.icon", func(r *domain.WeatherRecord, v gjson.Result) { r.ConditionIcon = v.String() }},
	{"astronomy.sunrise", func(r *domain.WeatherRecord, v gjson.Result) { r.SunriseTime = v.String() }},
	{"astronomy.sunset", func(r *domain.WeatherRecord, v gjson.Result) { r.SunsetTime = v.String() }},
	{"astronomy.moon_phase", func(r *domain.WeatherRecord, v gjson.Result) { r.MoonPhase = domain.Float(v.Float()) }},
	{"air_quality", func(r *domain.WeatherRecord, v gjson.Result) { r.AirQualityIndex = domain.Int(v.Int()) }},
	{"alert", func(r *domain.WeatherRecord, v gjson.Result) { r.WeatherAlert = domain.Bool(v.Bool()) }},
}

// Extractor reads a JSON document file from disk.
type Extractor struct {
	path   string
	logger *slog.Logger
}

// New creates a JSON extractor for the file at path.
func New(path string, logger *slog.Logger) *Extractor {
	return &Extractor{path: path, logger: logger}
}

// Source identifies records produced by this extractor.
func (e *Extractor) Source() domain.SourceType { return domain.SourceJSON }

// Extract reads the file and maps every document in its top-level array.
// Documents missing a required path or carrying an unparsable timestamp are
// skipped and counted. A missing, unreadable or non-array file is reported as
// domain.ErrSourceUnavailable.
func (e *Extractor) Extract(ctx context.Context) (domain.ExtractResult, error) {
	result := domain.ExtractResult{Source: domain.SourceJSON}

	data, err := os.ReadFile(e.path)
	if err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	if !gjson.ValidBytes(data) {
		return result, fmt.Errorf("%w: %s is not valid JSON", domain.ErrSourceUnavailable, e.path)
	}
	docs := gjson.ParseBytes(data)
	if !docs.IsArray() {
		return result, fmt.Errorf("%w: %s does not hold a document array", domain.ErrSourceUnavailable, e.path)
	}

	for i, doc := range docs.Array() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := mapDocument(doc)
		if err != nil {
			e.logger.Warn("skipping document", "source", domain.SourceJSON, "index", i, "error", err)
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func mapDocument(doc gjson.Result) (domain.WeatherRecord, error) {
	rec := domain.WeatherRecord{
		CountryName: "México",
		Source:      domain.SourceJSON,
	}

	for _, m := range fieldMappings {
		v := doc.Get(m.path)
		if !v.Exists() {
			return rec, &domain.MappingError{Source: domain.SourceJSON, Path: m.path}
		}
		m.assign(&rec, v)
	}

	ts := doc.Get("timestamp")
	if !ts.Exists() {
		return rec, &domain.MappingError{Source: domain.SourceJSON, Path: "timestamp"}
	}
	measuredAt, err := parseTimestamp(ts.String())
	if err != nil {
		return rec, &domain.MappingError{Source: domain.SourceJSON, Path: "timestamp", Err: err}
	}
	rec.MeasuredAt = measuredAt

	return rec, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
