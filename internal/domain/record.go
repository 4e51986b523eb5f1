package domain

import "time"

// SourceType tags a record with the feed that produced it.
type SourceType string

const (
	SourceCSV  SourceType = "CSV"
	SourceJSON SourceType = "JSON"
	SourceAPI  SourceType = "API"
)

// City identifies a location to query against the weather API,
// e.g. {Name: "Mexico City", Country: "MX"}.
type City struct {
	Name    string
	Country string
}

// WeatherRecord is the canonical observation shape all three sources map
// into, one per (location, timestamp, source). Optional values are pointers;
// nil means the source did not supply the field.
type WeatherRecord struct {
	// Location attributes.
	CityName       string
	CountryCode    string
	CountryName    string
	StateProvince  string
	Latitude       float64
	Longitude      float64
	AltitudeMeters float64
	Timezone       string
	Population     int64

	// Measurement attributes.
	MeasuredAt             time.Time
	TemperatureC           *float64
	FeelsLikeC             *float64
	TempMinC               *float64
	TempMaxC               *float64
	HumidityPct            *float64
	PressureHPa            *float64
	SeaLevelPressureHPa    *float64
	GroundLevelPressureHPa *float64
	WindSpeedMPS           *float64
	WindGustMPS            *float64
	WindDirectionDeg       *float64
	CloudinessPct          *float64
	VisibilityMeters       *float64
	PrecipitationMM        *float64
	SnowMM                 *float64
	UVIndex                *float64

	// Condition attributes.
	ConditionMain        string
	ConditionDescription string
	ConditionIcon        string
	SunriseTime          string
	SunsetTime           string
	MoonPhase            *float64
	AirQualityIndex      *int64
	WeatherAlert         *bool

	// Provenance.
	Source      SourceType
	ProcessedAt time.Time
}

// ExtractResult is one source's contribution to a run: the mapped records
// plus a count of items that could not be mapped (and were skipped).
type ExtractResult struct {
	Source  SourceType
	Records []WeatherRecord
	Skipped int
}

// LoadResult accounts for every record handed to the loader: each one ends
// up in exactly one bucket.
type LoadResult struct {
	Inserted   int
	Duplicates int
	Errors     int
}

// Total returns the number of records processed across all buckets.
func (r LoadResult) Total() int {
	return r.Inserted + r.Duplicates + r.Errors
}

// Float returns a pointer to v. Convenience for building records.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int64) *int64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
