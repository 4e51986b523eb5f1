package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Validation ranges. Records outside a range are dropped, never clamped.
const (
	TemperatureMinC  = -50.0
	TemperatureMaxC  = 60.0
	HumidityMinPct   = 0.0
	HumidityMaxPct   = 100.0
	PressureMinHPa   = 900.0
	PressureMaxHPa   = 1100.0
	VisibilityMaxMtr = 50000.0
)

// RejectionCounts tallies dropped records per validation rule. Each rule is
// counted over the set surviving the previous rules.
type RejectionCounts struct {
	MissingMandatory int
	Temperature      int
	Humidity         int
	WindSpeed        int
	Pressure         int
	Visibility       int
}

// Total returns the number of records dropped across all rules.
func (c RejectionCounts) Total() int {
	return c.MissingMandatory + c.Temperature + c.Humidity + c.WindSpeed + c.Pressure + c.Visibility
}

// cleanRule pairs a drop predicate with the counter it increments. Rules run
// in order; a record dropped by one rule is never evaluated by later ones.
type cleanRule struct {
	drop  func(*WeatherRecord) bool
	count func(*RejectionCounts)
}

var cleanRules = []cleanRule{
	{
		drop:  func(r *WeatherRecord) bool { return r.TemperatureC == nil || strings.TrimSpace(r.CityName) == "" },
		count: func(c *RejectionCounts) { c.MissingMandatory++ },
	},
	{
		drop:  func(r *WeatherRecord) bool { return outOfRange(r.TemperatureC, TemperatureMinC, TemperatureMaxC) },
		count: func(c *RejectionCounts) { c.Temperature++ },
	},
	{
		drop:  func(r *WeatherRecord) bool { return outOfRange(r.HumidityPct, HumidityMinPct, HumidityMaxPct) },
		count: func(c *RejectionCounts) { c.Humidity++ },
	},
	{
		drop:  func(r *WeatherRecord) bool { return r.WindSpeedMPS != nil && *r.WindSpeedMPS < 0 },
		count: func(c *RejectionCounts) { c.WindSpeed++ },
	},
	{
		drop:  func(r *WeatherRecord) bool { return outOfRange(r.PressureHPa, PressureMinHPa, PressureMaxHPa) },
		count: func(c *RejectionCounts) { c.Pressure++ },
	},
	{
		drop:  func(r *WeatherRecord) bool { return outOfRange(r.VisibilityMeters, 0, VisibilityMaxMtr) },
		count: func(c *RejectionCounts) { c.Visibility++ },
	},
}

// outOfRange reports whether a present value falls outside [min, max].
// A nil value passes; only the mandatory-field rule drops nils.
func outOfRange(v *float64, min, max float64) bool {
	return v != nil && (*v < min || *v > max)
}

// Clean validates and normalizes the combined batch from all sources. It
// returns the surviving records plus per-rule rejection counts. Survivors
// get missing optional values filled (precipitation/snow/UV 0, alert false,
// air quality index 1), a trimmed title-case city name, an upper-case
// country code, and a ProcessedAt stamp.
func Clean(records []WeatherRecord) ([]WeatherRecord, RejectionCounts) {
	var counts RejectionCounts
	kept := make([]WeatherRecord, 0, len(records))

record:
	for _, rec := range records {
		for _, rule := range cleanRules {
			if rule.drop(&rec) {
				rule.count(&counts)
				continue record
			}
		}

		fillDefaults(&rec)
		rec.CityName = NormalizeCityName(rec.CityName)
		rec.CountryCode = strings.ToUpper(rec.CountryCode)
		rec.ProcessedAt = clock.Now()
		kept = append(kept, rec)
	}

	return kept, counts
}

func fillDefaults(r *WeatherRecord) {
	if r.PrecipitationMM == nil {
		r.PrecipitationMM = Float(0)
	}
	if r.SnowMM == nil {
		r.SnowMM = Float(0)
	}
	if r.UVIndex == nil {
		r.UVIndex = Float(0)
	}
	if r.WeatherAlert == nil {
		r.WeatherAlert = Bool(false)
	}
	if r.AirQualityIndex == nil {
		r.AirQualityIndex = Int(1)
	}
}

// NormalizeCityName trims surrounding whitespace and title-cases each word,
// so "  mexico CITY " becomes "Mexico City". The operation is idempotent.
func NormalizeCityName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}
