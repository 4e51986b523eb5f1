// Package domain models canonical weather observations for Mexican cities.
//
// # Data Sources
//
// Observations arrive through three extractors that all map into the same
// [WeatherRecord] shape:
//
//	CSV  — flat export files whose header already uses the canonical column
//	       names (city_name, temperature_celsius, humidity_percent, ...).
//	JSON — nested documents grouping fields under location/, weather/,
//	       conditions/ and astronomy/ objects.
//	API  — live readings from the OpenWeatherMap current-weather endpoint.
//
// # Canonical Conventions
//
// Units are metric throughout: temperatures in °C, wind in m/s, pressure in
// hPa, visibility and altitude in meters, precipitation and snow in mm.
//
// Optional measurements are pointer-typed; nil means the source did not
// report the value. Mandatory fields are the city name and the current
// temperature, everything else may be absent.
//
// Timestamps:
//
//	measurement_datetime is the observation time in UTC.
//	sunrise_time / sunset_time are stored as "HH:MM:SS" UTC strings.
//	timezone holds the location's UTC offset in seconds, as a string.
//
// # Validation
//
// [Clean] applies an ordered set of drop rules, counting rejections per rule:
//
//	1. missing city name or temperature
//	2. temperature outside [-50, 60] °C
//	3. humidity outside [0, 100] %
//	4. negative wind speed
//	5. pressure outside [900, 1100] hPa
//	6. visibility outside [0, 50000] m
//
// Out-of-range values drop the whole record rather than being clamped; a nil
// optional always passes its range rule. Survivors get defaults filled
// (precipitation, snow and UV index 0, weather alert false, air quality
// index 1), a title-cased city name and an upper-cased country code.
//
// # Deduplication
//
// A location is identified by (city_name, country_code, latitude, longitude)
// and a measurement by (location, measurement_datetime, source_type). The
// store relies on these natural keys for idempotent ON CONFLICT upserts, so
// re-running the pipeline over the same inputs only produces duplicates.
package domain
