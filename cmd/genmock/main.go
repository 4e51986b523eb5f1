// Command genmock writes deterministic CSV and JSON fixture files for the
// file extractors. The fixtures cover the default city list and include a few
// deliberately broken entries so the cleaning rules have something to reject.
//
// Usage:
//
//	go run ./cmd/genmock -out data
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
)

var baseTime = time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)

// fixtureCity seeds one city's generated readings.
type fixtureCity struct {
	name     string
	lat, lon float64
	altitude float64
	pop      int64
	temp     float64
}

var cities = []fixtureCity{
	{"Mexico City", 19.4326, -99.1332, 2240, 9209944, 22.5},
	{"Guadalajara", 20.6597, -103.3496, 1566, 1385629, 26.0},
	{"Monterrey", 25.6866, -100.3161, 540, 1135512, 31.2},
	{"Puebla", 19.0414, -98.2063, 2135, 1576259, 20.8},
	{"Tijuana", 32.5149, -117.0382, 20, 1810645, 23.4},
	{"Cancun", 21.1619, -86.8515, 10, 888797, 30.9},
	{"Merida", 20.9674, -89.5926, 9, 892363, 33.7},
	{"Queretaro", 20.5888, -100.3899, 1820, 794789, 24.1},
}

// csvRecord mirrors the canonical export header.
type csvRecord struct {
	CityName         string  `csv:"city_name"`
	CountryCode      string  `csv:"country_code"`
	CountryName      string  `csv:"country_name"`
	Latitude         float64 `csv:"latitude"`
	Longitude        float64 `csv:"longitude"`
	AltitudeMeters   float64 `csv:"altitude_meters"`
	Timezone         string  `csv:"timezone"`
	Population       int64   `csv:"population"`
	MeasuredAt       string  `csv:"measurement_datetime"`
	TemperatureC     string  `csv:"temperature_celsius"`
	FeelsLikeC       string  `csv:"feels_like_celsius"`
	HumidityPct      string  `csv:"humidity_percent"`
	PressureHPa      string  `csv:"pressure_hpa"`
	WindSpeedMPS     string  `csv:"wind_speed_mps"`
	VisibilityMeters string  `csv:"visibility_meters"`
	PrecipitationMM  string  `csv:"precipitation_mm"`
	ConditionMain    string  `csv:"condition_main"`
	ConditionDesc    string  `csv:"condition_description"`
	WeatherAlert     string  `csv:"weather_alert"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data", "output directory for fixture files")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", *outDir, err)
	}

	csvPath := filepath.Join(*outDir, "weather_data.csv")
	if err := writeCSV(csvPath); err != nil {
		return fmt.Errorf("write csv fixture: %w", err)
	}
	fmt.Printf("wrote %s (%d rows)\n", csvPath, len(cities)+2)

	jsonPath := filepath.Join(*outDir, "weather_data.json")
	if err := writeJSON(jsonPath); err != nil {
		return fmt.Errorf("write json fixture: %w", err)
	}
	fmt.Printf("wrote %s (%d documents)\n", jsonPath, len(cities)+1)

	return nil
}

func writeCSV(path string) error {
	records := make([]csvRecord, 0, len(cities)+2)
	for i, c := range cities {
		at := baseTime.Add(time.Duration(i) * time.Minute)
		records = append(records, csvRecord{
			CityName:         c.name,
			CountryCode:      "MX",
			CountryName:      "México",
			Latitude:         c.lat,
			Longitude:        c.lon,
			AltitudeMeters:   c.altitude,
			Timezone:         "-21600",
			Population:       c.pop,
			MeasuredAt:       at.Format("2006-01-02 15:04:05"),
			TemperatureC:     fmt.Sprintf("%.1f", c.temp),
			FeelsLikeC:       fmt.Sprintf("%.1f", c.temp+3.1),
			HumidityPct:      fmt.Sprintf("%d", 40+i*5),
			PressureHPa:      fmt.Sprintf("%.1f", 1009.0+float64(i)),
			WindSpeedMPS:     fmt.Sprintf("%.1f", 1.5+float64(i)*0.4),
			VisibilityMeters: "10000",
			PrecipitationMM:  "0",
			ConditionMain:    "Clear",
			ConditionDesc:    "cielo despejado",
			WeatherAlert:     "false",
		})
	}

	// Two records the cleaning stage must reject: an impossible temperature
	// and a missing city name.
	records = append(records,
		csvRecord{
			CityName:     "Merida",
			CountryCode:  "MX",
			CountryName:  "México",
			Latitude:     20.9674,
			Longitude:    -89.5926,
			Timezone:     "-21600",
			MeasuredAt:   baseTime.Format("2006-01-02 15:04:05"),
			TemperatureC: "95.0",
		},
		csvRecord{
			CountryCode:  "MX",
			CountryName:  "México",
			Timezone:     "-21600",
			MeasuredAt:   baseTime.Format("2006-01-02 15:04:05"),
			TemperatureC: "21.0",
		},
	)

	data, err := csvutil.Marshal(records)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeJSON(path string) error {
	docs := make([]map[string]any, 0, len(cities)+1)
	for i, c := range cities {
		at := baseTime.Add(time.Duration(i)*time.Minute + 30*time.Minute)
		docs = append(docs, map[string]any{
			"location": map[string]any{
				"city":        c.name,
				"country":     "MX",
				"coordinates": map[string]any{"lat": c.lat, "lon": c.lon},
				"altitude":    c.altitude,
				"timezone":    "-21600",
				"population":  c.pop,
			},
			"timestamp": at.Format("2006-01-02 15:04:05"),
			"weather": map[string]any{
				"temperature": map[string]any{
					"current":    c.temp + 0.6,
					"feels_like": c.temp + 3.4,
					"min":        c.temp - 2.0,
					"max":        c.temp + 2.5,
				},
				"atmospheric": map[string]any{
					"humidity":   45 + i*4,
					"pressure":   1010.0 + float64(i),
					"sea_level":  1012.0 + float64(i),
					"visibility": 10000,
				},
				"wind": map[string]any{
					"speed":     2.0 + float64(i)*0.3,
					"gust":      3.5 + float64(i)*0.3,
					"direction": (90 + i*30) % 360,
				},
				"clouds":        i * 10,
				"precipitation": map[string]any{"rain": 0, "snow": 0},
				"uv_index":      6.5,
			},
			"conditions": map[string]any{
				"main":        "Clouds",
				"description": "nublado",
				"icon":        "03d",
			},
			"astronomy": map[string]any{
				"sunrise":    "11:58:00",
				"sunset":     "01:15:00",
				"moon_phase": 0.33,
			},
			"air_quality": 2,
			"alert":       false,
		})
	}

	// One document with a missing required path, which extraction must skip.
	docs = append(docs, map[string]any{
		"location":  map[string]any{"city": "Toluca", "country": "MX"},
		"timestamp": baseTime.Format("2006-01-02 15:04:05"),
	})

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
