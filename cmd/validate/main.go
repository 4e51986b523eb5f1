// Command validate dry-runs the extraction and cleaning stages over the file
// sources without touching the database. It reports, per source, how many
// items mapped, how many were skipped as malformed, and how many records the
// validation rules would reject, then checks that the combined batch carries
// no conflicting natural keys.
//
// Usage:
//
//	go run ./cmd/validate -csv data/weather_data.csv -json data/weather_data.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/altocumulus/weather-etl/internal/domain"
	"github.com/altocumulus/weather-etl/internal/pipeline"
	"github.com/altocumulus/weather-etl/internal/source/csvfile"
	"github.com/altocumulus/weather-etl/internal/source/jsonfile"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "data/weather_data.csv", "path to the CSV export file")
	jsonPath := flag.String("json", "data/weather_data.json", "path to the nested JSON file")
	flag.Parse()

	if code := run(*csvPath, *jsonPath); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, jsonPath string) int {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fmt.Println("=== Weather Data Dry Run ===")
	fmt.Println()

	var batch []domain.WeatherRecord
	var phases []*phase

	extractors := []pipeline.Extractor{
		csvfile.New(csvPath, logger),
		jsonfile.New(jsonPath, logger),
	}
	for _, ext := range extractors {
		p := &phase{name: fmt.Sprintf("Extraction: %s source", ext.Source())}
		result, err := ext.Extract(ctx)
		switch {
		case err != nil:
			p.errorf("source unreadable: %v", err)
		case result.Skipped > 0:
			p.errorf("%d item(s) failed to map (kept %d)", result.Skipped, len(result.Records))
		}
		fmt.Printf("  %-28s %4d records, %d skipped\n", ext.Source(), len(result.Records), result.Skipped)
		batch = append(batch, result.Records...)
		phases = append(phases, p)
	}

	phases = append(phases, validateCleaning(batch))
	phases = append(phases, validateKeys(batch))

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nDry run FAILED.")
	return 1
}

// validateCleaning runs the validation rules and reports every rejection.
func validateCleaning(batch []domain.WeatherRecord) *phase {
	p := &phase{name: "Cleaning: validation rules"}

	kept, counts := domain.Clean(batch)
	fmt.Printf("  %-28s %4d kept, %d rejected\n", "clean", len(kept), counts.Total())

	for rule, n := range map[string]int{
		"missing city or temperature": counts.MissingMandatory,
		"temperature out of range":    counts.Temperature,
		"humidity out of range":       counts.Humidity,
		"negative wind speed":         counts.WindSpeed,
		"pressure out of range":       counts.Pressure,
		"visibility out of range":     counts.Visibility,
	} {
		if n > 0 {
			p.errorf("%s: %d record(s)", rule, n)
		}
	}
	return p
}

// validateKeys checks that records sharing a natural key agree on their
// location attributes, since the loader reuses the first location row it
// creates for a key.
func validateKeys(batch []domain.WeatherRecord) *phase {
	p := &phase{name: "Consistency: location natural keys"}

	type coords struct{ lat, lon float64 }
	seen := map[string]coords{}
	kept, _ := domain.Clean(batch)
	for _, rec := range kept {
		key := rec.CityName + "|" + rec.CountryCode
		c := coords{rec.Latitude, rec.Longitude}
		if prev, ok := seen[key]; ok && prev != c {
			p.errorf("%s: coordinates differ across sources (%.4f,%.4f vs %.4f,%.4f); separate location rows will be created",
				key, prev.lat, prev.lon, c.lat, c.lon)
			continue
		}
		seen[key] = c
	}
	return p
}
