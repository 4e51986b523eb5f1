package openweather

import (
	"context"
	"log/slog"

	"github.com/altocumulus/weather-etl/internal/domain"
)

// Extractor fetches the current reading for each configured city. One city
// failing does not abort the rest: failed cities are counted as skipped.
type Extractor struct {
	client *Client
	cities []domain.City
	logger *slog.Logger
}

// NewExtractor creates an API extractor over the configured city list.
func NewExtractor(client *Client, cities []domain.City, logger *slog.Logger) *Extractor {
	return &Extractor{client: client, cities: cities, logger: logger}
}

// Source identifies records produced by this extractor.
func (e *Extractor) Source() domain.SourceType { return domain.SourceAPI }

// Extract fetches every configured city sequentially. Context cancellation
// aborts the remaining cities.
func (e *Extractor) Extract(ctx context.Context) (domain.ExtractResult, error) {
	result := domain.ExtractResult{Source: domain.SourceAPI}

	for _, city := range e.cities {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := e.client.Current(ctx, city)
		if err != nil {
			e.logger.Warn("city fetch failed", "source", domain.SourceAPI,
				"city", city.Name, "country", city.Country, "error", err)
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}
