// Package pipeline orchestrates one extract-clean-load run across all
// configured sources.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/altocumulus/weather-etl/internal/domain"
	"github.com/altocumulus/weather-etl/internal/observability"
)

// Extractor reads one source and maps its items into canonical records.
type Extractor interface {
	Source() domain.SourceType
	Extract(ctx context.Context) (domain.ExtractResult, error)
}

// Loader persists a batch of cleaned records.
type Loader interface {
	Load(ctx context.Context, records []domain.WeatherRecord) (domain.LoadResult, error)
}

// Summary reports what one run did, end to end.
type Summary struct {
	Extracted int
	Skipped   int
	Rejected  domain.RejectionCounts
	Load      domain.LoadResult
	Duration  time.Duration
}

// Pipeline runs the sources sequentially, cleans the combined batch, and
// hands it to the loader.
type Pipeline struct {
	extractors []Extractor
	loader     Loader
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool

	mu      sync.Mutex
	lastRun *Summary
}

// New creates a Pipeline with the given stages and observability.
func New(extractors []Extractor, loader Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractors: extractors,
		loader:     loader,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// LastRun returns the summary of the most recent completed run, if any.
func (p *Pipeline) LastRun() (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return Summary{}, false
	}
	return *p.lastRun, true
}

// Run executes one full pass. A source that is wholly unavailable is logged
// and contributes nothing; the run proceeds with the remaining sources. Any
// other failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var summary Summary
	var batch []domain.WeatherRecord

	for _, ext := range p.extractors {
		source := string(ext.Source())
		extractStart := time.Now()

		result, err := ext.Extract(ctx)
		switch {
		case errors.Is(err, domain.ErrSourceUnavailable):
			p.logger.Warn("source unavailable, continuing without it", "source", source, "error", err)
			p.metrics.SourceFailures.WithLabelValues(source).Inc()
			continue
		case err != nil:
			return summary, err
		}

		p.metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(extractStart).Seconds())
		p.metrics.RecordsExtracted.WithLabelValues(source).Add(float64(len(result.Records)))
		p.metrics.RecordsSkipped.WithLabelValues(source).Add(float64(result.Skipped))
		p.logger.Info("source extracted", "source", source,
			"records", len(result.Records), "skipped", result.Skipped)

		summary.Extracted += len(result.Records)
		summary.Skipped += result.Skipped
		batch = append(batch, result.Records...)
	}

	cleanStart := time.Now()
	kept, rejected := domain.Clean(batch)
	p.metrics.StageDuration.WithLabelValues("clean").Observe(time.Since(cleanStart).Seconds())
	summary.Rejected = rejected
	for rule, n := range map[string]int{
		"missing_mandatory": rejected.MissingMandatory,
		"temperature":       rejected.Temperature,
		"humidity":          rejected.Humidity,
		"wind_speed":        rejected.WindSpeed,
		"pressure":          rejected.Pressure,
		"visibility":        rejected.Visibility,
	} {
		p.metrics.ValidationRejections.WithLabelValues(rule).Add(float64(n))
	}
	if rejected.Total() > 0 {
		p.logger.Info("records rejected during cleaning", "rejected", rejected.Total(), "kept", len(kept))
	}

	loadStart := time.Now()
	loadResult, err := p.loader.Load(ctx, kept)
	if err != nil {
		return summary, err
	}
	p.metrics.StageDuration.WithLabelValues("load").Observe(time.Since(loadStart).Seconds())
	p.metrics.RecordsInserted.Add(float64(loadResult.Inserted))
	p.metrics.RecordsDuplicate.Add(float64(loadResult.Duplicates))
	p.metrics.LoadErrors.Add(float64(loadResult.Errors))

	summary.Load = loadResult
	summary.Duration = time.Since(start)
	p.ready.Store(true)

	p.mu.Lock()
	p.lastRun = &summary
	p.mu.Unlock()

	p.logger.Info("run complete",
		"extracted", summary.Extracted,
		"skipped", summary.Skipped,
		"rejected", summary.Rejected.Total(),
		"inserted", loadResult.Inserted,
		"duplicates", loadResult.Duplicates,
		"errors", loadResult.Errors,
		"duration", summary.Duration)

	return summary, nil
}
