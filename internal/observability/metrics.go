package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RecordsExtracted     *prometheus.CounterVec // label: source={CSV,JSON,API}
	RecordsSkipped       *prometheus.CounterVec // label: source={CSV,JSON,API}
	SourceFailures       *prometheus.CounterVec // label: source={CSV,JSON,API}
	ValidationRejections *prometheus.CounterVec // label: rule

	RecordsInserted  prometheus.Counter
	RecordsDuplicate prometheus.Counter
	LoadErrors       prometheus.Counter
	PipelineRunning  prometheus.Gauge

	StageDuration      *prometheus.HistogramVec // label: stage={extract,clean,load}
	APIRequestDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RecordsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_extracted_total",
			Help:      "Records successfully mapped per source.",
		}, []string{"source"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_skipped_total",
			Help:      "Malformed items skipped during extraction, per source.",
		}, []string{"source"}),
		SourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "source_failures_total",
			Help:      "Whole-source outages (missing file, unreachable API).",
		}, []string{"source"}),
		ValidationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "validation_rejections_total",
			Help:      "Records dropped during cleaning, per rule.",
		}, []string{"rule"}),
		RecordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_inserted_total",
			Help:      "New measurements written to the database.",
		}),
		RecordsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_duplicate_total",
			Help:      "Measurements already present in the database.",
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "load_errors_total",
			Help:      "Records that failed to load and were rolled back.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is active, 0 otherwise.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		APIRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "api_request_duration_seconds",
			Help:      "OpenWeatherMap request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	prometheus.MustRegister(
		m.RecordsExtracted,
		m.RecordsSkipped,
		m.SourceFailures,
		m.ValidationRejections,
		m.RecordsInserted,
		m.RecordsDuplicate,
		m.LoadErrors,
		m.PipelineRunning,
		m.StageDuration,
		m.APIRequestDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RecordsExtracted:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "records_extracted_total"}, []string{"source"}),
		RecordsSkipped:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "records_skipped_total"}, []string{"source"}),
		SourceFailures:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "source_failures_total"}, []string{"source"}),
		ValidationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "validation_rejections_total"}, []string{"rule"}),
		RecordsInserted:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "records_inserted_total"}),
		RecordsDuplicate:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "records_duplicate_total"}),
		LoadErrors:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "load_errors_total"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_etl", Name: "pipeline_running"}),
		StageDuration:        prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "stage_duration_seconds"}, []string{"stage"}),
		APIRequestDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "api_request_duration_seconds"}),
	}
}
