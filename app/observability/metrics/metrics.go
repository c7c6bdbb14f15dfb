package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RecommendationRunsTotal   metric.Int64Counter
	RecommendationErrorsTotal metric.Int64Counter
	RetrievalDurationSeconds  metric.Float64Histogram
	RetrievalErrorsTotal      metric.Int64Counter
	RetrievedCandidatesTotal  metric.Int64Counter
	DbQueryDurationSeconds    metric.Float64Histogram
	DbQueryErrorsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider, so calling it
// before tracer.InitTracingAndMetrics yields no-op instruments.
func InitAppMetrics() *AppMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("GoVibes")
		var err error
		m := &AppMetrics{}

		m.RecommendationRunsTotal, err = meter.Int64Counter(
			"recommendation_runs_total",
			metric.WithDescription("Total number of recommendation runs started"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_runs_total: %v", err)
		}

		m.RecommendationErrorsTotal, err = meter.Int64Counter(
			"recommendation_errors_total",
			metric.WithDescription("Total number of recommendation runs aborted by an error"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recommendation_errors_total: %v", err)
		}

		m.RetrievalDurationSeconds, err = meter.Float64Histogram(
			"retrieval_duration_seconds",
			metric.WithDescription("Duration of per-zone similarity retrieval calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create retrieval_duration_seconds: %v", err)
		}

		m.RetrievalErrorsTotal, err = meter.Int64Counter(
			"retrieval_errors_total",
			metric.WithDescription("Total number of failed per-zone retrieval calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create retrieval_errors_total: %v", err)
		}

		m.RetrievedCandidatesTotal, err = meter.Int64Counter(
			"retrieved_candidates_total",
			metric.WithDescription("Total number of POI candidates returned by retrieval"),
			metric.WithUnit("{poi}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create retrieved_candidates_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
	return appMetrics
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
