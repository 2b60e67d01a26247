package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amishk599/jobpulse/internal/model"
)

// Pipeline holds the collectors recorded for each pipeline run.
type Pipeline struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	postingsTotal    *prometheus.CounterVec
	sourceFailures   *prometheus.CounterVec
	normalizedTotal  *prometheus.CounterVec
	loadedTotal      prometheus.Counter
	failedBatches    prometheus.Counter
	lastSuccess      prometheus.Gauge
	snapshotFailures prometheus.Counter
}

// New registers the pipeline collectors with reg.
func New(reg prometheus.Registerer) *Pipeline {
	f := promauto.With(reg)
	return &Pipeline{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobpulse_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobpulse_pipeline_run_duration_seconds",
			Help:    "Wall time of a pipeline run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
		}),
		postingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobpulse_source_postings_total",
			Help: "Postings seen per source and connector outcome.",
		}, []string{"source", "outcome"}),
		sourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobpulse_source_failures_total",
			Help: "Connector runs that aborted.",
		}, []string{"source"}),
		normalizedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jobpulse_normalized_records_total",
			Help: "Staged records by normalization outcome.",
		}, []string{"outcome"}),
		loadedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "jobpulse_loaded_jobs_total",
			Help: "Jobs upserted into the warehouse.",
		}),
		failedBatches: f.NewCounter(prometheus.CounterOpts{
			Name: "jobpulse_load_failed_batches_total",
			Help: "Load batches skipped after a retry.",
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "jobpulse_last_healthy_run_timestamp_seconds",
			Help: "Unix time the last fully healthy run finished.",
		}),
		snapshotFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "jobpulse_snapshot_failures_total",
			Help: "Trending snapshots that could not be written.",
		}),
	}
}

// ObserveRun records a finished run. A nil receiver records nothing.
func (p *Pipeline) ObserveRun(r model.RunReport) {
	if p == nil {
		return
	}
	status := "healthy"
	if !r.Healthy() {
		status = "degraded"
	}
	p.runsTotal.WithLabelValues(status).Inc()
	p.runDuration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())

	for _, s := range r.Sources {
		p.postingsTotal.WithLabelValues(s.Source, "fetched").Add(float64(s.Fetched))
		p.postingsTotal.WithLabelValues(s.Source, "filtered").Add(float64(s.Filtered))
		p.postingsTotal.WithLabelValues(s.Source, "skipped").Add(float64(s.Skipped))
		p.postingsTotal.WithLabelValues(s.Source, "staged").Add(float64(s.Staged))
		if s.Error != "" {
			p.sourceFailures.WithLabelValues(s.Source).Inc()
		}
	}

	p.normalizedTotal.WithLabelValues("normalized").Add(float64(r.Normalize.Normalized))
	p.normalizedTotal.WithLabelValues("rejected").Add(float64(r.Normalize.Rejected))
	p.normalizedTotal.WithLabelValues("degraded").Add(float64(r.Normalize.Degraded))
	p.loadedTotal.Add(float64(r.Load.Loaded))
	p.failedBatches.Add(float64(r.Load.FailedBatches))
	if r.SnapshotError != "" {
		p.snapshotFailures.Inc()
	}
	if r.Healthy() && !r.DryRun {
		p.lastSuccess.Set(float64(r.FinishedAt.Unix()))
	}
}

// Handler serves the collectors in g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until the returned server is shut down.
func Serve(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}
