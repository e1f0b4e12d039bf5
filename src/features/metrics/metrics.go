package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rekorded/rekorded/src/music"
)

// Analysis sources.
const (
	SourceGuest  = "guest"
	SourceUpload = "upload"
	SourceReport = "report"
	SourceWatch  = "watch"
	SourceCLI    = "cli"
)

// Analysis outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeMalformed = "malformed"
	OutcomeRejected  = "rejected"
)

// Recorder owns a private prometheus registry with the analysis counters.
type Recorder struct {
	registry *prometheus.Registry

	analyses       *prometheus.CounterVec
	tracksAnalyzed prometheus.Counter
	trackIssues    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors, plus the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rekorded_analyses_total",
			Help: "Library exports analyzed, by source and outcome.",
		}, []string{"source", "outcome"}),
		tracksAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rekorded_tracks_analyzed_total",
			Help: "Tracks that survived classification across all analyses.",
		}),
		trackIssues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rekorded_track_issues_total",
			Help: "Issues attached to tracks, by issue type.",
		}, []string{"type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rekorded_analysis_duration_seconds",
			Help:    "Time spent analyzing one library export.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"source"}),
	}
	r.registry.MustRegister(
		r.analyses,
		r.tracksAnalyzed,
		r.trackIssues,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the registry for serving and tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveAnalysis records one successful analysis.
func (r *Recorder) ObserveAnalysis(source string, elapsed time.Duration, result *music.AnalysisResult) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(source, OutcomeOK).Inc()
	r.duration.WithLabelValues(source).Observe(elapsed.Seconds())
	if result == nil {
		return
	}
	r.tracksAnalyzed.Add(float64(result.Stats.TotalTracks))
	for _, it := range music.IssueTypes {
		if n := result.Stats.IssueDistribution[string(it)]; n > 0 {
			r.trackIssues.WithLabelValues(string(it)).Add(float64(n))
		}
	}
}

// ObserveFailure records an analysis that did not produce a report.
func (r *Recorder) ObserveFailure(source, outcome string) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(source, outcome).Inc()
}
