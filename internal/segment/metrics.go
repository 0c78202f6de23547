package segment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"

	"github.com/roach88/segmaker/internal/indicator"
	"github.com/roach88/segmaker/internal/ir"
)

var tracer = otel.Tracer("segmaker.segment")

var (
	// classifiedTotal counts classified indicator attachments by status and kind
	classifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segmaker_indicators_classified_total",
		Help: "Persistent indicator attachments classified, by status and kind",
	}, []string{"status", "kind"})

	// droppedMomentos counts momentos skipped because their manifest key no longer resolves
	droppedMomentos = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segmaker_momentos_dropped_total",
		Help: "Momentos dropped during reapplication or collection, by prototype",
	}, []string{"prototype"})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "segmaker_segment_runs_total",
		Help: "Segment runs by result",
	}, []string{"result"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "segmaker_segment_run_duration_seconds",
		Help:    "Segment run wall-clock duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	spacingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "segmaker_spacing_duration_seconds",
		Help:    "Spacing step wall-clock duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})
)

func recordClassification(status ir.Status, kind indicator.Kind) {
	classifiedTotal.WithLabelValues(status.String(), kind.String()).Inc()
}
