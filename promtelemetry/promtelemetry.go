// Package promtelemetry exposes flag evaluation telemetry as Prometheus
// metrics: evaluations counted by result source and decision, failures
// counted by kind.
package promtelemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	featuregate "github.com/closetspace/featuregate-go-client"
)

// Recorder implements featuregate.Recorder on Prometheus counters.
type Recorder struct {
	evaluations *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

var _ featuregate.Recorder = (*Recorder)(nil)

// New builds a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featuregate_evaluations_total",
			Help: "Flag evaluations by result source and decision.",
		}, []string{"flag_key", "source", "enabled"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featuregate_evaluation_errors_total",
			Help: "Classified flag evaluation failures by kind.",
		}, []string{"flag_key", "kind"}),
	}
	reg.MustRegister(r.evaluations, r.errors)
	return r
}

func (r *Recorder) Record(event string, payload map[string]any) {
	flagKey, _ := payload["flag_key"].(string)
	switch event {
	case featuregate.EventError:
		kind, _ := payload["kind"].(string)
		r.errors.WithLabelValues(flagKey, kind).Inc()
	case featuregate.EventEvaluated:
		r.count(flagKey, featuregate.SourceRemote, payload)
	case featuregate.EventCacheUsed:
		r.count(flagKey, featuregate.SourceCached, payload)
	case featuregate.EventFallbackUsed:
		r.count(flagKey, featuregate.SourceFallback, payload)
	}
}

func (r *Recorder) count(flagKey string, source featuregate.Source, payload map[string]any) {
	enabled, _ := payload["enabled"].(bool)
	r.evaluations.WithLabelValues(flagKey, string(source), strconv.FormatBool(enabled)).Inc()
}
