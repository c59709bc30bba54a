package promtelemetry_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featuregate "github.com/closetspace/featuregate-go-client"
	"github.com/closetspace/featuregate-go-client/promtelemetry"
)

func gatherCounters(t *testing.T, registry *prometheus.Registry, name string) map[string]float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)

	counters := make(map[string]float64)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			key := ""
			for _, label := range metric.GetLabel() {
				key += label.GetName() + "=" + label.GetValue() + ";"
			}
			counters[key] = metric.GetCounter().GetValue()
		}
	}
	return counters
}

func TestRecorderCountsEvaluationsBySource(t *testing.T) {
	// Given
	registry := prometheus.NewRegistry()
	recorder := promtelemetry.New(registry)

	// When
	recorder.Record(featuregate.EventEvaluated, map[string]any{"flag_key": "smart_outfits", "enabled": true})
	recorder.Record(featuregate.EventEvaluated, map[string]any{"flag_key": "smart_outfits", "enabled": true})
	recorder.Record(featuregate.EventCacheUsed, map[string]any{"flag_key": "smart_outfits", "enabled": true, "stale": false})
	recorder.Record(featuregate.EventFallbackUsed, map[string]any{"flag_key": "smart_outfits", "enabled": false, "reason": "offline"})

	// Then
	counters := gatherCounters(t, registry, "featuregate_evaluations_total")
	assert.Equal(t, 2.0, counters["enabled=true;flag_key=smart_outfits;source=remote;"])
	assert.Equal(t, 1.0, counters["enabled=true;flag_key=smart_outfits;source=cached;"])
	assert.Equal(t, 1.0, counters["enabled=false;flag_key=smart_outfits;source=fallback;"])
}

func TestRecorderCountsErrorsByKind(t *testing.T) {
	// Given
	registry := prometheus.NewRegistry()
	recorder := promtelemetry.New(registry)

	// When
	recorder.Record(featuregate.EventError, map[string]any{"flag_key": "smart_outfits", "kind": "timeout"})
	recorder.Record(featuregate.EventError, map[string]any{"flag_key": "smart_outfits", "kind": "timeout"})
	recorder.Record(featuregate.EventError, map[string]any{"flag_key": "smart_outfits", "kind": "storage_error"})

	// Then
	counters := gatherCounters(t, registry, "featuregate_evaluation_errors_total")
	assert.Equal(t, 2.0, counters["flag_key=smart_outfits;kind=timeout;"])
	assert.Equal(t, 1.0, counters["flag_key=smart_outfits;kind=storage_error;"])
}

func TestRecorderIgnoresUnknownEvents(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := promtelemetry.New(registry)

	recorder.Record("something_else", map[string]any{"flag_key": "smart_outfits"})

	families, err := registry.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
