package featuregate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Telemetry event names emitted by the engine.
const (
	// EventEvaluated fires when the remote source answered in time.
	EventEvaluated = "flag_evaluated"
	// EventCacheUsed fires when a persisted prior value decided.
	EventCacheUsed = "flag_cache_used"
	// EventFallbackUsed fires when the environment default decided.
	EventFallbackUsed = "flag_fallback_used"
	// EventError fires for every classified failure along the chain.
	EventError = "flag_evaluation_error"
)

// Recorder receives evaluation telemetry. Record is fire-and-forget:
// implementations must not block the evaluation path and must swallow their
// own failures.
type Recorder interface {
	Record(event string, payload map[string]any)
}

// SlogRecorder writes telemetry events to a slog.Logger. It is the default
// sink when no other Recorder is configured.
type SlogRecorder struct {
	log *slog.Logger
}

func NewSlogRecorder(log *slog.Logger) *SlogRecorder {
	return &SlogRecorder{log: log}
}

func (r *SlogRecorder) Record(event string, payload map[string]any) {
	attrs := make([]any, 0, len(payload)*2)
	for _, key := range sortedKeys(payload) {
		attrs = append(attrs, key, payload[key])
	}
	r.log.Debug(event, attrs...)
}

func sortedKeys[Map ~map[string]V, V any](m Map) []string {
	keys := make([]string, len(m))
	i := 0
	for key := range m {
		keys[i] = key
		i++
	}
	sort.Strings(keys)
	return keys
}

const TelemetryFlushIntervalInMilli = 10 * 1000
const TelemetryEndpoint = "telemetry/events/"

type telemetryEvent struct {
	Event      string         `json:"event"`
	Payload    map[string]any `json:"payload"`
	RecordedAt time.Time      `json:"recorded_at"`
}

type telemetryStore struct {
	mu     sync.Mutex
	events []telemetryEvent
}

// BatchRecorder buffers telemetry events in memory and flushes them to the
// backend on a timer. Flush failures keep the buffer so events are retried
// on the next tick.
type BatchRecorder struct {
	client   *resty.Client
	store    *telemetryStore
	endpoint string
	log      *slog.Logger
}

func NewBatchRecorder(ctx context.Context, client *resty.Client, baseURL string, timerInMilli *int, log *slog.Logger) *BatchRecorder {
	tickerInterval := TelemetryFlushIntervalInMilli
	if timerInMilli != nil {
		tickerInterval = *timerInMilli
	}
	recorder := BatchRecorder{
		client:   client,
		store:    &telemetryStore{},
		endpoint: baseURL + TelemetryEndpoint,
		log:      log,
	}
	go recorder.start(ctx, tickerInterval)
	return &recorder
}

func (r *BatchRecorder) start(ctx context.Context, tickerInterval int) {
	ticker := time.NewTicker(time.Duration(tickerInterval) * time.Millisecond)
	for {
		select {
		case <-ticker.C:
			if resp, err := r.Flush(ctx); err != nil {
				attrs := []any{slog.Any("error", err)}
				if resp != nil {
					attrs = append(attrs, slog.Int("status", resp.StatusCode))
				}
				r.log.Warn("failed to send telemetry events", attrs...)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *BatchRecorder) Record(event string, payload map[string]any) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.events = append(r.store.events, telemetryEvent{
		Event:      event,
		Payload:    payload,
		RecordedAt: time.Now().UTC(),
	})
}

func (r *BatchRecorder) Flush(ctx context.Context) (*http.Response, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if len(r.store.events) == 0 {
		return nil, nil
	}
	resp, err := r.client.R().SetContext(ctx).SetBody(r.store.events).Post(r.endpoint)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return resp.RawResponse, fmt.Errorf("BatchRecorder.Flush received error response %d %s", resp.StatusCode(), resp.Status())
	}
	r.store.events = nil
	return resp.RawResponse, nil
}
