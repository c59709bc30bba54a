package featuregate

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WatcherState is a snapshot of the binding's observable fields. Result is
// nil until a decision exists; IsLoading is true only while the very first
// decision is pending.
type WatcherState struct {
	Result    *FlagResult
	IsLoading bool
}

// IsEnabled reports the current decision, false while undecided.
func (s WatcherState) IsEnabled() bool {
	return s.Result != nil && s.Result.Enabled
}

// IsEvaluated reports whether any decision exists yet.
func (s WatcherState) IsEvaluated() bool {
	return s.Result != nil
}

type WatcherOption func(w *Watcher)

// WithOnChange registers a callback invoked after every state transition.
// It is called outside the watcher's lock; implementations may call State.
func WithOnChange(fn func(WatcherState)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithRefreshInterval enables periodic background reconciliation with the
// remote source. Failed refreshes retry with exponential backoff.
func WithRefreshInterval(interval time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.interval = interval
	}
}

// Watcher is the reactive binding between the engine and UI code. It runs a
// two-phase activation: hydrate instantly from the persistent cache so
// returning users never see a loading flash, then reconcile once against
// the remote source in the background. The watcher owns no authoritative
// state; it mirrors engine results into a local snapshot so engine resets
// never surface as flicker.
type Watcher struct {
	engine   *Engine
	log      *slog.Logger
	onChange func(WatcherState)
	interval time.Duration

	mu     sync.Mutex
	state  WatcherState
	userID string
	cohort UserCohort
	active bool
	cancel context.CancelFunc
}

func NewWatcher(engine *Engine, options ...WatcherOption) *Watcher {
	w := &Watcher{
		engine: engine,
		log: engine.log.With(
			slog.String("worker", "watcher"),
		),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Start activates the watcher for a user. An empty userID deactivates it
// instead: there is nobody to evaluate for. Restarting with a different
// user discards the previous activation.
func (w *Watcher) Start(ctx context.Context, userID string, cohort UserCohort) {
	w.Stop()
	if userID == "" {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.active = true
	w.userID = userID
	w.cohort = cohort
	w.cancel = cancel
	w.state = WatcherState{IsLoading: true}
	w.mu.Unlock()
	w.notify()

	go w.run(ctx, userID, cohort)
}

// Stop deactivates the watcher and clears its local state. Engine
// singletons are untouched.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasActive := w.active
	cancel := w.cancel
	w.active = false
	w.userID = ""
	w.cohort = ""
	w.cancel = nil
	w.state = WatcherState{}
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if wasActive {
		w.notify()
	}
}

// State returns the current observable snapshot.
func (w *Watcher) State() WatcherState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Refresh forces a reset-then-evaluate cycle on demand, with the same
// keep-prior-result behavior as the background refresh. No-op while
// inactive.
func (w *Watcher) Refresh(ctx context.Context) error {
	_, err := w.refreshOnce(ctx)
	return err
}

func (w *Watcher) run(ctx context.Context, userID string, cohort UserCohort) {
	// Phase 1: hydrate from the durable cache for an instant first decision.
	if cached, err := w.engine.HydrateFromPersistedCache(ctx, userID, cohort); err == nil && cached != nil {
		w.update(userID, WatcherState{Result: cached})
	}

	// Phase 2: exactly one reconciling refresh against the remote source.
	if _, err := w.refreshOnce(ctx); err != nil && ctx.Err() == nil {
		w.log.Warn("background flag refresh failed", "error", err)
	}

	if w.interval <= 0 {
		return
	}

	// Periodic reconciliation. A refresh that had to fall back is retried
	// with backoff; a remote answer returns to the regular cadence.
	b := newBackoff()
	timer := time.NewTimer(w.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			result, err := w.refreshOnce(ctx)
			if err != nil || result.Source != SourceRemote {
				timer.Reset(b.next())
			} else {
				b.reset()
				timer.Reset(w.interval)
			}
		}
	}
}

// refreshOnce resets the engine session and re-evaluates. The "had a result"
// snapshot is taken before the reset so a failed refresh can never regress
// an adopted result back to nil.
func (w *Watcher) refreshOnce(ctx context.Context) (FlagResult, error) {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		return FlagResult{}, nil
	}
	userID := w.userID
	cohort := w.cohort
	prior := w.state.Result
	if prior == nil {
		w.state = WatcherState{IsLoading: true}
	}
	w.mu.Unlock()
	if prior == nil {
		w.notify()
	}

	w.engine.ResetSession()
	result, err := w.engine.Evaluate(ctx, userID, cohort)
	if err != nil {
		if prior != nil {
			w.update(userID, WatcherState{Result: prior})
			return *prior, err
		}
		fallback := w.engine.GetWithFallback(cohort)
		w.update(userID, WatcherState{Result: &fallback})
		return fallback, err
	}
	w.update(userID, WatcherState{Result: &result})
	return result, nil
}

// update adopts a new snapshot unless the watcher was deactivated or
// restarted for another user while the work was in flight.
func (w *Watcher) update(userID string, state WatcherState) {
	w.mu.Lock()
	if !w.active || w.userID != userID {
		w.mu.Unlock()
		return
	}
	w.state = state
	w.mu.Unlock()
	w.notify()
}

func (w *Watcher) notify() {
	if w.onChange == nil {
		return
	}
	w.onChange(w.State())
}
