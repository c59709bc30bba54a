package featuregate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds the remote flag lookup. The UI waits on the
	// first evaluation, so this is deliberately tight.
	DefaultTimeout = 400 * time.Millisecond

	// DefaultBaseURL is the managed backend's function endpoint.
	DefaultBaseURL = "https://api.closetspace.app/functions/v1/"

	// DefaultStaleAfter is the age past which a persisted value is still
	// used but reported as stale.
	DefaultStaleAfter = 24 * time.Hour
)

type config struct {
	baseURL     string
	environment EnvironmentTag
	timeout     time.Duration
	staleAfter  time.Duration
}

func defaultConfig() config {
	return config{
		baseURL:     DefaultBaseURL,
		environment: EnvProduction,
		timeout:     DefaultTimeout,
		staleAfter:  DefaultStaleAfter,
	}
}

// Engine decides whether one gated feature is enabled for a user. It owns
// the session cache and the in-flight evaluation handle; construct one
// instance per flag and share it process-wide.
type Engine struct {
	flagKey   string
	config    config
	client    *resty.Client
	remote    RemoteSource
	storage   Storage
	probe     OfflineProbe
	telemetry Recorder
	log       *slog.Logger

	mu       sync.Mutex
	session  *FlagResult
	inflight *evaluation
}

// evaluation is the shared pending computation handle. It exists only
// between the start and settlement of one evaluation; concurrent callers
// wait on done and read result afterwards.
type evaluation struct {
	done   chan struct{}
	result FlagResult
}

// New creates an Engine for flagKey with the given options.
func New(flagKey string, options ...Option) *Engine {
	e := &Engine{
		flagKey: flagKey,
		config:  defaultConfig(),
		client:  resty.New(),
		log:     slog.Default(),
	}

	e.client.SetHeaders(map[string]string{
		"Accept":     "application/json",
		"User-Agent": getUserAgent(),
	})

	for _, opt := range options {
		opt(e)
	}

	e.log = e.log.With(slog.String("flag_key", flagKey))
	e.client.OnBeforeRequest(newRestyLogRequestMiddleware(e.log))
	e.client.OnAfterResponse(newRestyLogResponseMiddleware(e.log))

	if e.remote == nil {
		e.remote = newHTTPRemoteSource(e.client, e.config.baseURL)
	}
	if e.telemetry == nil {
		e.telemetry = NewSlogRecorder(e.log)
	}

	return e
}

// Evaluate answers whether the flag is on for userID, resolving through the
// chain: session cache, shared in-flight result, remote lookup bounded by
// the timeout, persisted prior value, environment default. Remote and
// storage failures never surface here; the only errors are an empty userID
// and cancellation of the caller's own ctx.
func (e *Engine) Evaluate(ctx context.Context, userID string, cohort UserCohort) (FlagResult, error) {
	if userID == "" {
		return FlagResult{}, ClientError{msg: "featuregate: user id must not be empty"}
	}

	e.mu.Lock()
	if e.session != nil {
		result := *e.session
		e.mu.Unlock()
		return result, nil
	}
	if pending := e.inflight; pending != nil {
		e.mu.Unlock()
		select {
		case <-pending.done:
			return pending.result, nil
		case <-ctx.Done():
			return FlagResult{}, ctx.Err()
		}
	}
	pending := &evaluation{done: make(chan struct{})}
	e.inflight = pending
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		// A ResetSession during the evaluation may have already detached
		// this handle, or a newer evaluation may own the slot.
		if e.inflight == pending {
			e.inflight = nil
		}
		e.mu.Unlock()
		close(pending.done)
	}()

	result := e.resolve(ctx, userID, cohort)
	pending.result = result

	e.mu.Lock()
	e.session = &result
	e.mu.Unlock()

	return result, nil
}

// resolve runs the fallback chain once. It always produces a FlagResult.
func (e *Engine) resolve(ctx context.Context, userID string, cohort UserCohort) FlagResult {
	evaluationID := uuid.NewString()
	log := e.log.With(
		slog.String("evaluation_id", evaluationID),
		slog.String("user_id", userID),
		slog.String("cohort", string(cohort)),
	)

	offline := e.probe != nil && e.probe.IsOffline(ctx)
	if offline {
		log.Debug("device offline, skipping remote evaluation")
		e.record(EventError, evaluationID, map[string]any{"kind": string(ErrorOffline)})
	} else {
		started := time.Now()
		remoteCtx, cancel := context.WithTimeout(ctx, e.config.timeout)
		enabled, err := e.remote.Invoke(remoteCtx, e.flagKey, userID, cohort)
		cancel()
		if err == nil {
			latency := time.Since(started)
			result := FlagResult{
				Enabled:     enabled,
				Source:      SourceRemote,
				Environment: e.config.environment,
				Cohort:      cohort,
				EvaluatedAt: time.Now(),
			}
			e.persist(ctx, log, userID, cohort, enabled)
			e.record(EventEvaluated, evaluationID, map[string]any{
				"enabled":    enabled,
				"latency_ms": latency.Milliseconds(),
			})
			log.Debug("remote evaluation succeeded",
				slog.Bool("enabled", enabled),
				slog.Duration("latency", latency),
			)
			return result
		}
		kind := errorKind(err)
		e.record(EventError, evaluationID, map[string]any{"kind": string(kind)})
		log.Warn("remote evaluation failed", "error", err, slog.String("kind", string(kind)))
	}

	if entry, cachedAt, ok := e.loadPersisted(ctx, log, userID); ok {
		age := time.Since(cachedAt)
		stale := age > e.config.staleAfter
		if stale {
			log.Info("using stale cached flag value",
				slog.Time("cached_at", cachedAt),
				slog.Duration("age", age),
			)
		}
		e.record(EventCacheUsed, evaluationID, map[string]any{
			"enabled": entry.Enabled,
			"stale":   stale,
		})
		return FlagResult{
			Enabled:     entry.Enabled,
			Source:      SourceCached,
			Environment: e.config.environment,
			Cohort:      cohort,
			EvaluatedAt: time.Now(),
		}
	}

	enabled := DefaultFor(e.config.environment, cohort)
	reason := "remote_failure"
	if offline {
		reason = "offline"
	}
	e.record(EventFallbackUsed, evaluationID, map[string]any{
		"enabled": enabled,
		"reason":  reason,
	})
	log.Info("using environment default",
		slog.Bool("enabled", enabled),
		slog.String("reason", reason),
	)
	return FlagResult{
		Enabled:     enabled,
		Source:      SourceFallback,
		Environment: e.config.environment,
		Cohort:      cohort,
		EvaluatedAt: time.Now(),
	}
}

// persist writes the remote value to durable storage. Failures are logged
// and ignored: the in-memory result still stands.
func (e *Engine) persist(ctx context.Context, log *slog.Logger, userID string, cohort UserCohort, enabled bool) {
	if e.storage == nil {
		return
	}
	value, err := encodePersistedEntry(e.flagKey, enabled, userID, cohort, e.config.environment, time.Now())
	if err == nil {
		err = e.storage.Set(ctx, storageKey, value)
	}
	if err != nil {
		e.record(EventError, "", map[string]any{"kind": string(ErrorStorage)})
		log.Warn("failed to persist flag value", "error", err)
	}
}

// loadPersisted reads the durable record for userID. Any failure, schema
// mismatch, user mismatch or flag mismatch reports a miss.
func (e *Engine) loadPersisted(ctx context.Context, log *slog.Logger, userID string) (*persistedEntry, time.Time, bool) {
	if e.storage == nil {
		return nil, time.Time{}, false
	}
	raw, err := e.storage.Get(ctx, storageKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			e.record(EventError, "", map[string]any{"kind": string(ErrorStorage)})
			log.Warn("failed to read persisted flag value", "error", err)
		}
		return nil, time.Time{}, false
	}
	entry, cachedAt, err := decodePersistedEntry(raw)
	if err != nil {
		log.Warn("discarding unreadable persisted flag value", "error", err)
		return nil, time.Time{}, false
	}
	if entry.UserID != userID || entry.FlagKey != e.flagKey {
		log.Debug("persisted flag value belongs to another user or flag, ignoring")
		return nil, time.Time{}, false
	}
	return entry, cachedAt, true
}

func (e *Engine) record(event, evaluationID string, payload map[string]any) {
	payload["flag_key"] = e.flagKey
	payload["environment"] = string(e.config.environment)
	if evaluationID != "" {
		payload["evaluation_id"] = evaluationID
	}
	e.telemetry.Record(event, payload)
}

// GetSync returns the session cache entry verbatim, or nil if no evaluation
// has completed in this process session. It never performs I/O. Immediately
// after ResetSession it returns nil until the next Evaluate settles.
func (e *Engine) GetSync() *FlagResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	result := *e.session
	return &result
}

// GetWithFallback never returns a zero result: it returns the session entry
// when present, otherwise the environment default as a fallback-sourced
// result. It does not mutate cache state, so render paths can call it freely.
func (e *Engine) GetWithFallback(cohort UserCohort) FlagResult {
	if result := e.GetSync(); result != nil {
		return *result
	}
	return FlagResult{
		Enabled:     DefaultFor(e.config.environment, cohort),
		Source:      SourceFallback,
		Environment: e.config.environment,
		Cohort:      cohort,
		EvaluatedAt: time.Now(),
	}
}

// IsEvaluated reports whether an evaluation has completed this session.
func (e *Engine) IsEvaluated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// ResetSession clears the session cache entry and detaches any in-flight
// evaluation so the next Evaluate goes back to the remote source. Durable
// storage is untouched. Until that next Evaluate settles, GetSync returns
// nil and CanAccess denies.
func (e *Engine) ResetSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = nil
	e.inflight = nil
}

// HydrateFromPersistedCache populates the session cache from the durable
// store without touching the network, so returning users get an instant
// decision. A record for another user yields nil and leaves state untouched.
func (e *Engine) HydrateFromPersistedCache(ctx context.Context, userID string, cohort UserCohort) (*FlagResult, error) {
	if userID == "" {
		return nil, ClientError{msg: "featuregate: user id must not be empty"}
	}
	if result := e.GetSync(); result != nil {
		return result, nil
	}
	entry, _, ok := e.loadPersisted(ctx, e.log.With(slog.String("user_id", userID)), userID)
	if !ok {
		return nil, nil
	}
	result := FlagResult{
		Enabled:     entry.Enabled,
		Source:      SourceCached,
		Environment: e.config.environment,
		Cohort:      cohort,
		EvaluatedAt: time.Now(),
	}
	e.mu.Lock()
	if e.session == nil {
		e.session = &result
	} else {
		// An evaluation settled while we were reading storage; it wins.
		result = *e.session
	}
	e.mu.Unlock()
	return &result, nil
}

// ClearPersistedCache removes the durable record and resets session state.
// Call it on logout so the next user's first evaluation is never
// contaminated by this user's cached value.
func (e *Engine) ClearPersistedCache(ctx context.Context) error {
	e.ResetSession()
	if e.storage == nil {
		return nil
	}
	if err := e.storage.Remove(ctx, storageKey); err != nil {
		e.record(EventError, "", map[string]any{"kind": string(ErrorStorage)})
		e.log.Warn("failed to clear persisted flag value", "error", err)
		return EvaluationError{kind: ErrorStorage, msg: "featuregate: clearing persisted cache: " + err.Error()}
	}
	return nil
}
