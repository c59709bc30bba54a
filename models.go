package featuregate

import (
	"encoding/json"
	"time"

	"github.com/blang/semver/v4"
	"github.com/itlightning/dateparse"
)

// Source describes how a flag decision was obtained. Exactly one source
// applies to every FlagResult.
type Source string

const (
	// SourceRemote means the flag service answered within the deadline.
	SourceRemote Source = "remote"
	// SourceCached means the remote call failed or timed out and a
	// persisted prior value for this user was used instead.
	SourceCached Source = "cached"
	// SourceFallback means neither a remote nor a persisted value was
	// available and the environment default policy decided.
	SourceFallback Source = "fallback"
)

// FlagResult is the evaluated outcome for one flag, one user, one process
// session.
type FlagResult struct {
	Enabled     bool
	Source      Source
	Environment EnvironmentTag
	Cohort      UserCohort
	EvaluatedAt time.Time
}

// persistedSchemaVersion is stamped on every durable record. Records whose
// major version differs are ignored on read.
const persistedSchemaVersion = "1.1.0"

// persistedEntry is the durable record written after a successful remote
// evaluation. cached_at is RFC3339 on write but parsed leniently: builds
// before 1.1.0 wrote platform-formatted timestamps.
type persistedEntry struct {
	SchemaVersion string `json:"schema_version"`
	FlagKey       string `json:"flag_key"`
	Enabled       bool   `json:"enabled"`
	UserID        string `json:"user_id"`
	Cohort        string `json:"cohort"`
	CachedAt      string `json:"cached_at"`
	Environment   string `json:"environment"`
}

func encodePersistedEntry(flagKey string, enabled bool, userID string, cohort UserCohort, env EnvironmentTag, cachedAt time.Time) (string, error) {
	raw, err := json.Marshal(persistedEntry{
		SchemaVersion: persistedSchemaVersion,
		FlagKey:       flagKey,
		Enabled:       enabled,
		UserID:        userID,
		Cohort:        string(cohort),
		CachedAt:      cachedAt.UTC().Format(time.RFC3339),
		Environment:   string(env),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodePersistedEntry parses a durable record. The returned time is the
// record's cached-at stamp; it is the zero time when the timestamp could not
// be parsed, which callers treat as maximally stale.
func decodePersistedEntry(raw string) (*persistedEntry, time.Time, error) {
	var entry persistedEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, time.Time{}, EvaluationError{kind: ErrorStorage, msg: "malformed cache record: " + err.Error()}
	}
	recordVersion, err := semver.Make(entry.SchemaVersion)
	if err != nil {
		return nil, time.Time{}, EvaluationError{kind: ErrorStorage, msg: "cache record has invalid schema version " + entry.SchemaVersion}
	}
	if recordVersion.Major != semver.MustParse(persistedSchemaVersion).Major {
		return nil, time.Time{}, EvaluationError{kind: ErrorStorage, msg: "cache record schema version " + entry.SchemaVersion + " is incompatible"}
	}
	cachedAt, err := dateparse.ParseAny(entry.CachedAt)
	if err != nil {
		cachedAt = time.Time{}
	}
	return &entry, cachedAt, nil
}
