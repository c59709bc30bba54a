package featuregate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// RemoteSource answers a single flag lookup for one user. Implementations
// must honor ctx cancellation: the engine bounds every call with a deadline
// and expects the request to be abandoned when it expires.
type RemoteSource interface {
	Invoke(ctx context.Context, flagKey, userID string, cohort UserCohort) (bool, error)
}

// evaluateRequest and evaluateResponse mirror the managed backend function
// contract: {success, flags: {<flagKey>: bool}}.
type evaluateRequest struct {
	FlagKey string `json:"flag_key"`
	UserID  string `json:"user_id"`
	Cohort  string `json:"cohort"`
}

type evaluateResponse struct {
	Success bool            `json:"success"`
	Flags   map[string]bool `json:"flags"`
}

type httpRemoteSource struct {
	client *resty.Client
	url    string
}

func newHTTPRemoteSource(client *resty.Client, baseURL string) *httpRemoteSource {
	return &httpRemoteSource{
		client: client,
		url:    baseURL + "flags/evaluate/",
	}
}

// Invoke never lets a transport, schema or shape failure escape unclassified:
// every error it returns carries an ErrorKind.
func (s *httpRemoteSource) Invoke(ctx context.Context, flagKey, userID string, cohort UserCohort) (bool, error) {
	var result evaluateResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(evaluateRequest{FlagKey: flagKey, UserID: userID, Cohort: string(cohort)}).
		SetResult(&result).
		Post(s.url)
	if err != nil {
		return false, classifyTransportError(err)
	}
	if resp.IsError() {
		return false, EvaluationError{kind: ErrorNetwork, msg: "flag endpoint returned " + resp.Status()}
	}
	if !result.Success {
		return false, EvaluationError{kind: ErrorInvalidResponse, msg: "flag endpoint reported success=false"}
	}
	enabled, ok := result.Flags[flagKey]
	if !ok {
		return false, EvaluationError{kind: ErrorInvalidResponse, msg: fmt.Sprintf("flag %q missing from response", flagKey)}
	}
	return enabled, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return EvaluationError{kind: ErrorTimeout, msg: "flag evaluation timed out: " + err.Error()}
	}
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	if errors.As(err, &typeErr) || errors.As(err, &syntaxErr) {
		return EvaluationError{kind: ErrorInvalidResponse, msg: "flag endpoint returned malformed body: " + err.Error()}
	}
	return EvaluationError{kind: ErrorNetwork, msg: err.Error()}
}
