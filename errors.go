package featuregate

// ErrorKind classifies a failure inside the evaluation chain. Every kind is
// non-fatal: evaluation always resolves to a usable FlagResult through the
// fallback chain, and only telemetry observes the failure.
type ErrorKind string

const (
	ErrorTimeout         ErrorKind = "timeout"
	ErrorNetwork         ErrorKind = "network_error"
	ErrorInvalidResponse ErrorKind = "invalid_response"
	ErrorStorage         ErrorKind = "storage_error"
	ErrorOffline         ErrorKind = "offline"
)

// EvaluationError is a classified failure from the remote source, the
// offline probe or the persistent cache store.
type EvaluationError struct {
	kind ErrorKind
	msg  string
}

func (e EvaluationError) Error() string {
	return e.msg
}

// Kind returns the taxonomy bucket for this failure.
func (e EvaluationError) Kind() ErrorKind {
	return e.kind
}

// ClientError reports misuse of the SDK by the caller, such as evaluating
// with an empty user id.
type ClientError struct {
	msg string
}

func (e ClientError) Error() string {
	return e.msg
}

// errorKind extracts the taxonomy bucket from an error, defaulting to
// network_error for unclassified transport failures.
func errorKind(err error) ErrorKind {
	if ee, ok := err.(EvaluationError); ok {
		return ee.kind
	}
	return ErrorNetwork
}
