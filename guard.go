package featuregate

// AccessReason explains the outcome of a synchronous access check.
type AccessReason string

const (
	ReasonEnabled      AccessReason = "enabled"
	ReasonDisabled     AccessReason = "disabled"
	ReasonNotEvaluated AccessReason = "not_evaluated"
)

// AccessCheck is the outcome of an instantaneous gate decision.
type AccessCheck struct {
	Allowed bool
	Reason  AccessReason
}

// CanAccess makes an instantaneous gate decision from session state alone,
// for call sites that cannot await anything (button handlers, deep links).
// It never triggers an evaluation. Absence of a completed evaluation denies
// access: the guard never grants on optimism.
func (e *Engine) CanAccess() AccessCheck {
	result := e.GetSync()
	if result == nil {
		return AccessCheck{Allowed: false, Reason: ReasonNotEvaluated}
	}
	if !result.Enabled {
		return AccessCheck{Allowed: false, Reason: ReasonDisabled}
	}
	return AccessCheck{Allowed: true, Reason: ReasonEnabled}
}
