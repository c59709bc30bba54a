package featuregate

import (
	"golang.org/x/exp/slices"
)

// EnvironmentTag identifies the runtime environment the app was built for.
type EnvironmentTag string

const (
	EnvDevelopment EnvironmentTag = "development"
	EnvStaging     EnvironmentTag = "staging"
	EnvProduction  EnvironmentTag = "production"
)

// UserCohort is the caller's role or segment used for targeting.
type UserCohort string

const (
	CohortStandard UserCohort = "standard"
	CohortStylist  UserCohort = "stylist"
	CohortInternal UserCohort = "internal"
)

// privilegedCohorts see gated features on staging before general rollout.
var privilegedCohorts = []UserCohort{CohortInternal}

// DefaultFor returns the deterministic default for an environment and cohort
// when neither a remote value nor a persisted one is available.
//
// Development enables everything so local work is never blocked, staging
// enables only privileged cohorts, production and any unrecognized
// environment fail closed.
func DefaultFor(env EnvironmentTag, cohort UserCohort) bool {
	switch env {
	case EnvDevelopment:
		return true
	case EnvStaging:
		return slices.Contains(privilegedCohorts, cohort)
	default:
		return false
	}
}
