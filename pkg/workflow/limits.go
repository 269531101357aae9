package workflow

// Bounds the executor enforces to keep a single run from running forever
// or growing without bound (spec.md §4.1.4, §8 invariants).
const (
	// DefaultMaxHistorySize caps WorkflowRun.History; the oldest events are
	// dropped once exceeded.
	DefaultMaxHistorySize = 10000

	// DefaultMaxTransitions caps the number of state transitions a single
	// Start/Resume call will take before giving up with
	// a *TransitionLimitExceededError.
	DefaultMaxTransitions = 1000

	// DefaultMaxBranchTransitions caps transitions taken within a single
	// fork branch before that branch is considered stuck.
	DefaultMaxBranchTransitions = 100

	// DefaultRetryMaxAttemptsCeiling is the upper clamp for a transition's
	// retry_max_attempts metadata.
	DefaultRetryMaxAttemptsCeiling = 100

	// DefaultRetryBackoffMsCeiling is the upper clamp, in milliseconds, for
	// a transition's retry_backoff_ms metadata.
	DefaultRetryBackoffMsCeiling = 60000

	// DefaultRetryBackoffMultiplierCeiling is the upper clamp for a
	// transition's retry_backoff_multiplier metadata.
	DefaultRetryBackoffMultiplierCeiling = 10
)
