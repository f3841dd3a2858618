package contract

import "errors"

var (
	// ErrStoreUnavailable means the catalog backing store could not be
	// opened or reached. Fatal at startup; main retries with backoff.
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrExtractionFailed means the text-completion call failed or timed
	// out. The caller recovers by re-asking the pending question.
	ErrExtractionFailed = errors.New("profile extraction failed")

	// ErrIncompleteProfile means the recommendation engine was invoked
	// before the collecting-phase preconditions held.
	ErrIncompleteProfile = errors.New("profile incomplete for recommendation")

	// ErrNoEligibleCards is a valid empty result, not a failure: the
	// catalog simply has no card matching the profile's income.
	ErrNoEligibleCards = errors.New("no eligible cards for profile")

	ErrValidation = errors.New("validation failed")
)
