package models

// FailureKind classifies why a fund could not be fetched.
type FailureKind string

const (
	// FailureNotFound: the provider does not know the code. Never retried.
	FailureNotFound FailureKind = "not_found"
	// FailureRateLimited: provider backpressure (429). The transport already
	// slept before surfacing this; callers do not retry within a run.
	FailureRateLimited FailureKind = "rate_limited"
	// FailureTransient: network error, timeout or 5xx.
	FailureTransient FailureKind = "transient"
	// FailureMalformed: body was not the expected structure, or the provider
	// envelope did not carry the success status.
	FailureMalformed FailureKind = "malformed"
)

// FetchFailure records one fund that dropped out of a run.
type FetchFailure struct {
	Code string      `json:"code"`
	Kind FailureKind `json:"kind"`
	Err  string      `json:"error,omitempty"`
}
