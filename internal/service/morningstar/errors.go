package morningstar

import (
	"errors"
	"fmt"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
)

// FetchError is a classified per-fund fetch failure. Failures never
// abort a batch; the orchestrator collects them by code.
type FetchError struct {
	Code     string
	Endpoint string
	Kind     models.FailureKind
	Err      error
}

func (e *FetchError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("fund %s %s: %s: %v", e.Code, e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("fund %s: %s: %v", e.Code, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Classify returns the failure kind of err. Unclassified errors count
// as transient.
func Classify(err error) models.FailureKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return models.FailureTransient
}
