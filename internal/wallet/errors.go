package wallet

import (
	"errors"
	"fmt"
)

// ErrConfirmationTimeout marks a transaction whose finality was not observed
// within the tracking window. It does not prove the transaction failed
// on-chain; it is a local observation timeout.
var ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

// ValidationError carries field-level validation failures. Submission is
// blocked while any field error is present.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// NetworkError wraps an RPC/network failure (unreachable endpoint, failed fee
// estimation, failed balance fetch). It is surfaced to the user as a
// retryable, non-field error; there is no automatic retry.
type NetworkError struct {
	Chain string
	Op    string
	Err   error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Chain, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SubmissionError means the network rejected a broadcast. The send attempt
// is terminal and no transaction record exists for it.
type SubmissionError struct {
	Chain string
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: broadcast rejected: %v", e.Chain, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// AuthError means the pre-submission authentication challenge failed or was
// cancelled. No state is mutated; the user may retry.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}
