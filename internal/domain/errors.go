package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrCyclicDependency is returned when contract dependencies form a cycle
	ErrCyclicDependency = errors.New("cyclic dependency")

	// ErrAlreadyFinalized is returned when a finalized record entry would be overwritten
	ErrAlreadyFinalized = errors.New("contract already finalized in record")

	// ErrRecordLocked is returned when another run holds the deployment record
	ErrRecordLocked = errors.New("deployment record is locked by another run")

	// Governance
	ErrVotingActive    = errors.New("voting still active")
	ErrAlreadyExecuted = errors.New("already executed")
	ErrVotingClosed    = errors.New("voting period closed")
	ErrAlreadyVoted    = errors.New("already voted")
	ErrNoVotingPower   = errors.New("no voting power")
)

// ConnectionError reports that the network endpoint could not be reached.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("connection failed: %v", e.Err)
	}
	return fmt.Sprintf("connection to %s failed: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ValidationError reports malformed input or an unmet precondition.
// Nothing was submitted when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ResourceEstimationError reports a failed dry-run or an estimate over budget.
type ResourceEstimationError struct {
	Label     string
	Resource  string
	Estimated uint64
	Limit     uint64
	Err       error
}

func (e *ResourceEstimationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resource estimation for %s failed: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("%s requires %d %s, budget is %d", e.Label, e.Estimated, e.Resource, e.Limit)
}

func (e *ResourceEstimationError) Unwrap() error { return e.Err }

// TransactionFailedError wraps a transaction that finalized with a dispatch error.
type TransactionFailedError struct {
	Label   string
	Outcome *models.TransactionOutcome
}

func (e *TransactionFailedError) Error() string {
	msg := fmt.Sprintf("transaction %s (%s) failed", e.Label, e.Outcome.TxID.Hex())
	if e.Outcome.DispatchError != nil {
		msg += ": " + e.Outcome.DispatchError.Error()
	}
	return msg
}

func (e *TransactionFailedError) Unwrap() error {
	if e.Outcome.DispatchError == nil {
		return nil
	}
	return e.Outcome.DispatchError
}

// UnknownOutcomeError reports that a submitted transaction could not be followed
// to a terminal state. The caller must reconcile by transaction id.
type UnknownOutcomeError struct {
	Label  string
	TxID   common.Hash
	Reason string
}

func (e *UnknownOutcomeError) Error() string {
	return fmt.Sprintf("outcome of %s (%s) is unknown: %s; reconcile before retrying", e.Label, e.TxID.Hex(), e.Reason)
}

// VerificationMismatch describes one expected-vs-actual difference. It is
// reported, never returned as a fatal error.
type VerificationMismatch struct {
	Contract string
	Key      string
	Expected string
	Actual   string
}

func (m VerificationMismatch) Error() string {
	return fmt.Sprintf("%s.%s: expected %s, got %s", m.Contract, m.Key, m.Expected, m.Actual)
}

// OutcomeError converts a non-finalized outcome into the matching error.
// It returns nil for a finalized outcome.
func OutcomeError(label string, outcome *models.TransactionOutcome) error {
	switch outcome.State {
	case models.TxFinalized:
		return nil
	case models.TxFailed:
		return &TransactionFailedError{Label: label, Outcome: outcome}
	default:
		return &UnknownOutcomeError{Label: label, TxID: outcome.TxID, Reason: outcome.Reason}
	}
}
