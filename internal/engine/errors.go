package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/listsync/internal/ir"
)

// SyncError represents an error raised while submitting or applying a
// changeset.
//
// Sync errors include:
//   - Invalid changeset: malformed or self-contradictory operations
//   - Unknown identity: removal or update of an identity not in the list
//   - Computation failure: the sizer failed, the transition was abandoned
//   - Concurrent sync conflict: a sync apply issued from the owner loop
//   - Engine stopped: the owner loop exited before the transition committed
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Message is a human-readable description.
	Message string

	// ItemID identifies the offending item, if any.
	ItemID ir.ItemID

	// Index is the offending index, or -1.
	Index int

	// Token identifies the affected transition, if one was created.
	Token string

	// Err is the underlying cause.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeInvalidChangeset indicates a malformed changeset.
	ErrCodeInvalidChangeset SyncErrorCode = "INVALID_CHANGESET"

	// ErrCodeUnknownIdentity indicates an operation on an absent identity.
	ErrCodeUnknownIdentity SyncErrorCode = "UNKNOWN_IDENTITY"

	// ErrCodeComputationFailed indicates the transition could not be computed.
	ErrCodeComputationFailed SyncErrorCode = "TRANSITION_COMPUTATION_FAILED"

	// ErrCodeConcurrentSyncConflict indicates a sync apply on the owner loop.
	ErrCodeConcurrentSyncConflict SyncErrorCode = "CONCURRENT_SYNC_CONFLICT"

	// ErrCodeStopped indicates the engine stopped before committing.
	ErrCodeStopped SyncErrorCode = "ENGINE_STOPPED"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	switch {
	case e.Token != "" && e.ItemID != "":
		return fmt.Sprintf("%s: %s (token=%s, item=%s)", e.Code, e.Message, e.Token, e.ItemID)
	case e.Token != "":
		return fmt.Sprintf("%s: %s (token=%s)", e.Code, e.Message, e.Token)
	case e.ItemID != "":
		return fmt.Sprintf("%s: %s (item=%s)", e.Code, e.Message, e.ItemID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *SyncError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code SyncErrorCode) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsInvalidChangeset returns true if err is an invalid changeset error.
// Uses errors.As to handle wrapped errors.
func IsInvalidChangeset(err error) bool {
	return hasCode(err, ErrCodeInvalidChangeset)
}

// IsUnknownIdentity returns true if err is an unknown identity error.
func IsUnknownIdentity(err error) bool {
	return hasCode(err, ErrCodeUnknownIdentity)
}

// IsComputationFailed returns true if err is a transition computation failure.
func IsComputationFailed(err error) bool {
	return hasCode(err, ErrCodeComputationFailed)
}

// IsStopped returns true if the engine stopped before the transition committed.
func IsStopped(err error) bool {
	return hasCode(err, ErrCodeStopped)
}

// Code returns the SyncErrorCode carried by err, or "" if there is none.
func Code(err error) SyncErrorCode {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// fromPlanError converts a planner error into a SyncError.
func fromPlanError(err error) *SyncError {
	se := &SyncError{
		Code:    ErrCodeInvalidChangeset,
		Message: err.Error(),
		Index:   -1,
		Err:     err,
	}
	if errors.Is(err, ir.ErrUnknownIdentity) {
		se.Code = ErrCodeUnknownIdentity
	}
	var ce *ir.ChangesetError
	if errors.As(err, &ce) {
		se.Message = ce.Message
		se.ItemID = ce.ItemID
		se.Index = ce.Index
	}
	return se
}

// NewComputationError creates a SyncError for a failed transition.
func NewComputationError(token string, err error) *SyncError {
	return &SyncError{
		Code:    ErrCodeComputationFailed,
		Message: err.Error(),
		Index:   -1,
		Token:   token,
		Err:     err,
	}
}

func newStoppedError(token string) *SyncError {
	return &SyncError{
		Code:    ErrCodeStopped,
		Message: "engine stopped before the transition was applied",
		Index:   -1,
		Token:   token,
	}
}

func newConflictError() *SyncError {
	return &SyncError{
		Code:    ErrCodeConcurrentSyncConflict,
		Message: "synchronous apply issued from the engine's owner loop",
		Index:   -1,
	}
}
