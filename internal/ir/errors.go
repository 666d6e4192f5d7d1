package ir

import (
	"errors"
	"fmt"
)

// Planner error categories. Use errors.Is against a *ChangesetError.
var (
	// ErrInvalidChangeset marks a changeset that is malformed or conflicts
	// with itself or with the list it is planned against.
	ErrInvalidChangeset = errors.New("invalid changeset")

	// ErrUnknownIdentity marks a removal or update of an identity that is
	// absent from the list.
	ErrUnknownIdentity = errors.New("unknown identity")
)

// ChangesetError describes why a changeset could not be planned.
type ChangesetError struct {
	// Kind is ErrInvalidChangeset or ErrUnknownIdentity.
	Kind error

	// ItemID is the offending identity, if any.
	ItemID ItemID

	// Index is the offending index, or -1.
	Index int

	Message string
}

func newChangesetError(kind error, id ItemID, index int, format string, args ...any) *ChangesetError {
	return &ChangesetError{
		Kind:    kind,
		ItemID:  id,
		Index:   index,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ChangesetError) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap returns the error category.
func (e *ChangesetError) Unwrap() error {
	return e.Kind
}
