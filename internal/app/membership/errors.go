// internal/app/membership/errors.go
package membership

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error kinds. Every error the engine returns for a refused operation matches
// exactly one of these with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrInvalidState         = errors.New("invalid state")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("forbidden")
	ErrExclusivityViolation = errors.New("exclusivity violation")
)

// Error is a refused operation of one Kind with a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error { return newError(ErrNotFound, format, args...) }
func conflict(format string, args ...any) error { return newError(ErrConflict, format, args...) }
func invalidState(format string, args ...any) error { return newError(ErrInvalidState, format, args...) }
func invalidInput(format string, args ...any) error { return newError(ErrInvalidInput, format, args...) }
func forbidden(format string, args ...any) error { return newError(ErrForbidden, format, args...) }

// ExclusivityError is returned when a membership would give a user a second
// member role in a professional group. It names the group already held so
// callers can show it.
type ExclusivityError struct {
	UserID             primitive.ObjectID
	HeldGroupID        primitive.ObjectID
	HeldGroupName      string
	RequestedGroupID   primitive.ObjectID
	RequestedGroupName string
}

func (e *ExclusivityError) Error() string {
	if e.HeldGroupName != "" {
		return fmt.Sprintf("already a member of professional group %q; leave it before joining %q", e.HeldGroupName, e.RequestedGroupName)
	}
	return fmt.Sprintf("already a member of another professional group; leave it before joining %q", e.RequestedGroupName)
}

// Is makes errors.Is(err, ErrExclusivityViolation) true.
func (e *ExclusivityError) Is(target error) bool {
	return target == ErrExclusivityViolation
}
