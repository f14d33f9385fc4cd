package chat

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the chat service can report.
type Kind uint8

const (
	KindUnknown Kind = iota
	UserNotFound
	InsufficientFunds
	Conflict
	NotFound
	StoreError
	TransportError
)

func (k Kind) String() string {
	switch k {
	case UserNotFound:
		return "user not found"
	case InsufficientFunds:
		return "insufficient funds"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not found"
	case StoreError:
		return "store error"
	case TransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// Error carries a Kind together with the operation that failed and the
// underlying cause, if any.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so errors.Is(err, &Error{Kind: NotFound}) works
// regardless of Op and cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// E builds an *Error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Sentinels usable with errors.Is.
var (
	ErrUserNotFound      = &Error{Kind: UserNotFound}
	ErrInsufficientFunds = &Error{Kind: InsufficientFunds}
	ErrConflict          = &Error{Kind: Conflict}
	ErrNotFound          = &Error{Kind: NotFound}
)
