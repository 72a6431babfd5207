package domain

import (
	"errors"
	"fmt"
)

var (
	ErrLoadFailed    = errors.New("resource load failed")
	ErrNotFound      = errors.New("resource not found")
	ErrUnknownClient = errors.New("unknown client")
)

// ResourceError reports a failed operation on a routing resource.
// Kind is ErrLoadFailed or ErrNotFound.
type ResourceError struct {
	Kind error
	Op   string
	Name string
	Err  error
}

func NewLoadFailed(op, name string, err error) *ResourceError {
	return &ResourceError{Kind: ErrLoadFailed, Op: op, Name: name, Err: err}
}

func NewNotFound(op, name string) *ResourceError {
	return &ResourceError{Kind: ErrNotFound, Op: op, Name: name}
}

func (e *ResourceError) Error() string {
	msg := fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResourceError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PolicyError reports an operation on a client the registry does not know.
type PolicyError struct {
	Op     string
	Client ClientID
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s: client %d: %v", e.Op, e.Client, ErrUnknownClient)
}

func (e *PolicyError) Unwrap() error { return ErrUnknownClient }
