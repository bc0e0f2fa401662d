package models

import (
	"errors"
	"fmt"
)

// Fetch error kinds.
const (
	FetchKindNetwork    = "network"
	FetchKindParse      = "parse"
	FetchKindOutOfRange = "out_of_range"
)

// FetchError is a typed failure of the rate source adapter. Any fetch
// error prevents the store call for that cycle.
type FetchError struct {
	Kind string
	Msg  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Kind, e.Msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError creates a FetchError with a formatted message.
func NewFetchError(kind, format string, a ...interface{}) *FetchError {
	return &FetchError{Kind: kind, Msg: fmt.Sprintf(format, a...)}
}

// WrapFetchError wraps an underlying error as a FetchError.
func WrapFetchError(kind, msg string, err error) *FetchError {
	return &FetchError{Kind: kind, Msg: msg, Err: err}
}

// StoreError is a typed storage-layer failure. Not retried locally;
// the caller decides whether to retry the whole cycle.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps a storage failure.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ErrUnauthorized marks a missing or invalid credential.
var ErrUnauthorized = errors.New("unauthorized")

// ErrClientNotFound marks an unknown client or a client that does not
// belong to the requesting broker.
var ErrClientNotFound = errors.New("client not found")
