package domain

import (
	"errors"
	"fmt"
)

// StoreErrorKind classifies store failures for the producer's recovery policy.
type StoreErrorKind int

const (
	// StoreTransient failures are retried after a cooldown.
	StoreTransient StoreErrorKind = iota
	// StoreFatal failures (bad credentials, missing schema) stop the producer.
	StoreFatal
)

func (k StoreErrorKind) String() string {
	if k == StoreFatal {
		return "fatal"
	}
	return "transient"
}

// StoreError is returned by the store gateway.
type StoreError struct {
	Op   string
	Kind StoreErrorKind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as a retryable store failure.
func NewTransientError(op string, err error) error {
	return &StoreError{Op: op, Kind: StoreTransient, Err: err}
}

// NewFatalError wraps err as an unrecoverable store failure.
func NewFatalError(op string, err error) error {
	return &StoreError{Op: op, Kind: StoreFatal, Err: err}
}

// IsFatal reports whether err carries a fatal StoreError.
// Anything unclassified is treated as transient.
func IsFatal(err error) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Kind == StoreFatal
	}
	return false
}
