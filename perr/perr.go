// Package perr provides the error sentinels and typed error values used
// across the engine: malformed input queries, posting-store I/O failures,
// and spill-buffer corruption.
package perr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases.
var (
	// ErrMalformedQuery indicates a query violates an index-time invariant
	// (no clauses at all, an empty clause, or a clause count exceeding
	// MaxClauses).
	ErrMalformedQuery = errors.New("malformed query")

	// ErrBufferCorruption indicates the triple spill buffer's recorded
	// byte count disagrees with the size of its backing file.
	ErrBufferCorruption = errors.New("buffer corruption")

	// ErrStoreIO indicates an underlying store operation failed.
	ErrStoreIO = errors.New("store I/O error")

	// ErrReservedPrefix indicates a caller tried to use a term that
	// collides with the store's internal metadata keyspace.
	ErrReservedPrefix = errors.New("term uses reserved key prefix")
)

// MalformedQueryError carries the offending query id and a reason.
type MalformedQueryError struct {
	QID    int32
	Reason string
	Err    error
}

func (e *MalformedQueryError) Error() string {
	if e.QID != 0 {
		return fmt.Sprintf("malformed query %d: %s", e.QID, e.Reason)
	}
	return fmt.Sprintf("malformed query: %s", e.Reason)
}

func (e *MalformedQueryError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedQuery
}

// NewMalformedQuery builds a MalformedQueryError.
func NewMalformedQuery(qid int32, reason string) *MalformedQueryError {
	return &MalformedQueryError{QID: qid, Reason: reason}
}

// BufferCorruptionError reports the expected vs. observed byte counts of
// a finalized spill buffer.
type BufferCorruptionError struct {
	Expected int64
	Observed int64
}

func (e *BufferCorruptionError) Error() string {
	return fmt.Sprintf("buffer corruption: wrote %d bytes, file holds %d", e.Expected, e.Observed)
}

func (e *BufferCorruptionError) Unwrap() error {
	return ErrBufferCorruption
}

// StoreError represents a failed store operation with context.
type StoreError struct {
	Op  string // operation being performed (e.g., "read", "write", "open")
	Key string // key or path involved, if any
	Err error  // underlying error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %q: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrStoreIO
}

// NewStoreError builds a StoreError.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
