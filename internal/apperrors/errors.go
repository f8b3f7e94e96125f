// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports bad or absent input to a synchronous admin operation.
type ValidationError struct {
	Op  string
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// NewValidation builds a ValidationError for op.
func NewValidation(op, format string, args ...any) error {
	return &ValidationError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ChannelDeliveryError reports a failed send on one channel for one record.
// It is logged by the dispatcher and never propagated.
type ChannelDeliveryError struct {
	Channel  string
	RecordID int64
	Err      error
}

func (e *ChannelDeliveryError) Error() string {
	return fmt.Sprintf("channel %s failed for record %d: %v", e.Channel, e.RecordID, e.Err)
}

func (e *ChannelDeliveryError) Unwrap() error { return e.Err }

// PersistenceError reports a failed tracking-record create or update.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failure: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistence wraps err as a PersistenceError for op. A nil err stays nil.
func NewPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// ScheduleNotFoundError is returned when a registration id is not active.
type ScheduleNotFoundError struct {
	ID string
}

func (e *ScheduleNotFoundError) Error() string {
	return fmt.Sprintf("schedule %q not found", e.ID)
}

// NewScheduleNotFound builds a ScheduleNotFoundError.
func NewScheduleNotFound(id string) error {
	return &ScheduleNotFoundError{ID: id}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsScheduleNotFound reports whether err wraps a ScheduleNotFoundError.
func IsScheduleNotFound(err error) bool {
	var target *ScheduleNotFoundError
	return errors.As(err, &target)
}

// IsPersistence reports whether err wraps a PersistenceError.
func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
