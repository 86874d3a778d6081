package errors

import "fmt"

// ValidationError is returned when user input breaks a business rule.
// Reason is the client-facing message and is returned verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a failure of the reservation store backing medium.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// NotificationError is a failed send on one channel. It is logged, never returned to clients.
type NotificationError struct {
	Channel string
	To      string
	Err     error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s notification to %s: %v", e.Channel, e.To, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
