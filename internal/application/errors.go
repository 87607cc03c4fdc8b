package application

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when a room slot is already booked.
	ErrConflict = errors.New("application: slot already booked")
	// ErrPermissionDenied is returned when the acting user may not perform an operation.
	ErrPermissionDenied = errors.New("application: permission denied")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrEmptyLedger is returned when undoing on a ledger with no entries.
	ErrEmptyLedger = errors.New("application: ledger is empty")
	// ErrInvalidState is returned when the notified flag does not allow the requested change.
	ErrInvalidState = errors.New("application: invalid notification state")
	// ErrStorageUnavailable is returned when the store fails for reasons the caller may retry.
	ErrStorageUnavailable = errors.New("application: storage unavailable")
)

// ConflictError describes the booking that already occupies a slot.
type ConflictError struct {
	RoomID string
	Date   string
	Slot   string
	Holder string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	if c.Holder == "" {
		return fmt.Sprintf("slot %s on %s in room %s is already booked", c.Slot, c.Date, c.RoomID)
	}
	return fmt.Sprintf("slot %s on %s in room %s is already booked by %s", c.Slot, c.Date, c.RoomID, c.Holder)
}

// Is lets errors.Is match ErrConflict.
func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
