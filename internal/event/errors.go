package event

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded      = errors.New("ticket capacity exceeds maximum attendees")
	ErrVenueCapacityExceeded = errors.New("ticket capacity exceeds venue capacity")
	ErrVenueNotApproved      = errors.New("venue is not approved")
	ErrEventNotFound         = errors.New("event not found")
	ErrNotOwner              = errors.New("event can only be modified by its organizer")
	ErrEventStarted          = errors.New("event has already started")
	ErrCapacityBelowSold     = errors.New("new capacity is below tickets already sold")
)

// ValidationError is a field-level form failure, surfaced inline to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationErr(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
