package services

import (
	"errors"
	"strings"
)

var (
	ErrAvailabilityNotFound    = errors.New("availability not found")
	ErrNoActiveAvailability    = errors.New("doctor has no active availability")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrSlotAlreadyBooked       = errors.New("slot already booked")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrForbidden               = errors.New("forbidden: insufficient permissions")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrEmailTaken              = errors.New("an account with this email already exists")
	ErrUserNotFound            = errors.New("user not found")
)

// ValidationError lists every offending field of a rejected input.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func (e *ValidationError) add(field string) {
	e.Fields = append(e.Fields, field)
}

// orNil returns e as an error only when it carries fields.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
