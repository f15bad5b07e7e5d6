package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	CollectionUsers        = "users"
	CollectionAvailability = "appointment_availability"
	CollectionAppointments = "booked_appointments"
)

// ErrDuplicateKey is returned when a write violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}
