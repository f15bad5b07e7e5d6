package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

// Allowed transitions:
//
//	pending   → confirmed | cancelled
//	confirmed → completed | cancelled
//
// completed and cancelled are terminal.
const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCancelled: {},
	StatusCompleted: {},
}

func (s AppointmentStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// HoldsSlot reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type BookedAppointment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	DoctorID        primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	Date            string             `bson:"date" json:"date"`
	Time            string             `bson:"time" json:"time"`
	SessionDuration int                `bson:"sessionDuration" json:"sessionDuration"`
	ConsultationFee float64            `bson:"consultationFee" json:"consultationFee"`
	HealthConcern   string             `bson:"healthConcern" json:"healthConcern"`
	Status          AppointmentStatus  `bson:"status" json:"status"`
	// Backs the partial unique index on (doctorId, date, time).
	HoldsSlot    bool       `bson:"holdsSlot" json:"-"`
	CancelledAt  *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelReason string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// StatusChange is the set of fields written by a status transition.
type StatusChange struct {
	Status       AppointmentStatus
	CancelledAt  *time.Time
	CancelReason string
	UpdatedAt    time.Time
}
