package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinSessionDuration = 15
	MaxSessionDuration = 120
)

// TimeWindow is an open window on a single date, in "HH:MM" wall-clock time.
type TimeWindow struct {
	Start string `bson:"start" json:"start" binding:"required,clock"`
	End   string `bson:"end" json:"end" binding:"required,clock"`
}

type SpecificDate struct {
	Date      string       `bson:"date" json:"date" binding:"required,date"`
	TimeSlots []TimeWindow `bson:"timeSlots" json:"timeSlots" binding:"required,min=1,dive"`
}

// AvailabilityRecord holds a doctor's bookable windows. There is at most one
// record per doctor.
type AvailabilityRecord struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DoctorID        primitive.ObjectID `bson:"doctorId" json:"doctorId"`
	SessionDuration int                `bson:"sessionDuration" json:"sessionDuration"`
	ConsultationFee float64            `bson:"consultationFee" json:"consultationFee"`
	SpecificDates   []SpecificDate     `bson:"specificDates" json:"specificDates"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	LastUpdated     time.Time          `bson:"lastUpdated" json:"lastUpdated"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// DaySlots is the generated list of bookable start times for one date.
type DaySlots struct {
	Date    string   `json:"date"`
	DayName string   `json:"dayName"`
	Slots   []string `json:"slots"`
	Fee     float64  `json:"fee"`
}

// DoctorAvailability is an active record joined with its doctor.
type DoctorAvailability struct {
	AvailabilityRecord `bson:",inline"`
	Doctor             DoctorSummary `bson:"doctor" json:"doctor"`
}

type DoctorSummary struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Email          string             `bson:"email" json:"email"`
	Specialization string             `bson:"specialization" json:"specialization"`
}

// AvailabilityPatch carries a partial update. Nil fields are left untouched;
// a non-nil SpecificDates replaces the stored list wholesale.
type AvailabilityPatch struct {
	SessionDuration *int
	ConsultationFee *float64
	SpecificDates   *[]SpecificDate
	IsActive        *bool
}

func (p AvailabilityPatch) IsEmpty() bool {
	return p.SessionDuration == nil && p.ConsultationFee == nil && p.SpecificDates == nil && p.IsActive == nil
}
