package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName       string             `bson:"fullName" json:"fullName"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password" json:"-"`
	Role           string             `bson:"role" json:"role"` // "patient" or "doctor"
	Phone          string             `bson:"phone" json:"phone"`
	Specialization string             `bson:"specialization,omitempty" json:"specialization,omitempty"`
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

// ProfilePatch lists the profile fields a user may change on their own account.
type ProfilePatch struct {
	FullName       *string
	Phone          *string
	Specialization *string
}
