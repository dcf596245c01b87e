package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const StatusBooked = "booked"

type Appointment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	StudentID   primitive.ObjectID `bson:"studentId" json:"studentId"`
	CounselorID primitive.ObjectID `bson:"counselorId" json:"counselorId"`
	StartsAt    time.Time          `bson:"startsAt" json:"startsAt"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StudentRef is the student subset embedded in an AppointmentView.
type StudentRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// CounselorRef is the counselor subset embedded in an AppointmentView.
// Username is only filled when the caller asked for it.
type CounselorRef struct {
	ID        primitive.ObjectID `json:"_id"`
	Name      string             `json:"name"`
	Specialty string             `json:"specialty,omitempty"`
	Username  string             `json:"username,omitempty"`
}

// AppointmentView is an appointment with its user references expanded for
// display. A reference whose user no longer exists renders as null.
type AppointmentView struct {
	ID        primitive.ObjectID `json:"_id"`
	Student   *StudentRef        `json:"studentId"`
	Counselor *CounselorRef      `json:"counselorId"`
	StartsAt  time.Time          `json:"startsAt"`
	Status    string             `json:"status"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
