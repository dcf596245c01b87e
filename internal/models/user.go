package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

// Demo student used by unauthenticated bookings. Clients send the sentinel id;
// the stored record is keyed by DemoStudentUsername.
const (
	DemoStudentSentinel = "000000000000000000000001"
	DemoStudentUsername = "student_demo"
	DemoStudentName     = "Demo Student"
	DemoStudentEmail    = "student@university.edu"
	DemoStudentPassword = "demo123"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Username  string             `bson:"username" json:"username"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role"`
	Specialty string             `bson:"specialty,omitempty" json:"specialty,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}
