// Package services orchestrates user resolution and appointment persistence
// for the HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unimind/wellness-api/internal/directory"
	"github.com/unimind/wellness-api/internal/logging"
	"github.com/unimind/wellness-api/internal/models"
	"github.com/unimind/wellness-api/internal/store"
)

type userResolver interface {
	Resolve(ctx context.Context, identifier string) (models.User, error)
}

type demoProvisioner interface {
	EnsureDemoStudent(ctx context.Context) (models.User, error)
}

type appointmentStore interface {
	Create(ctx context.Context, appt models.Appointment) (models.Appointment, error)
	FindByCounselor(ctx context.Context, counselorID primitive.ObjectID, window *store.TimeRange) ([]models.Appointment, error)
	Populate(ctx context.Context, appts []models.Appointment, opts store.PopulateOptions) ([]models.AppointmentView, error)
}

// BookRequest carries the client-supplied booking fields verbatim.
type BookRequest struct {
	StudentID   string
	CounselorID string
	StartsAt    string
}

// BookingService books and lists counseling appointments.
type BookingService struct {
	resolver     userResolver
	provisioner  demoProvisioner
	appointments appointmentStore
	location     *time.Location
	logger       *logrus.Entry
}

// NewBookingService wires a BookingService. loc is the zone calendar-day
// filters are evaluated in.
func NewBookingService(resolver userResolver, provisioner demoProvisioner, appointments appointmentStore, loc *time.Location, logger *logrus.Entry) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Logger()
	}
	return &BookingService{
		resolver:     resolver,
		provisioner:  provisioner,
		appointments: appointments,
		location:     loc,
		logger:       logger,
	}
}

// Book resolves both participants and stores a new appointment. There is no
// overlap check: concurrent bookings of the same slot all succeed.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (models.AppointmentView, error) {
	student, err := s.resolveStudent(ctx, req.StudentID)
	if err != nil {
		return models.AppointmentView{}, err
	}

	counselor, err := s.resolve(ctx, req.CounselorID, "Counselor not found")
	if err != nil {
		return models.AppointmentView{}, err
	}

	startsAt, err := ParseTimestamp(req.StartsAt, s.location)
	if err != nil {
		return models.AppointmentView{}, fmt.Errorf("appointment validation failed: startsAt: %w", err)
	}

	appt, err := s.appointments.Create(ctx, models.Appointment{
		StudentID:   student.ID,
		CounselorID: counselor.ID,
		StartsAt:    startsAt,
	})
	if err != nil {
		return models.AppointmentView{}, err
	}

	s.logger.WithFields(logging.Fields{
		"event":          "appointment_booked",
		"appointment_id": appt.ID.Hex(),
		"student_id":     student.ID.Hex(),
		"counselor_id":   counselor.ID.Hex(),
		"starts_at":      appt.StartsAt,
	}).Info("appointment booked")

	views, err := s.appointments.Populate(ctx, []models.Appointment{appt}, store.PopulateOptions{CounselorUsername: true})
	if err != nil {
		return models.AppointmentView{}, err
	}
	return views[0], nil
}

// ListForCounselor returns the counselor's appointments in start order. A
// non-empty date (YYYY-MM-DD) restricts results to that calendar day.
func (s *BookingService) ListForCounselor(ctx context.Context, counselorIdentifier, date string) ([]models.AppointmentView, error) {
	counselor, err := s.resolve(ctx, counselorIdentifier, "Therapist not found")
	if err != nil {
		return nil, err
	}

	var window *store.TimeRange
	if date != "" {
		w, err := DayWindow(date, s.location)
		if err != nil {
			return nil, err
		}
		window = &w
	}

	appts, err := s.appointments.FindByCounselor(ctx, counselor.ID, window)
	if err != nil {
		return nil, err
	}
	return s.appointments.Populate(ctx, appts, store.PopulateOptions{CounselorUsername: true})
}

// ListAllForCounselor returns every appointment of the counselor without the
// counselor username expansion.
func (s *BookingService) ListAllForCounselor(ctx context.Context, counselorIdentifier string) ([]models.AppointmentView, error) {
	counselor, err := s.resolve(ctx, counselorIdentifier, "Therapist not found")
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.FindByCounselor(ctx, counselor.ID, nil)
	if err != nil {
		return nil, err
	}
	return s.appointments.Populate(ctx, appts, store.PopulateOptions{})
}

// LookupUser resolves identifier to a user.
func (s *BookingService) LookupUser(ctx context.Context, identifier string) (models.User, error) {
	return s.resolve(ctx, identifier, "User not found")
}

func (s *BookingService) resolveStudent(ctx context.Context, identifier string) (models.User, error) {
	if identifier != models.DemoStudentSentinel {
		return s.resolve(ctx, identifier, "Student not found")
	}

	student, err := s.resolver.Resolve(ctx, models.DemoStudentUsername)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, directory.ErrNotFound) {
		return models.User{}, err
	}
	return s.provisioner.EnsureDemoStudent(ctx)
}

func (s *BookingService) resolve(ctx context.Context, identifier, notFound string) (models.User, error) {
	user, err := s.resolver.Resolve(ctx, identifier)
	if errors.Is(err, directory.ErrNotFound) {
		return models.User{}, &NotFoundError{Message: notFound}
	}
	return user, err
}
