package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unimind/wellness-api/internal/models"
)

type appointmentCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type userBatchFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// TimeRange is an inclusive [From, To] interval on appointment start times.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// PopulateOptions selects which related fields Populate expands.
type PopulateOptions struct {
	CounselorUsername bool
}

// AppointmentRepository persists and queries appointments.
type AppointmentRepository struct {
	collection appointmentCollection
	users      userBatchFinder
}

// NewAppointmentRepository constructs an AppointmentRepository. users is used
// to expand student and counselor references.
func NewAppointmentRepository(collection appointmentCollection, users userBatchFinder) *AppointmentRepository {
	return &AppointmentRepository{collection: collection, users: users}
}

// Create inserts a single appointment document. Status defaults to booked.
func (r *AppointmentRepository) Create(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	if r == nil || r.collection == nil {
		return models.Appointment{}, errors.New("appointment repository is not initialized")
	}
	if appt.StudentID.IsZero() || appt.CounselorID.IsZero() {
		return models.Appointment{}, errors.New("student and counselor are required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if appt.ID.IsZero() {
		appt.ID = primitive.NewObjectID()
	}
	if appt.Status == "" {
		appt.Status = models.StatusBooked
	}
	appt.StartsAt = appt.StartsAt.Truncate(time.Millisecond)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, appt); err != nil {
		return models.Appointment{}, fmt.Errorf("insert appointment: %w", err)
	}
	return appt, nil
}

// FindByCounselor returns the counselor's appointments ordered by start time.
// When window is non-nil only appointments starting inside it are returned.
func (r *AppointmentRepository) FindByCounselor(ctx context.Context, counselorID primitive.ObjectID, window *TimeRange) ([]models.Appointment, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("appointment repository is not initialized")
	}

	filter := bson.M{"counselorId": counselorID}
	if window != nil {
		filter["startsAt"] = bson.M{"$gte": window.From, "$lte": window.To}
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "startsAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := make([]models.Appointment, 0)
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("decode appointments: %w", err)
	}
	return appointments, nil
}

// Populate expands the student and counselor references of appts with a
// single user query.
func (r *AppointmentRepository) Populate(ctx context.Context, appts []models.Appointment, opts PopulateOptions) ([]models.AppointmentView, error) {
	if r == nil || r.users == nil {
		return nil, errors.New("appointment repository is not initialized")
	}

	views := make([]models.AppointmentView, 0, len(appts))
	if len(appts) == 0 {
		return views, nil
	}

	seen := make(map[primitive.ObjectID]struct{}, len(appts)*2)
	ids := make([]primitive.ObjectID, 0, len(appts)*2)
	for _, a := range appts {
		for _, id := range []primitive.ObjectID{a.StudentID, a.CounselorID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	users, err := r.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("populate appointments: %w", err)
	}

	for _, a := range appts {
		view := models.AppointmentView{
			ID:        a.ID,
			StartsAt:  a.StartsAt,
			Status:    a.Status,
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		}
		if s, ok := users[a.StudentID]; ok {
			view.Student = &models.StudentRef{ID: s.ID, Name: s.Name, Email: s.Email}
		}
		if c, ok := users[a.CounselorID]; ok {
			view.Counselor = &models.CounselorRef{ID: c.ID, Name: c.Name, Specialty: c.Specialty}
			if opts.CounselorUsername {
				view.Counselor.Username = c.Username
			}
		}
		views = append(views, view)
	}
	return views, nil
}
