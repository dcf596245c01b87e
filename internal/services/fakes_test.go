package services

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unimind/wellness-api/internal/models"
	"github.com/unimind/wellness-api/internal/store"
)

type memoryUsers struct {
	mu    sync.Mutex
	users []models.User
	err   error
}

func (m *memoryUsers) add(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users = append(m.users, u)
	return u
}

func (m *memoryUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == username })
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Email == email })
}

func (m *memoryUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memoryUsers) Create(ctx context.Context, user models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return models.User{}, store.ErrDuplicateUser
		}
	}
	user.ID = primitive.NewObjectID()
	m.users = append(m.users, user)
	return user, nil
}

func (m *memoryUsers) UpsertByUsername(ctx context.Context, user models.User) (models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return u, false, nil
		}
	}
	user.ID = primitive.NewObjectID()
	m.users = append(m.users, user)
	return user, true, nil
}

func (m *memoryUsers) countUsername(username string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.users {
		if u.Username == username {
			n++
		}
	}
	return n
}

type memoryAppointments struct {
	mu        sync.Mutex
	appts     []models.Appointment
	users     *memoryUsers
	createErr error
	lastRange *store.TimeRange
}

func (m *memoryAppointments) Create(ctx context.Context, appt models.Appointment) (models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return models.Appointment{}, m.createErr
	}
	appt.ID = primitive.NewObjectID()
	appt.Status = models.StatusBooked
	m.appts = append(m.appts, appt)
	return appt, nil
}

func (m *memoryAppointments) FindByCounselor(ctx context.Context, counselorID primitive.ObjectID, window *store.TimeRange) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRange = window
	out := make([]models.Appointment, 0)
	for _, a := range m.appts {
		if a.CounselorID != counselorID {
			continue
		}
		if window != nil && (a.StartsAt.Before(window.From) || a.StartsAt.After(window.To)) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *memoryAppointments) Populate(ctx context.Context, appts []models.Appointment, opts store.PopulateOptions) ([]models.AppointmentView, error) {
	views := make([]models.AppointmentView, 0, len(appts))
	for _, a := range appts {
		v := models.AppointmentView{ID: a.ID, StartsAt: a.StartsAt, Status: a.Status}
		if s, _ := m.users.FindByID(ctx, a.StudentID); s != nil {
			v.Student = &models.StudentRef{ID: s.ID, Name: s.Name, Email: s.Email}
		}
		if c, _ := m.users.FindByID(ctx, a.CounselorID); c != nil {
			v.Counselor = &models.CounselorRef{ID: c.ID, Name: c.Name, Specialty: c.Specialty}
			if opts.CounselorUsername {
				v.Counselor.Username = c.Username
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func (m *memoryAppointments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}
