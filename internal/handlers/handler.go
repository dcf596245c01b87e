// Package handlers exposes the booking, directory and account services over
// gin.
package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/unimind/wellness-api/internal/logging"
	"github.com/unimind/wellness-api/internal/models"
	"github.com/unimind/wellness-api/internal/services"
)

type bookingService interface {
	Book(ctx context.Context, req services.BookRequest) (models.AppointmentView, error)
	ListForCounselor(ctx context.Context, counselorIdentifier, date string) ([]models.AppointmentView, error)
	ListAllForCounselor(ctx context.Context, counselorIdentifier string) ([]models.AppointmentView, error)
	LookupUser(ctx context.Context, identifier string) (models.User, error)
}

type accountService interface {
	Register(ctx context.Context, req services.RegisterRequest) (models.User, error)
	Login(ctx context.Context, identity, password string) (string, models.User, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type recorder interface {
	AppointmentBooked()
	LookupNotFound(route string)
}

// Handler holds the dependencies shared by every route.
type Handler struct {
	Booking  bookingService
	Accounts accountService
	DB       pinger
	Metrics  recorder
	Logger   *logrus.Entry
}

func NewHandler(booking bookingService, accounts accountService, db pinger, metrics recorder, logger *logrus.Entry) *Handler {
	if logger == nil {
		logger = logging.Logger()
	}
	return &Handler{
		Booking:  booking,
		Accounts: accounts,
		DB:       db,
		Metrics:  metrics,
		Logger:   logger,
	}
}

func (h *Handler) lookupMissed(route string) {
	if h.Metrics != nil {
		h.Metrics.LookupNotFound(route)
	}
}
