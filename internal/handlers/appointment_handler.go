package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/unimind/wellness-api/internal/models"
	"github.com/unimind/wellness-api/internal/services"
)

type bookAppointmentRequest struct {
	StudentID   string `json:"studentId"`
	CounselorID string `json:"counselorId"`
	StartsAt    string `json:"startsAt"`
}

// BookAppointment handles POST /appointments/book.
func (h *Handler) BookAppointment(c *gin.Context) {
	var req bookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	view, err := h.Booking.Book(c.Request.Context(), services.BookRequest{
		StudentID:   req.StudentID,
		CounselorID: req.CounselorID,
		StartsAt:    req.StartsAt,
	})
	if err != nil {
		h.respondError(c, err, "Error booking appointment")
		return
	}

	if h.Metrics != nil {
		h.Metrics.AppointmentBooked()
	}
	c.JSON(http.StatusCreated, view)
}

// GetTherapistAppointments handles GET /appointments/therapist/:therapistId,
// optionally narrowed to one day with ?date=YYYY-MM-DD.
func (h *Handler) GetTherapistAppointments(c *gin.Context) {
	views, err := h.Booking.ListForCounselor(c.Request.Context(), c.Param("therapistId"), c.Query("date"))
	if err != nil {
		h.respondError(c, err, "Error fetching appointments")
		return
	}
	c.JSON(http.StatusOK, nonNil(views))
}

// GetAllTherapistAppointments handles GET /appointments/therapist/:therapistId/all.
func (h *Handler) GetAllTherapistAppointments(c *gin.Context) {
	views, err := h.Booking.ListAllForCounselor(c.Request.Context(), c.Param("therapistId"))
	if err != nil {
		h.respondError(c, err, "Error fetching appointments")
		return
	}
	c.JSON(http.StatusOK, nonNil(views))
}

// respondError maps NotFoundError to 404 with its message and everything else
// to 500 carrying the error text.
func (h *Handler) respondError(c *gin.Context, err error, message string) {
	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		h.lookupMissed(c.FullPath())
		c.JSON(http.StatusNotFound, gin.H{"message": nf.Message})
		return
	}

	_ = c.Error(err)
	h.Logger.WithError(err).WithFields(logrus.Fields{
		"route": c.FullPath(),
	}).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message, "error": err.Error()})
}

func nonNil(views []models.AppointmentView) []models.AppointmentView {
	if views == nil {
		return make([]models.AppointmentView, 0)
	}
	return views
}
