package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteOptions carries the middleware and endpoints that depend on runtime
// configuration. Nil entries are skipped.
type RouteOptions struct {
	// Auth guards booking and listing when set.
	Auth gin.HandlerFunc
	// RateLimit guards booking, login and registration when set.
	RateLimit gin.HandlerFunc
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// RegisterRoutes mounts every endpoint on r.
func (h *Handler) RegisterRoutes(r gin.IRouter, opts RouteOptions) {
	r.GET("/healthz", h.Health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	limited := chain(opts.RateLimit)
	guarded := chain(opts.Auth)

	authRoutes := r.Group("/auth", limited...)
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
	}

	appointmentRoutes := r.Group("/appointments", guarded...)
	{
		appointmentRoutes.POST("/book", append(chain(opts.RateLimit), h.BookAppointment)...)
		appointmentRoutes.GET("/therapist/:therapistId", h.GetTherapistAppointments)
		appointmentRoutes.GET("/therapist/:therapistId/all", h.GetAllTherapistAppointments)
	}

	r.GET("/users/:identifier", h.GetUser)
}

func chain(mw ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
