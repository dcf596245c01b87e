package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetUser handles GET /users/:identifier, accepting a username or an id.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Booking.LookupUser(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		h.respondError(c, err, "Error fetching user")
		return
	}
	c.JSON(http.StatusOK, user)
}
