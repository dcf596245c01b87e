package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unimind/wellness-api/internal/services"
	"github.com/unimind/wellness-api/internal/utils"
)

type registerUserRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
}

type loginRequest struct {
	Identity string `json:"identity" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUser handles POST /auth/register.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	user, err := h.Accounts.Register(c.Request.Context(), services.RegisterRequest{
		Name:      req.Name,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Role:      req.Role,
		Specialty: req.Specialty,
	})
	switch {
	case errors.Is(err, services.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	case errors.Is(err, services.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	case err != nil:
		h.Logger.WithError(err).Error("register user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user", "error": err.Error()})
		return
	}

	h.Logger.WithField("event", "user_registered").WithField("user_id", user.ID.Hex()).Info("user registered")
	c.JSON(http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body", "error": err.Error()})
		return
	}

	token, user, err := h.Accounts.Login(c.Request.Context(), req.Identity, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	case errors.Is(err, utils.ErrNoSecret):
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "Login is not configured"})
		return
	case err != nil:
		h.Logger.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not log in", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
