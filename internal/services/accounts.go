package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unimind/wellness-api/internal/models"
	"github.com/unimind/wellness-api/internal/store"
	"github.com/unimind/wellness-api/internal/utils"
)

type accountStore interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type tokenIssuer interface {
	Generate(userID, username, role string) (string, error)
}

// RegisterRequest holds the fields accepted at registration.
type RegisterRequest struct {
	Name      string
	Email     string
	Username  string
	Password  string
	Role      string
	Specialty string
}

// AccountService registers users and exchanges credentials for tokens.
type AccountService struct {
	users  accountStore
	tokens tokenIssuer
}

func NewAccountService(users accountStore, tokens tokenIssuer) *AccountService {
	return &AccountService{users: users, tokens: tokens}
}

// Register stores a new user with a hashed password. Role defaults to student.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleStudent
	}
	if !models.ValidRole(role) {
		return models.User{}, ErrInvalidRole
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, models.User{
		Name:      req.Name,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Username:  strings.TrimSpace(req.Username),
		Password:  hashed,
		Role:      role,
		Specialty: req.Specialty,
	})
	if errors.Is(err, store.ErrDuplicateUser) {
		return models.User{}, ErrUserExists
	}
	return user, err
}

// Login checks identity (username or email) and password and returns a signed
// token with the user.
func (s *AccountService) Login(ctx context.Context, identity, password string) (string, models.User, error) {
	identity = strings.TrimSpace(identity)

	user, err := s.users.FindByUsername(ctx, identity)
	if err != nil {
		return "", models.User{}, err
	}
	if user == nil {
		if user, err = s.users.FindByEmail(ctx, strings.ToLower(identity)); err != nil {
			return "", models.User{}, err
		}
	}
	if user == nil || !utils.CheckPasswordHash(password, user.Password) {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.Hex(), user.Username, user.Role)
	if err != nil {
		return "", models.User{}, fmt.Errorf("generate token: %w", err)
	}
	return token, *user, nil
}
