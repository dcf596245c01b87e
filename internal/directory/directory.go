// Package directory resolves human-supplied user identifiers and provisions
// the demo accounts used by unauthenticated clients.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/unimind/wellness-api/internal/models"
)

// ErrNotFound is returned when an identifier matches no user.
var ErrNotFound = errors.New("user not found")

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Resolver turns a username or hex object id into a stored user.
type Resolver struct {
	users userFinder
}

// NewResolver constructs a Resolver backed by users.
func NewResolver(users userFinder) *Resolver {
	return &Resolver{users: users}
}

// Resolve looks identifier up as a username first and, when that misses and
// identifier is a valid object id, by id. It never creates records.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (models.User, error) {
	if r == nil || r.users == nil {
		return models.User{}, errors.New("resolver is not initialized")
	}
	if strings.TrimSpace(identifier) == "" {
		return models.User{}, ErrNotFound
	}

	user, err := r.users.FindByUsername(ctx, identifier)
	if err != nil {
		return models.User{}, fmt.Errorf("resolve %q: %w", identifier, err)
	}
	if user != nil {
		return *user, nil
	}

	id, err := primitive.ObjectIDFromHex(identifier)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	user, err = r.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, fmt.Errorf("resolve %q: %w", identifier, err)
	}
	if user == nil {
		return models.User{}, ErrNotFound
	}
	return *user, nil
}
