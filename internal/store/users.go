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

// ErrDuplicateUser is returned when a username or email is already taken.
var ErrDuplicateUser = errors.New("user already exists")

type userCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// UserRepository persists and retrieves users.
type UserRepository struct {
	collection userCollection
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(collection userCollection) *UserRepository {
	return &UserRepository{collection: collection}
}

// FindByUsername returns the user with the exact username, or nil when none exists.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// FindByEmail returns the user with the exact email, or nil when none exists.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID returns the user with the given id, or nil when none exists.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByIDs loads the display fields of every listed user in one query.
// Ids without a matching user are absent from the result.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("user repository is not initialized")
	}

	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	projection := bson.M{"name": 1, "email": 1, "username": 1, "specialty": 1, "role": 1}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// Create inserts a new user, assigning an id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	if r == nil || r.collection == nil {
		return models.User{}, errors.New("user repository is not initialized")
	}
	if user.Username == "" {
		return models.User{}, errors.New("username is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// UpsertByUsername inserts user when no record with its username exists and
// leaves an existing record untouched. It reports whether a record was created.
func (r *UserRepository) UpsertByUsername(ctx context.Context, user models.User) (models.User, bool, error) {
	if r == nil || r.collection == nil {
		return models.User{}, false, errors.New("user repository is not initialized")
	}
	if user.Username == "" {
		return models.User{}, false, errors.New("username is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	onInsert := bson.M{
		"name":      user.Name,
		"email":     user.Email,
		"password":  user.Password,
		"role":      user.Role,
		"createdAt": now,
		"updatedAt": now,
	}
	if user.Specialty != "" {
		onInsert["specialty"] = user.Specialty
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"username": user.Username},
		bson.M{"$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	// a concurrent upsert may win the insert; the record exists either way
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return models.User{}, false, fmt.Errorf("upsert user %s: %w", user.Username, err)
	}

	stored, err := r.FindByUsername(ctx, user.Username)
	if err != nil {
		return models.User{}, false, err
	}
	if stored == nil {
		return models.User{}, false, fmt.Errorf("upsert user %s: %w", user.Username, ErrDuplicateUser)
	}

	created := result != nil && result.UpsertedCount > 0
	return *stored, created, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	if r == nil || r.collection == nil {
		return nil, errors.New("user repository is not initialized")
	}

	result := r.collection.FindOne(ctx, filter)
	if result == nil {
		return nil, errors.New("find user returned no result")
	}

	var user models.User
	if err := result.Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
