package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserRepository stores users in the "users" collection keyed by uid
type MongoUserRepository struct {
	db         *MongoDB
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoUserRepository creates a new MongoDB user repository
func NewMongoUserRepository(db *MongoDB) *MongoUserRepository {
	repo := &MongoUserRepository{
		db:         db,
		collection: db.GetCollection("users"),
		logger:     logging.WithPrefix("mongo_user_repo"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		repo.logger.Warnf("Could not create user indexes: %v", err)
	}
	return repo
}

// EnsureIndexes creates necessary indexes for the users collection
func (r *MongoUserRepository) EnsureIndexes() error {
	ctx, cancel := WithMediumTimeout()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "eliminatedWeek", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Create inserts a new user. Emails are stored lowercased.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	now := time.Now()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}
	return nil
}

// FindByID retrieves a user by uid
func (r *MongoUserRepository) FindByID(ctx context.Context, uid string) (*models.User, error) {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	var user models.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by email (case-insensitive)
func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	var user models.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// FindAll retrieves every user ordered by display name
func (r *MongoUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	return r.findUsers(ctx, bson.M{})
}

// FindActive retrieves users that have not been eliminated
func (r *MongoUserRepository) FindActive(ctx context.Context) ([]*models.User, error) {
	return r.findUsers(ctx, notEliminatedFilter())
}

func (r *MongoUserRepository) findUsers(ctx context.Context, filter bson.M) ([]*models.User, error) {
	ctx, cancel := boundContext(ctx, MediumTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "displayName", Value: 1}, {Key: "email", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

// EliminateUsers sets eliminatedWeek on every listed user as one batch.
// A user already eliminated keeps the earlier week. Returns how many
// users were newly eliminated.
func (r *MongoUserRepository) EliminateUsers(ctx context.Context, uids []string, week int, now time.Time) (int64, error) {
	if len(uids) == 0 {
		return 0, nil
	}

	ctx, cancel := boundContext(ctx, LongTimeout)
	defer cancel()

	operations := make([]mongo.WriteModel, 0, len(uids))
	for _, uid := range uids {
		filter := notEliminatedFilter()
		filter["_id"] = uid
		operations = append(operations, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$set": bson.M{
				"eliminatedWeek": week,
				"updatedAt":      now,
			}}))
	}

	var modified int64
	err := r.db.RunAtomic(ctx, func(ctx context.Context) error {
		result, err := r.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(true))
		if err != nil {
			return err
		}
		modified = result.ModifiedCount
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to eliminate users for week %d: %w", week, err)
	}

	r.logger.Infof("Week %d: eliminated %d of %d users", week, modified, len(uids))
	return modified, nil
}

// MigrateEliminatedWeek sets eliminatedWeek=0 on users where the field is
// missing or null
func (r *MongoUserRepository) MigrateEliminatedWeek(ctx context.Context) (int64, error) {
	ctx, cancel := boundContext(ctx, LongTimeout)
	defer cancel()

	filter := bson.M{"eliminatedWeek": nil}
	update := bson.M{"$set": bson.M{"eliminatedWeek": 0, "updatedAt": time.Now()}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to migrate users: %w", err)
	}
	return result.ModifiedCount, nil
}
