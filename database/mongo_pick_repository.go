package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"
)

// MongoPickRepository stores picks in the "picks" collection keyed by <uid>_week<n>
type MongoPickRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoPickRepository creates a new MongoDB pick repository
func NewMongoPickRepository(db *MongoDB) *MongoPickRepository {
	collection := db.GetCollection("picks")
	logger := logging.WithPrefix("mongo_pick_repo")

	// Create indexes for efficient querying
	ctx, cancel := WithMediumTimeout()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "week", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "week", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Warnf("Could not create pick indexes: %v", err)
	}

	return &MongoPickRepository{
		collection: collection,
		logger:     logger,
	}
}

// Upsert writes the user's pick for a week, resetting its status to pending.
// createdAt is only set when the document is first inserted.
func (r *MongoPickRepository) Upsert(ctx context.Context, pick *models.Pick) (*models.Pick, error) {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	if pick.ID == "" {
		pick.ID = models.PickDocID(pick.UserID, pick.Week)
	}

	update := bson.M{
		"$set": bson.M{
			"userId":    pick.UserID,
			"week":      pick.Week,
			"pick":      pick.Team,
			"status":    models.PickStatusPending,
			"updatedAt": pick.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"createdAt": pick.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.Pick
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": pick.ID}, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pick %s: %w", pick.ID, err)
	}
	return &stored, nil
}

// FindByUserAndWeek retrieves one user's pick for a week
func (r *MongoPickRepository) FindByUserAndWeek(ctx context.Context, userID string, week int) (*models.Pick, error) {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	var pick models.Pick
	err := r.collection.FindOne(ctx, bson.M{"_id": models.PickDocID(userID, week)}).Decode(&pick)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find pick by user and week: %w", err)
	}
	return &pick, nil
}

// FindByWeek retrieves all picks for a week
func (r *MongoPickRepository) FindByWeek(ctx context.Context, week int) ([]*models.Pick, error) {
	ctx, cancel := boundContext(ctx, MediumTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	picks, err := r.find(ctx, bson.M{"week": week}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find picks by week: %w", err)
	}
	return picks, nil
}

// FindByUser retrieves all of a user's picks ordered by week
func (r *MongoPickRepository) FindByUser(ctx context.Context, userID string) ([]*models.Pick, error) {
	ctx, cancel := boundContext(ctx, MediumTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}})
	picks, err := r.find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find picks by user: %w", err)
	}
	return picks, nil
}

func (r *MongoPickRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*models.Pick, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var picks []*models.Pick
	for cursor.Next(ctx) {
		var pick models.Pick
		if err := cursor.Decode(&pick); err != nil {
			return nil, fmt.Errorf("failed to decode pick: %w", err)
		}
		picks = append(picks, &pick)
	}
	return picks, cursor.Err()
}

// SetStatuses writes the resolved status of many picks in one ordered bulk write
func (r *MongoPickRepository) SetStatuses(ctx context.Context, statuses map[string]models.PickStatus, now time.Time) error {
	if len(statuses) == 0 {
		return nil
	}

	ctx, cancel := boundContext(ctx, LongTimeout)
	defer cancel()

	ids := make([]string, 0, len(statuses))
	for id := range statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	operations := make([]mongo.WriteModel, 0, len(ids))
	for _, id := range ids {
		operations = append(operations, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": id}).
			SetUpdate(bson.M{"$set": bson.M{
				"status":    statuses[id],
				"updatedAt": now,
			}}))
	}

	result, err := r.collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("bulk pick status update failed: %w", err)
	}

	r.logger.Debugf("Pick status bulk write: %d matched, %d modified", result.MatchedCount, result.ModifiedCount)
	return nil
}
