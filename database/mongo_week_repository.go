package database

import (
	"context"
	"fmt"
	"time"

	"nfl-survivor-go/logging"
	"nfl-survivor-go/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWeekRepository stores weeks in the "weeks" collection keyed by week_<n>
type MongoWeekRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
}

// NewMongoWeekRepository creates a new MongoDB week repository
func NewMongoWeekRepository(db *MongoDB) *MongoWeekRepository {
	collection := db.GetCollection("weeks")
	logger := logging.WithPrefix("mongo_week_repo")

	ctx, cancel := WithMediumTimeout()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "week", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// due-week query
			Keys: bson.D{
				{Key: "lastGameEndTime", Value: 1},
				{Key: "resultsProcessed", Value: 1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		logger.Errorf("Failed to create indexes on weeks collection: %v", err)
	}

	return &MongoWeekRepository{
		collection: collection,
		logger:     logger,
	}
}

// Upsert writes a week's schedule. Reconciliation state of an existing
// document (resultsProcessed, picksProcessed, winningTeams) is left alone.
func (r *MongoWeekRepository) Upsert(ctx context.Context, week *models.Week) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	if week.ID == "" {
		week.ID = models.WeekDocID(week.Number)
	}

	update := bson.M{
		"$set": bson.M{
			"week":               week.Number,
			"season":             week.Season,
			"games":              week.Games,
			"firstGameStartTime": week.FirstGameStartTime,
			"lastGameEndTime":    week.LastGameEndTime,
			"updatedAt":          time.Now(),
		},
		"$setOnInsert": bson.M{
			"resultsProcessed": false,
		},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": week.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert week %d: %w", week.Number, err)
	}
	return nil
}

// FindByNumber retrieves a week by its number
func (r *MongoWeekRepository) FindByNumber(ctx context.Context, number int) (*models.Week, error) {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	var week models.Week
	err := r.collection.FindOne(ctx, bson.M{"_id": models.WeekDocID(number)}).Decode(&week)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find week %d: %w", number, err)
	}
	return &week, nil
}

// FindAll retrieves every week ordered by week number
func (r *MongoWeekRepository) FindAll(ctx context.Context) ([]*models.Week, error) {
	ctx, cancel := boundContext(ctx, MediumTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}})
	return r.find(ctx, bson.M{}, opts)
}

// FindDue retrieves weeks whose last game has ended and that still need
// results or pick resolution, ordered by week number. Documents without a
// picksProcessed field only match through resultsProcessed=false.
func (r *MongoWeekRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Week, error) {
	ctx, cancel := boundContext(ctx, MediumTimeout)
	defer cancel()

	filter := bson.M{
		"lastGameEndTime": bson.M{"$lte": now},
		"$or": bson.A{
			bson.M{"resultsProcessed": false},
			bson.M{"picksProcessed": false},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "week", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *MongoWeekRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*models.Week, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find weeks: %w", err)
	}
	defer cursor.Close(ctx)

	var weeks []*models.Week
	if err := cursor.All(ctx, &weeks); err != nil {
		return nil, fmt.Errorf("failed to decode weeks: %w", err)
	}
	return weeks, nil
}

// Claim takes a processing lease on a week that still needs results or pick
// resolution and returns the week as stored after the lease was taken. It
// returns nil when another run holds an unexpired lease or has already
// finished the week.
func (r *MongoWeekRepository) Claim(ctx context.Context, number int, claimID string, now time.Time, lease time.Duration) (*models.Week, error) {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	filter := bson.M{
		"_id": models.WeekDocID(number),
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"claimedUntil": nil},
				bson.M{"claimedUntil": bson.M{"$lte": now}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"resultsProcessed": false},
				bson.M{"picksProcessed": false},
			}},
		},
	}
	update := bson.M{"$set": bson.M{
		"claimedUntil": now.Add(lease),
		"claimId":      claimID,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var week models.Week
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&week)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim week %d: %w", number, err)
	}
	return &week, nil
}

// Release drops the lease if claimID still holds it
func (r *MongoWeekRepository) Release(ctx context.Context, number int, claimID string) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	filter := bson.M{"_id": models.WeekDocID(number), "claimId": claimID}
	update := bson.M{"$unset": bson.M{"claimedUntil": "", "claimId": ""}}

	if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to release week %d: %w", number, err)
	}
	return nil
}

// MarkResults stores the winning set and flags the week's picks as
// unresolved in a single write. Only the claim holder may write.
func (r *MongoWeekRepository) MarkResults(ctx context.Context, number int, claimID string, winningTeams []string, now time.Time) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	if winningTeams == nil {
		winningTeams = []string{}
	}

	filter := bson.M{"_id": models.WeekDocID(number), "claimId": claimID}
	update := bson.M{"$set": bson.M{
		"winningTeams":     winningTeams,
		"resultsProcessed": true,
		"picksProcessed":   false,
		"updatedAt":        now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to store results for week %d: %w", number, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("week %d: %w", number, ErrClaimLost)
	}
	return nil
}

// MarkPicksProcessed records that picks and eliminations for the week are committed
func (r *MongoWeekRepository) MarkPicksProcessed(ctx context.Context, number int, claimID string, now time.Time) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	filter := bson.M{"_id": models.WeekDocID(number), "claimId": claimID}
	update := bson.M{"$set": bson.M{
		"picksProcessed": true,
		"updatedAt":      now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark picks processed for week %d: %w", number, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("week %d: %w", number, ErrClaimLost)
	}
	return nil
}

// SetLastGameEndTime overwrites the derived end time of a week
func (r *MongoWeekRepository) SetLastGameEndTime(ctx context.Context, number int, end time.Time) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"lastGameEndTime": end,
		"updatedAt":       time.Now(),
	}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": models.WeekDocID(number)}, update)
	if err != nil {
		return fmt.Errorf("failed to set lastGameEndTime for week %d: %w", number, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
