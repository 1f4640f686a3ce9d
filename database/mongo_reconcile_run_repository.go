package database

import (
	"context"
	"fmt"

	"nfl-survivor-go/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReconcileRunRepository stores the audit trail of reconciliation runs
type MongoReconcileRunRepository struct {
	collection *mongo.Collection
}

// NewMongoReconcileRunRepository creates a new reconcile run repository
func NewMongoReconcileRunRepository(db *MongoDB) *MongoReconcileRunRepository {
	return &MongoReconcileRunRepository{
		collection: db.GetCollection("reconcile_runs"),
	}
}

// Save inserts the report of a finished run
func (r *MongoReconcileRunRepository) Save(ctx context.Context, report *models.ReconcileReport) error {
	ctx, cancel := boundContext(ctx, ShortTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to save reconcile run %s: %w", report.RunID, err)
	}
	return nil
}

// FindRecent returns the latest runs, newest first
func (r *MongoReconcileRunRepository) FindRecent(ctx context.Context, limit int64) ([]*models.ReconcileReport, error) {
	ctx, cancel := boundContext(ctx, MediumTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reconcile runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []*models.ReconcileReport
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode reconcile runs: %w", err)
	}
	return runs, nil
}
