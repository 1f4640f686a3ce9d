package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ContextWithTimeout creates a context with timeout and cancel function
func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// Common timeout durations for database operations
const (
	// ShortTimeout for quick operations like create, update, delete single documents
	ShortTimeout = 5 * time.Second

	// MediumTimeout for queries that might return multiple documents
	MediumTimeout = 10 * time.Second

	// LongTimeout for bulk operations and migrations
	LongTimeout = 30 * time.Second
)

// WithShortTimeout creates a context with ShortTimeout (5 seconds)
func WithShortTimeout() (context.Context, context.CancelFunc) {
	return ContextWithTimeout(ShortTimeout)
}

// WithMediumTimeout creates a context with MediumTimeout (10 seconds)
func WithMediumTimeout() (context.Context, context.CancelFunc) {
	return ContextWithTimeout(MediumTimeout)
}

// boundContext derives a child of ctx capped at timeout so every store call
// carries a deadline even when the caller's context has none
func boundContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// notEliminatedFilter matches users whose eliminatedWeek is 0, null or missing
func notEliminatedFilter() bson.M {
	return bson.M{"eliminatedWeek": bson.M{"$in": bson.A{0, nil}}}
}
