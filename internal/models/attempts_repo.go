package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type AttemptsRepo interface {
	RecordAttempt(ctx context.Context, attempt *BookingAttempt) error
	CountRecentAttempts(ctx context.Context, fingerprint string, window time.Duration) (int64, error)
}

func (mr *MongodbRepo) RecordAttempt(ctx context.Context, attempt *BookingAttempt) error {
	coll := mr.mongodbClient.Database(DBName).Collection(AttemptsCollection)

	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now()
	}

	_, err := coll.InsertOne(ctx, attempt)
	if err != nil {
		return fmt.Errorf("failed to record booking attempt: %v", err)
	}

	return nil
}

func (mr *MongodbRepo) CountRecentAttempts(ctx context.Context, fingerprint string, window time.Duration) (int64, error) {
	coll := mr.mongodbClient.Database(DBName).Collection(AttemptsCollection)

	filter := bson.M{
		"fingerprint": fingerprint,
		"created_at":  bson.M{"$gte": time.Now().Add(-window)},
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count booking attempts: %v", err)
	}

	return count, nil
}
