// FILE: database/repository/availability/indexes.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the availability collections.
// Rule non-overlap per therapist/day is application-enforced; the index here
// only serves the lookup pattern.
func (repo *MongoAvailabilityRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ruleModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "therapist_id", Value: 1}, {Key: "day_of_week", Value: 1}, {Key: "active", Value: 1}},
			Options: options.Index().SetName("therapist_day_active_idx"),
		},
	}
	if _, err := repo.rulesColl.Indexes().CreateMany(ctx, ruleModels); err != nil {
		return fmt.Errorf("failed to create availability rule indexes: %w", err)
	}

	exceptionModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "therapist_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("therapist_date_idx"),
		},
	}
	if _, err := repo.exceptionsColl.Indexes().CreateMany(ctx, exceptionModels); err != nil {
		return fmt.Errorf("failed to create availability exception indexes: %w", err)
	}
	return nil
}
