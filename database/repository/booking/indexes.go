// FILE: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (repo *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Slot conflict checks and availability listing.
		{
			Keys: bson.D{
				{Key: "therapist_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "start_date_time", Value: 1},
				{Key: "end_date_time", Value: 1},
			},
			Options: options.Index().SetName("therapist_status_window_idx"),
		},
		// Deadline sweep selection.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "acceptance_deadline", Value: 1}},
			Options: options.Index().SetName("status_deadline_idx"),
		},
		// Escrow sweep selection.
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "escrow_released_at", Value: 1}, {Key: "end_date_time", Value: 1}},
			Options: options.Index().SetName("status_escrow_end_idx"),
		},
		// Webhook lookup.
		{
			Keys:    bson.D{{Key: "payment_intent_id", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("payment_intent_idx"),
		},
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}, {Key: "start_date_time", Value: -1}},
			Options: options.Index().SetName("patient_start_idx"),
		},
	}

	_, err := repo.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
