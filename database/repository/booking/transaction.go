package bookingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateIfSlotFree re-checks the slot for conflicts and inserts the booking
// in a single transaction. This closes the race between slot listing and
// booking creation: two concurrent creates for overlapping windows will have
// exactly one succeed.
func (repo *MongoBookingRepo) CreateIfSlotFree(ctx context.Context, b *models.Booking, buffer time.Duration) error {
	client := repo.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		// Inclusive overlap against holding bookings, extended by buffer.
		conflictFilter := bson.M{
			"therapist_id":    b.TherapistID,
			"status":          bson.M{"$in": models.HoldingStatuses()},
			"start_date_time": bson.M{"$lte": b.EndDateTime.Add(buffer)},
			"end_date_time":   bson.M{"$gte": b.StartDateTime.Add(-buffer)},
		}
		n, err := repo.coll.CountDocuments(sc, conflictFilter)
		if err != nil {
			return fmt.Errorf("slot conflict check failed: %w", err)
		}
		if n > 0 {
			return ErrSlotConflict
		}

		if _, err := repo.coll.InsertOne(sc, b); err != nil {
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrSlotConflict) {
			return err
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}

	return nil
}
