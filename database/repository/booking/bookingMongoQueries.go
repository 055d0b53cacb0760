package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"therapia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *MongoBookingRepo) List(ctx context.Context, f ListFilter) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}
	if f.TherapistID != "" {
		filter["therapist_id"] = f.TherapistID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		window := bson.M{}
		if !f.From.IsZero() {
			window["$gte"] = f.From
		}
		if !f.To.IsZero() {
			window["$lt"] = f.To
		}
		filter["start_date_time"] = window
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date_time", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) ListHolding(ctx context.Context, therapistID string, from, to time.Time) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"therapist_id":    therapistID,
		"status":          bson.M{"$in": models.HoldingStatuses()},
		"start_date_time": bson.M{"$lte": to},
		"end_date_time":   bson.M{"$gte": from},
	}

	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list holding bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode holding bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) FindExpiredPendingAcceptance(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"status":              models.StatusPendingAcceptance,
		"acceptance_deadline": bson.M{"$lt": now},
	}
	opts := options.Find().SetSort(bson.D{{Key: "acceptance_deadline", Value: 1}}).SetLimit(limit)

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired pending bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode expired pending bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoBookingRepo) FindEscrowDue(ctx context.Context, cutoff time.Time, limit int64) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"status":             models.StatusCompleted,
		"escrow_released_at": nil,
		"end_date_time":      bson.M{"$lt": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "end_date_time", Value: 1}}).SetLimit(limit)

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find escrow-due bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode escrow-due bookings: %w", err)
	}
	return bookings, nil
}

// MarkEscrowReleased stamps the release time only when escrow_released_at is
// still null, so a concurrent sweep run can never release the same booking
// twice.
func (repo *MongoBookingRepo) MarkEscrowReleased(ctx context.Context, bookingID string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"id":                 bookingID,
		"status":             models.StatusCompleted,
		"escrow_released_at": nil,
	}
	update := bson.M{"$set": bson.M{
		"escrow_released_at": at,
		"updated_at":         at,
	}}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark escrow released for %s: %w", bookingID, err)
	}
	return res.ModifiedCount == 1, nil
}
