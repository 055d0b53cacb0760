package disputeRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapia/database"
	"therapia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// ErrNotFound is returned when no dispute matches the lookup.
var ErrNotFound = errors.New("dispute not found")

// ErrDuplicate is returned when a dispute already exists for the booking.
var ErrDuplicate = errors.New("a dispute already exists for this booking")

// MongoDisputeRepo implements DisputeRepository backed by MongoDB.
type MongoDisputeRepo struct {
	coll *mongo.Collection
}

// NewMongoDisputeRepo returns a dispute repository using the global client.
func NewMongoDisputeRepo() *MongoDisputeRepo {
	return &MongoDisputeRepo{
		coll: database.DB().Collection("session_disputes"),
	}
}

func (repo *MongoDisputeRepo) Create(ctx context.Context, d *models.SessionDispute) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

func (repo *MongoDisputeRepo) GetByID(ctx context.Context, id string) (*models.SessionDispute, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var d models.SessionDispute
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dispute %s: %w", id, err)
	}
	return &d, nil
}

func (repo *MongoDisputeRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.SessionDispute, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var d models.SessionDispute
	err := repo.coll.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dispute for booking %s: %w", bookingID, err)
	}
	return &d, nil
}

func (repo *MongoDisputeRepo) Update(ctx context.Context, d *models.SessionDispute) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := repo.coll.ReplaceOne(ctx, bson.M{"id": d.ID}, d)
	if err != nil {
		return fmt.Errorf("failed to update dispute %s: %w", d.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoDisputeRepo) List(ctx context.Context, status models.DisputeStatus, page, limit int) ([]models.SessionDispute, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := repo.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer cursor.Close(ctx)

	var disputes []models.SessionDispute
	if err := cursor.All(ctx, &disputes); err != nil {
		return nil, fmt.Errorf("failed to decode disputes: %w", err)
	}
	return disputes, nil
}
