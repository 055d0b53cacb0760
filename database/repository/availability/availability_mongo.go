package availabilityRepo

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

// ErrNotFound is returned when no rule or exception matches the lookup.
var ErrNotFound = errors.New("availability record not found")

// MongoAvailabilityRepo implements AvailabilityRepository backed by MongoDB.
type MongoAvailabilityRepo struct {
	rulesColl      *mongo.Collection
	exceptionsColl *mongo.Collection
}

// NewMongoAvailabilityRepo returns an availability repository using the
// global client.
func NewMongoAvailabilityRepo() *MongoAvailabilityRepo {
	return &MongoAvailabilityRepo{
		rulesColl:      database.DB().Collection("therapist_availability"),
		exceptionsColl: database.DB().Collection("availability_exceptions"),
	}
}

func (repo *MongoAvailabilityRepo) GetActiveRules(ctx context.Context, therapistID string, dayOfWeek int) ([]models.TherapistAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"therapist_id": therapistID,
		"day_of_week":  dayOfWeek,
		"active":       true,
	}
	cursor, err := repo.rulesColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []models.TherapistAvailability
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode availability rules: %w", err)
	}
	return rules, nil
}

func (repo *MongoAvailabilityRepo) ListRules(ctx context.Context, therapistID string) ([]models.TherapistAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := repo.rulesColl.Find(ctx, bson.M{"therapist_id": therapistID},
		options.Find().SetSort(bson.D{{Key: "day_of_week", Value: 1}, {Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list availability rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []models.TherapistAvailability
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode availability rules: %w", err)
	}
	return rules, nil
}

func (repo *MongoAvailabilityRepo) CreateRule(ctx context.Context, rule *models.TherapistAvailability) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := repo.rulesColl.InsertOne(ctx, rule); err != nil {
		return fmt.Errorf("failed to create availability rule: %w", err)
	}
	return nil
}

func (repo *MongoAvailabilityRepo) DeactivateRule(ctx context.Context, therapistID, ruleID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := repo.rulesColl.UpdateOne(ctx,
		bson.M{"id": ruleID, "therapist_id": therapistID},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to deactivate availability rule: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoAvailabilityRepo) GetExceptions(ctx context.Context, therapistID, date string) ([]models.AvailabilityException, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := repo.exceptionsColl.Find(ctx, bson.M{"therapist_id": therapistID, "date": date})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var exceptions []models.AvailabilityException
	if err := cursor.All(ctx, &exceptions); err != nil {
		return nil, fmt.Errorf("failed to decode availability exceptions: %w", err)
	}
	return exceptions, nil
}

func (repo *MongoAvailabilityRepo) ListExceptions(ctx context.Context, therapistID, fromDate, toDate string) ([]models.AvailabilityException, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"therapist_id": therapistID}
	if fromDate != "" || toDate != "" {
		window := bson.M{}
		if fromDate != "" {
			window["$gte"] = fromDate
		}
		if toDate != "" {
			window["$lte"] = toDate
		}
		filter["date"] = window
	}

	cursor, err := repo.exceptionsColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list availability exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var exceptions []models.AvailabilityException
	if err := cursor.All(ctx, &exceptions); err != nil {
		return nil, fmt.Errorf("failed to decode availability exceptions: %w", err)
	}
	return exceptions, nil
}

func (repo *MongoAvailabilityRepo) AddException(ctx context.Context, ex *models.AvailabilityException) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := repo.exceptionsColl.InsertOne(ctx, ex); err != nil {
		return fmt.Errorf("failed to add availability exception: %w", err)
	}
	return nil
}

func (repo *MongoAvailabilityRepo) RemoveException(ctx context.Context, therapistID, exceptionID string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := repo.exceptionsColl.DeleteOne(ctx, bson.M{"id": exceptionID, "therapist_id": therapistID})
	if err != nil {
		return fmt.Errorf("failed to remove availability exception: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
