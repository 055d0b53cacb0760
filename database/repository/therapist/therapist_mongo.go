package therapistRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"therapia/database"
	"therapia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const opTimeout = 5 * time.Second

// ErrNotFound is returned when no therapist or organization matches the lookup.
var ErrNotFound = errors.New("therapist not found")

// MongoTherapistRepo implements TherapistRepository backed by MongoDB.
type MongoTherapistRepo struct {
	therapistsColl    *mongo.Collection
	organizationsColl *mongo.Collection
}

// NewMongoTherapistRepo returns a therapist repository using the global client.
func NewMongoTherapistRepo() *MongoTherapistRepo {
	return &MongoTherapistRepo{
		therapistsColl:    database.DB().Collection("therapist_profiles"),
		organizationsColl: database.DB().Collection("organizations"),
	}
}

func (repo *MongoTherapistRepo) GetByID(ctx context.Context, id string) (*models.TherapistProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var t models.TherapistProfile
	err := repo.therapistsColl.FindOne(ctx, bson.M{"id": id}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch therapist %s: %w", id, err)
	}
	return &t, nil
}

func (repo *MongoTherapistRepo) GetByUserID(ctx context.Context, userID string) (*models.TherapistProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var t models.TherapistProfile
	err := repo.therapistsColl.FindOne(ctx, bson.M{"user_id": userID, "active": true}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch therapist for user %s: %w", userID, err)
	}
	return &t, nil
}

func (repo *MongoTherapistRepo) GetByPayoutAccount(ctx context.Context, accountID string) (*models.TherapistProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var t models.TherapistProfile
	err := repo.therapistsColl.FindOne(ctx, bson.M{"payout_account_id": accountID}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch therapist for payout account %s: %w", accountID, err)
	}
	return &t, nil
}

func (repo *MongoTherapistRepo) Update(ctx context.Context, t *models.TherapistProfile) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	t.UpdatedAt = time.Now().UTC()
	res, err := repo.therapistsColl.ReplaceOne(ctx, bson.M{"id": t.ID}, t)
	if err != nil {
		return fmt.Errorf("failed to update therapist %s: %w", t.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoTherapistRepo) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var org models.Organization
	err := repo.organizationsColl.FindOne(ctx, bson.M{"id": id}).Decode(&org)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization %s: %w", id, err)
	}
	return &org, nil
}
