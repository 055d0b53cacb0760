package catalogRepo

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

// ErrNotFound is returned when no catalog record matches the lookup.
var ErrNotFound = errors.New("catalog record not found")

// MongoCatalogRepo implements CatalogRepository backed by MongoDB.
type MongoCatalogRepo struct {
	sessionTypesColl *mongo.Collection
	pricingColl      *mongo.Collection
	commissionColl   *mongo.Collection
}

// NewMongoCatalogRepo returns a catalog repository using the global client.
func NewMongoCatalogRepo() *MongoCatalogRepo {
	return &MongoCatalogRepo{
		sessionTypesColl: database.DB().Collection("session_types"),
		pricingColl:      database.DB().Collection("session_pricing"),
		commissionColl:   database.DB().Collection("commission_settings"),
	}
}

func (repo *MongoCatalogRepo) GetSessionType(ctx context.Context, id string) (*models.SessionType, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var st models.SessionType
	err := repo.sessionTypesColl.FindOne(ctx, bson.M{"id": id}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session type %s: %w", id, err)
	}
	return &st, nil
}

func (repo *MongoCatalogRepo) ListSessionTypes(ctx context.Context, therapistID string) ([]models.SessionType, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Platform-wide types plus the therapist's own.
	filter := bson.M{
		"active": true,
		"$or": bson.A{
			bson.M{"therapist_id": ""},
			bson.M{"therapist_id": therapistID},
		},
	}
	cursor, err := repo.sessionTypesColl.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list session types: %w", err)
	}
	defer cursor.Close(ctx)

	var types []models.SessionType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode session types: %w", err)
	}
	return types, nil
}

func (repo *MongoCatalogRepo) GetSessionPricing(ctx context.Context, therapistID, sessionTypeID string) (*models.SessionPricing, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p models.SessionPricing
	err := repo.pricingColl.FindOne(ctx, bson.M{
		"therapist_id":    therapistID,
		"session_type_id": sessionTypeID,
		"active":          true,
	}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session pricing: %w", err)
	}
	return &p, nil
}

func (repo *MongoCatalogRepo) UpsertSessionPricing(ctx context.Context, p *models.SessionPricing) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	p.UpdatedAt = time.Now().UTC()
	filter := bson.M{"therapist_id": p.TherapistID, "session_type_id": p.SessionTypeID}
	_, err := repo.pricingColl.ReplaceOne(ctx, filter, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert session pricing: %w", err)
	}
	return nil
}

func (repo *MongoCatalogRepo) GetTherapistCommission(ctx context.Context, therapistID string) (*models.CommissionSetting, error) {
	return repo.findCommission(ctx, bson.M{
		"scope":        models.CommissionTherapist,
		"therapist_id": therapistID,
		"active":       true,
	})
}

func (repo *MongoCatalogRepo) GetOrganizationCommission(ctx context.Context, organizationID string) (*models.CommissionSetting, error) {
	return repo.findCommission(ctx, bson.M{
		"scope":           models.CommissionOrganization,
		"organization_id": organizationID,
		"active":          true,
	})
}

func (repo *MongoCatalogRepo) GetPlatformCommission(ctx context.Context) (*models.CommissionSetting, error) {
	return repo.findCommission(ctx, bson.M{
		"scope":  models.CommissionPlatform,
		"active": true,
	})
}

func (repo *MongoCatalogRepo) findCommission(ctx context.Context, filter bson.M) (*models.CommissionSetting, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var cs models.CommissionSetting
	err := repo.commissionColl.FindOne(ctx, filter).Decode(&cs)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commission setting: %w", err)
	}
	return &cs, nil
}
