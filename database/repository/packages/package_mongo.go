package packageRepo

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

// ErrNotFound is returned when no package purchase matches the lookup.
var ErrNotFound = errors.New("package purchase not found")

// MongoPackageRepo implements PackageRepository backed by MongoDB.
type MongoPackageRepo struct {
	coll *mongo.Collection
}

// NewMongoPackageRepo returns a package repository using the global client.
func NewMongoPackageRepo() *MongoPackageRepo {
	return &MongoPackageRepo{
		coll: database.DB().Collection("package_purchases"),
	}
}

func (repo *MongoPackageRepo) Create(ctx context.Context, p *models.PackagePurchase) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create package purchase: %w", err)
	}
	return nil
}

func (repo *MongoPackageRepo) GetByID(ctx context.Context, id string) (*models.PackagePurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p models.PackagePurchase
	err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package purchase %s: %w", id, err)
	}
	return &p, nil
}

func (repo *MongoPackageRepo) GetByPaymentIntent(ctx context.Context, intentID string) (*models.PackagePurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p models.PackagePurchase
	err := repo.coll.FindOne(ctx, bson.M{"payment_intent_id": intentID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package purchase by intent %s: %w", intentID, err)
	}
	return &p, nil
}

func (repo *MongoPackageRepo) ListByPatient(ctx context.Context, patientID string, page, limit int) ([]models.PackagePurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "purchased_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := repo.coll.Find(ctx, bson.M{"patient_id": patientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list package purchases: %w", err)
	}
	defer cursor.Close(ctx)

	var purchases []models.PackagePurchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to decode package purchases: %w", err)
	}
	return purchases, nil
}

func (repo *MongoPackageRepo) FindActive(ctx context.Context, patientID, sessionTypeID string, now time.Time) (*models.PackagePurchase, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"patient_id":      patientID,
		"session_type_id": sessionTypeID,
		"active":          true,
		"expires_at":      bson.M{"$gt": now},
	}
	var p models.PackagePurchase
	err := repo.coll.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active package: %w", err)
	}
	return &p, nil
}

func (repo *MongoPackageRepo) Activate(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "payment_status": models.PaymentPending}
	update := bson.M{"$set": bson.M{
		"payment_status": models.PaymentPaid,
		"active":         true,
		"updated_at":     time.Now().UTC(),
	}}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to activate package purchase %s: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

func (repo *MongoPackageRepo) MarkPaymentFailed(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{"id": id, "payment_status": models.PaymentPending}
	update := bson.M{"$set": bson.M{
		"payment_status": models.PaymentFailed,
		"updated_at":     time.Now().UTC(),
	}}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark package purchase %s failed: %w", id, err)
	}
	return res.ModifiedCount == 1, nil
}

// ConsumeSession is a single conditional update so two concurrent consumers
// can never spend the same credit twice.
func (repo *MongoPackageRepo) ConsumeSession(ctx context.Context, id string, now time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"id":                 id,
		"active":             true,
		"sessions_remaining": bson.M{"$gt": 0},
		"expires_at":         bson.M{"$gt": now},
	}
	update := bson.M{
		"$inc": bson.M{"sessions_used": 1, "sessions_remaining": -1},
		"$set": bson.M{"updated_at": now},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to consume package session: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (repo *MongoPackageRepo) RestoreSession(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{
		"id":            id,
		"sessions_used": bson.M{"$gt": 0},
	}
	update := bson.M{
		"$inc": bson.M{"sessions_used": -1, "sessions_remaining": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to restore package session: %w", err)
	}
	return res.ModifiedCount == 1, nil
}
