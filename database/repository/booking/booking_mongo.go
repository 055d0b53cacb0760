package bookingRepo

import (
	"errors"

	"therapia/database"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSlotConflict is returned when the transactional slot re-check finds a
// holding booking overlapping the requested window.
var ErrSlotConflict = errors.New("time slot conflicts with an existing booking")

// ErrNotFound is returned when no booking matches the lookup.
var ErrNotFound = errors.New("booking not found")

// MongoBookingRepo implements BookingRepository backed by MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a booking repository using the global client.
func NewMongoBookingRepo() *MongoBookingRepo {
	return &MongoBookingRepo{
		coll: database.DB().Collection("bookings"),
	}
}
