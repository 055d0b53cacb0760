package handlers

import (
	catalogRepo "therapia/database/repository/catalog"
	"therapia/services/availability"
	"therapia/services/booking"
	"therapia/services/dispute"
	"therapia/services/ledger"
	"therapia/services/payment"

	"github.com/go-redis/redis/v8"
)

// HandlerBundle groups the wired services behind the HTTP endpoints.
type HandlerBundle struct {
	Bookings     booking.Service
	Availability availability.Engine
	Catalog      catalogRepo.CatalogRepository
	Packages     ledger.Service
	Disputes     dispute.Service
	Payments     payment.Service

	// Webhook plumbing.
	WebhookSecret string
	Cache         *redis.Client
}
