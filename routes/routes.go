package routes

import (
	"net/http"
	"time"

	therapistRepo "therapia/database/repository/therapist"
	"therapia/handlers"
	"therapia/middleware"
	"therapia/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/bookings")
	{
		api.Use(auth)
		api.POST("", middleware.RequireRole(models.RolePatient), hb.CreateBooking)
		api.GET("", hb.ListBookings)
		api.GET("/:id", hb.GetBooking)
		api.POST("/:id/accept", middleware.RequireRole(models.RoleTherapist), hb.AcceptBooking)
		api.POST("/:id/reject", middleware.RequireRole(models.RoleTherapist), hb.RejectBooking)
		api.POST("/:id/cancel", hb.CancelBooking)
		api.POST("/:id/complete", hb.CompleteBooking)
	}
}

// RegisterAvailabilityRoutes registers slot discovery and the therapist's
// schedule management endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/availability")
	{
		api.Use(auth)
		api.GET("/slots", hb.GetAvailableSlots)

		schedule := api.Group("/schedule")
		schedule.Use(middleware.RequireRole(models.RoleTherapist))
		schedule.POST("/rules", hb.SetWeeklyRule)
		schedule.GET("/rules", hb.ListWeeklyRules)
		schedule.DELETE("/rules/:id", hb.DeactivateRule)
		schedule.POST("/exceptions", hb.AddException)
		schedule.GET("/exceptions", hb.ListExceptions)
		schedule.DELETE("/exceptions/:id", hb.RemoveException)
	}
}

// RegisterPackageRoutes registers the prepaid bundle endpoints.
func RegisterPackageRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/packages")
	{
		api.Use(auth, middleware.RequireRole(models.RolePatient))
		api.POST("", hb.PurchasePackage)
		api.GET("", hb.ListPackages)
		api.GET("/active", hb.GetActivePackage)
	}
}

// RegisterPayoutRoutes registers the therapist's payout onboarding
// endpoints.
func RegisterPayoutRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/payouts")
	{
		api.Use(auth, middleware.RequireRole(models.RoleTherapist))
		api.POST("/account", hb.SetupPayoutAccount)
		api.GET("/account", hb.GetPayoutAccount)
	}
}

// RegisterDisputeRoutes registers dispute filing and the admin resolution
// endpoints.
func RegisterDisputeRoutes(r *gin.Engine, hb *handlers.HandlerBundle, auth gin.HandlerFunc) {
	api := r.Group("/api/disputes")
	{
		api.Use(auth)
		api.POST("", hb.RaiseDispute)

		adminOnly := api.Group("")
		adminOnly.Use(middleware.RequireRole(models.RoleAdmin))
		adminOnly.GET("", hb.ListDisputes)
		adminOnly.GET("/:id", hb.GetDispute)
		adminOnly.POST("/:id/resolve", hb.ResolveDispute)
		adminOnly.POST("/:id/close", hb.CloseDispute)
	}
}

// RegisterWebhookRoutes registers the payment gateway callback. No auth
// middleware: the stripe signature is the authentication.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/webhooks/stripe", hb.StripeWebhook)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, therapists therapistRepo.TherapistRepository) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	auth := middleware.AuthMiddleware(therapists)

	RegisterHealthRoute(r)
	RegisterWebhookRoutes(r, hb)
	RegisterBookingRoutes(r, hb, auth)
	RegisterAvailabilityRoutes(r, hb, auth)
	RegisterPackageRoutes(r, hb, auth)
	RegisterPayoutRoutes(r, hb, auth)
	RegisterDisputeRoutes(r, hb, auth)
}
