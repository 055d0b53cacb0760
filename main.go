package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"therapia/config"
	"therapia/cron"
	"therapia/database"
	availabilityRepo "therapia/database/repository/availability"
	bookingRepo "therapia/database/repository/booking"
	catalogRepo "therapia/database/repository/catalog"
	disputeRepo "therapia/database/repository/dispute"
	packageRepo "therapia/database/repository/packages"
	therapistRepo "therapia/database/repository/therapist"
	"therapia/handlers"
	"therapia/routes"
	"therapia/services/availability"
	"therapia/services/booking"
	"therapia/services/dispute"
	"therapia/services/ledger"
	"therapia/services/meeting"
	"therapia/services/notification"
	"therapia/services/payment"
	"therapia/services/pricing"
	"therapia/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.InitLockClient()
	stripe.Key = config.AppConfig.StripeKey

	// Repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	availabilityStore := availabilityRepo.NewMongoAvailabilityRepo()
	catalog := catalogRepo.NewMongoCatalogRepo()
	therapists := therapistRepo.NewMongoTherapistRepo()
	packages := packageRepo.NewMongoPackageRepo()
	disputes := disputeRepo.NewMongoDisputeRepo()

	for name, ensure := range map[string]func() error{
		"bookings":     bookings.EnsureIndexes,
		"availability": availabilityStore.EnsureIndexes,
		"packages":     packages.EnsureIndexes,
		"disputes":     disputes.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	// Event queue.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisEventQueueDB,
	})
	defer asynqClient.Close()
	events := notification.NewAsynqPublisher(asynqClient)

	// Services.
	quotes := &pricing.DefaultCalculator{
		Catalog:              catalog,
		Therapists:           therapists,
		DefaultCommissionPct: config.AppConfig.PlatformCommissionPct,
	}
	payments := &payment.DefaultService{
		Gateway:    payment.NewStripeGateway(),
		Therapists: therapists,
		Logger:     logger,
	}
	meetings := meeting.NewDefaultProvider(
		config.AppConfig.MeetingProviderURL,
		config.AppConfig.MeetingFallbackURL,
	)
	availabilityEngine := &availability.DefaultEngine{
		Rules:         availabilityStore,
		Bookings:      bookings,
		BufferMinutes: config.AppConfig.BookingBufferMinutes,
	}
	bookingService := &booking.DefaultService{
		Bookings:   bookings,
		Therapists: therapists,
		Packages:   packages,
		Quotes:     quotes,
		Payments:   payments,
		Meetings:   meetings,
		Events:     events,
		Logger:     logger,

		Buffer:           time.Duration(config.AppConfig.BookingBufferMinutes) * time.Minute,
		MinimumNotice:    time.Duration(config.AppConfig.MinimumNoticeHours) * time.Hour,
		AcceptanceWindow: time.Duration(config.AppConfig.AcceptanceDeadlineHours) * time.Hour,
	}
	ledgerService := &ledger.DefaultService{
		Packages:   packages,
		Therapists: therapists,
		Quotes:     quotes,
		Payments:   payments,
		Events:     events,
		Logger:     logger,
		Validity:   time.Duration(config.AppConfig.PackageValidityDays) * 24 * time.Hour,
	}
	disputeService := &dispute.DefaultService{
		Disputes: disputes,
		Bookings: bookings,
		Payments: payments,
		Events:   events,
		Logger:   logger,
		Window:   time.Duration(config.AppConfig.DisputeWindowDays) * 24 * time.Hour,
	}

	// Background workers: the event drain and the two sweeps.
	cron.InitEventWorker(&notification.LogNotifier{Logger: logger})

	sweeper := &cron.Sweeper{
		Bookings:     bookings,
		Therapists:   therapists,
		BookingSvc:   bookingService,
		Payments:     payments,
		Events:       events,
		Locks:        cron.NewRedisLocker(utils.GetLockClient()),
		Logger:       logger,
		EscrowDelay:  time.Duration(config.AppConfig.EscrowReleaseDelayHours) * time.Hour,
		DeadlineSpec: config.AppConfig.DeadlineSweepSpec,
		EscrowSpec:   config.AppConfig.EscrowSweepSpec,
	}
	scheduler, err := sweeper.Start()
	if err != nil {
		logger.Sugar().Fatalf("main: failed to start sweeps: %v", err)
	}
	defer scheduler.Stop()

	// HTTP.
	handlerBundle := &handlers.HandlerBundle{
		Bookings:      bookingService,
		Availability:  availabilityEngine,
		Catalog:       catalog,
		Packages:      ledgerService,
		Disputes:      disputeService,
		Payments:      payments,
		WebhookSecret: config.AppConfig.StripeWebhookSecret,
		Cache:         utils.GetCacheClient(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	routes.RegisterRoutes(router, handlerBundle, therapists)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
