package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, scheduleService := wireServer(db, redisClient, nrApp, cfg)

	// Background reconciliation of overdue shifts.
	stopSweeper := scheduleService.StartSweeper(cfg.Scheduler.SweepInterval)
	defer stopSweeper()

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server plus the
// schedule service, whose sweeper the caller owns.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.ScheduleService) {
	// Initialize Redis stores.
	routeIndex := internalRedis.NewRouteIndex(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	driverRepo := postgres.NewDriverRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	routeRepo := postgres.NewSharedRouteRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService()
	receiptService := service.NewReceiptService(tripRepo, notificationService)
	pricer := service.NewTariffPricer()
	availabilityService := service.NewAvailabilityService(scheduleRepo, tripRepo)
	allocatorService := service.NewAllocatorService(vehicleRepo, pricer, nil, cacheStore)
	checkout := service.NewMockCheckout(cfg.Checkout.BaseURL)
	bookingService := service.NewBookingService(
		availabilityService, allocatorService, tripRepo, bookingRepo,
		checkout, nil, lockStore, cacheStore, notificationService, receiptService,
	)
	routeMatcher := service.NewGeoRouteMatcher(routeIndex, routeRepo, vehicleRepo)
	sharedRideService := service.NewSharedRideService(
		availabilityService, allocatorService, bookingService, routeMatcher,
		tripRepo, routeRepo, routeIndex, pricer,
	)
	scheduleService := service.NewScheduleService(db, scheduleRepo, driverRepo, vehicleRepo, notificationService)

	// Initialize handlers.
	bookingHandler := handler.NewBookingHandler(bookingService, sharedRideService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	categoryHandler := handler.NewCategoryHandler(vehicleRepo, availabilityService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler:  bookingHandler,
		ScheduleHandler: scheduleHandler,
		CategoryHandler: categoryHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, scheduleService
}
