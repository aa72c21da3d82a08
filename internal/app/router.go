package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/handler"
	"dispatch/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler  *handler.BookingHandler
	ScheduleHandler *handler.ScheduleHandler
	CategoryHandler *handler.CategoryHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("/hourly", deps.BookingHandler.CreateHourlyBooking)
			bookings.POST("/scenic", deps.BookingHandler.CreateScenicBooking)
			bookings.POST("/destination", deps.BookingHandler.CreateDestinationBooking)
			bookings.POST("/shared", deps.BookingHandler.CreateSharedBooking)
			bookings.GET("/:code", deps.BookingHandler.GetBooking)
		}

		// Payment-provider callback.
		v1.POST("/checkout/callback", deps.BookingHandler.CheckoutCallback)

		// Driver schedule routes.
		schedules := v1.Group("/schedules")
		{
			schedules.POST("", deps.ScheduleHandler.CreateSchedules)
			schedules.GET("", deps.ScheduleHandler.ListSchedules)
			schedules.POST("/:id/checkin", deps.ScheduleHandler.CheckIn)
			schedules.POST("/:id/checkout", deps.ScheduleHandler.CheckOut)
		}

		// Vehicle category routes.
		v1.GET("/categories", deps.CategoryHandler.ListCategories)
	}

	return router
}
