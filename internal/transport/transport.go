package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/hotel-booking/internal/entity"
	"github.com/ds124wfegd/hotel-booking/internal/transport/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the HTTP layer.
type RouterOptions struct {
	JWTSecret      string
	RequestTimeout time.Duration
}

func InitRoutes(reservationHandler *ReservationHandler, roomHandler *RoomHandler, deadLetterHandler *DeadLetterHandler, opts RouterOptions) *gin.Engine {
	RegisterValidators()

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(opts.RequestTimeout))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		// Public catalog
		api.GET("/hotels/:hotel_id/rooms", roomHandler.ListHotelRooms)
		api.GET("/rooms/:id", roomHandler.GetRoom)

		auth := api.Group("", middleware.Auth(opts.JWTSecret))

		auth.GET("/rooms/:id/availability", roomHandler.CheckAvailability)

		// Reservation routes
		reservations := auth.Group("/reservations")
		{
			reservations.POST("", reservationHandler.CreateReservation)
			reservations.GET("/my", reservationHandler.GetMyReservations)
			reservations.GET("/owner", middleware.RequireRole(entity.RoleOwner, entity.RoleAdmin), reservationHandler.GetOwnerReservations)
			reservations.GET("/:id", reservationHandler.GetReservation)
			reservations.PATCH("/:id/cancel", reservationHandler.CancelReservation)
		}

		// Payment routes
		payments := auth.Group("/payments")
		{
			payments.POST("/orders", reservationHandler.CreatePaymentOrder)
			payments.POST("/verify", reservationHandler.VerifyPayment)
			payments.GET("/:reservation_id", reservationHandler.GetPaymentDetails)
		}

		// Admin routes
		admin := auth.Group("/admin", middleware.RequireRole(entity.RoleAdmin))
		{
			admin.GET("/reservations", reservationHandler.GetAllReservations)
			admin.GET("/dead-letters", deadLetterHandler.ListFailedEvents)
			admin.GET("/dead-letters/stats", deadLetterHandler.GetStats)
		}
	}

	return router
}
