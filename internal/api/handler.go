package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/service"
	"rental-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	accounts  *service.AccountService
	listings  *service.ListingService
	search    *service.SearchService
	bookings  *service.BookingService
	payments  *service.PaymentService
	community *service.CommunityService
	auth      *AuthMiddleware
}

// NewHandler creates a new HTTP handler
func NewHandler(
	accounts *service.AccountService,
	listings *service.ListingService,
	search *service.SearchService,
	bookings *service.BookingService,
	payments *service.PaymentService,
	community *service.CommunityService,
	auth *AuthMiddleware,
) *Handler {
	return &Handler{
		accounts:  accounts,
		listings:  listings,
		search:    search,
		bookings:  bookings,
		payments:  payments,
		community: community,
		auth:      auth,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/signup", h.signUp)
		v1.POST("/auth/login", h.login)

		// Public listing surface. Seekers can browse without an account.
		v1.GET("/apartments", h.listApartments)
		v1.GET("/apartments/:id", h.getApartment)
		v1.GET("/apartments/:id/images", h.listApartmentImages)
		v1.GET("/images/:id", h.getImage)

		// The gateway redirects the payer's browser here; it carries no
		// auth and is fully untrusted.
		v1.GET("/payments/callback", h.paymentCallback)
	}

	authed := v1.Group("")
	authed.Use(h.auth.Authenticate())
	{
		authed.GET("/users/me", h.getProfile)
		authed.PUT("/users/me", h.updateProfile)

		authed.POST("/owners", h.registerOwner)
		authed.GET("/owners/me", h.getOwner)
		authed.GET("/owners/me/apartments", h.listOwnApartments)

		authed.POST("/apartments", h.createApartment)
		authed.PUT("/apartments/:id", h.updateApartment)
		authed.DELETE("/apartments/:id", h.deleteApartment)
		authed.POST("/apartments/:id/images", h.uploadImage)
		authed.DELETE("/images/:id", h.deleteImage)
		authed.GET("/apartments/:id/bookings", h.listApartmentBookings)
		authed.GET("/apartments/:id/complaints", h.listApartmentComplaints)

		authed.POST("/search/filter", h.saveFilter)
		authed.GET("/search/filter", h.getFilter)
		authed.PUT("/search/filter", h.updateFilter)
		authed.DELETE("/search/filter", h.deleteFilter)
		authed.GET("/search/results", h.searchResults)

		authed.POST("/bookings", h.createBooking)
		authed.GET("/bookings", h.listMyBookings)
		authed.GET("/bookings/:id", h.getBooking)

		authed.POST("/payments/initiate", h.initiatePayment)
		authed.GET("/payments/status/:orderID", h.paymentStatus)
		authed.GET("/payments", h.listMyPayments)

		authed.POST("/wishlist", h.addToWishlist)
		authed.GET("/wishlist", h.getWishlist)
		authed.DELETE("/wishlist/:apartmentID", h.removeFromWishlist)

		authed.POST("/messages", h.sendMessage)
		authed.GET("/messages/:userID", h.getConversation)

		authed.POST("/complaints", h.fileComplaint)

		authed.GET("/notifications", h.listNotifications)
		authed.POST("/notifications/:id/read", h.markNotificationRead)
	}

	admin := v1.Group("/admin")
	admin.Use(h.auth.Authenticate(), h.auth.RequireRole(models.RoleAdmin))
	{
		admin.GET("/apartments/pending", h.listPendingApartments)
		admin.POST("/apartments/:id/review", h.reviewApartment)
		admin.GET("/complaints", h.listComplaints)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError translates domain errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrCapacityExhausted):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrGatewayUnavailable):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
