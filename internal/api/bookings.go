package api

import (
	"net/http"
	"time"

	"rental-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createBooking(c *gin.Context) {
	var req struct {
		ApartmentID    string    `json:"apartment_id" binding:"required"`
		CheckoutDate   time.Time `json:"checkout_date" binding:"required"`
		IdempotencyKey string    `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	booking, err := h.bookings.Create(c.Request.Context(), callerID(c), req.ApartmentID, req.CheckoutDate, req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

func (h *Handler) getBooking(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if booking.UserID != callerID(c) && c.GetString(ctxRole) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *Handler) listMyBookings(c *gin.Context) {
	bookings, err := h.bookings.ListByUser(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) listApartmentBookings(c *gin.Context) {
	apt, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if apt.OwnerID != callerID(c) && c.GetString(ctxRole) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your apartment"})
		return
	}

	bookings, err := h.bookings.ListByApartment(c.Request.Context(), apt.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) listMyPayments(c *gin.Context) {
	payments, err := h.bookings.ListPayments(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}
