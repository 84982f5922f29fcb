package api

import (
	"net/http"

	"rental-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) initiatePayment(c *gin.Context) {
	var req struct {
		BookingID string `json:"booking_id" binding:"required"`
		Amount    string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), req.BookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if booking.UserID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your booking"})
		return
	}

	resp, err := h.payments.Initiate(c.Request.Context(), req.BookingID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// paymentCallback is the gateway's browser redirect after checkout.
// Query parameters are untrusted; every claim is re-verified against
// stored state before anything changes.
func (h *Handler) paymentCallback(c *gin.Context) {
	orderID := c.Query("order_id")
	paymentID := c.Query("payment_id")
	status := c.Query("status")

	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order_id is required"})
		return
	}

	// A non-success redirect carries no proof either way, so the claim
	// is checked against the gateway itself: a verified failure moves
	// the intent to failed, and a payment that actually went through
	// despite the redirect still gets confirmed.
	if status != "success" && status != "paid" {
		result, gatewayStatus, err := h.payments.CheckStatus(c.Request.Context(), orderID)
		if err != nil || result == nil {
			c.JSON(http.StatusOK, gin.H{
				"order_id": orderID,
				"status":   "pending",
			})
			return
		}
		body := confirmationBody(result)
		body["gateway_status"] = gatewayStatus
		c.JSON(http.StatusOK, body)
		return
	}

	result, err := h.payments.Confirm(c.Request.Context(), orderID, paymentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, confirmationBody(result))
}

// paymentStatus polls the gateway directly, covering lost callbacks.
func (h *Handler) paymentStatus(c *gin.Context) {
	result, gatewayStatus, err := h.payments.CheckStatus(c.Request.Context(), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}

	if result == nil {
		c.JSON(http.StatusOK, gin.H{
			"order_id":       c.Param("orderID"),
			"gateway_status": gatewayStatus,
		})
		return
	}

	body := confirmationBody(result)
	body["gateway_status"] = gatewayStatus
	c.JSON(http.StatusOK, body)
}

func confirmationBody(result *models.ConfirmResult) gin.H {
	body := gin.H{
		"order_id":       result.Intent.GatewayOrderID,
		"booking_id":     result.Booking.ID,
		"booking_status": result.Booking.Status,
		"payment_status": result.Intent.Status,
	}
	if result.Confirmed {
		body["available_beds"] = result.AvailableBeds
	} else if !result.AlreadyPaid {
		// Payment went through but the last bed was taken first.
		body["reason"] = "no beds available, booking cancelled"
	}
	return body
}
