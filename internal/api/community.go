package api

import (
	"net/http"

	"rental-service/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) addToWishlist(c *gin.Context) {
	var req struct {
		ApartmentID string `json:"apartment_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.community.AddToWishlist(c.Request.Context(), callerID(c), req.ApartmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) getWishlist(c *gin.Context) {
	items, err := h.community.GetWishlist(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wishlist": items})
}

func (h *Handler) removeFromWishlist(c *gin.Context) {
	if err := h.community.RemoveFromWishlist(c.Request.Context(), callerID(c), c.Param("apartmentID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
		Body       string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	msg, err := h.community.SendMessage(c.Request.Context(), callerID(c), req.ReceiverID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) getConversation(c *gin.Context) {
	messages, err := h.community.GetConversation(c.Request.Context(), callerID(c), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) fileComplaint(c *gin.Context) {
	var req struct {
		ApartmentID string `json:"apartment_id" binding:"required"`
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	complaint, err := h.community.FileComplaint(c.Request.Context(), callerID(c), req.ApartmentID, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

func (h *Handler) listComplaints(c *gin.Context) {
	complaints, err := h.community.ListComplaints(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

func (h *Handler) listApartmentComplaints(c *gin.Context) {
	apt, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if apt.OwnerID != callerID(c) && c.GetString(ctxRole) != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your apartment"})
		return
	}

	complaints, err := h.community.ListComplaintsByApartment(c.Request.Context(), apt.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complaints": complaints})
}

func (h *Handler) listNotifications(c *gin.Context) {
	notifications, err := h.community.ListNotifications(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	if err := h.community.MarkNotificationRead(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}
