package api

import (
	"io"
	"net/http"

	"rental-service/internal/service"

	"github.com/gin-gonic/gin"
)

// 5 MiB cap on a single listing photo.
const maxImageBytes = 5 << 20

func (h *Handler) listApartments(c *gin.Context) {
	apartments, err := h.listings.ListApproved(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apartments})
}

func (h *Handler) getApartment(c *gin.Context) {
	apt, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) createApartment(c *gin.Context) {
	var req service.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	apt, err := h.listings.Create(c.Request.Context(), callerID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, apt)
}

func (h *Handler) updateApartment(c *gin.Context) {
	var req service.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	apt, err := h.listings.Update(c.Request.Context(), callerID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, apt)
}

func (h *Handler) deleteApartment(c *gin.Context) {
	if err := h.listings.Delete(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listOwnApartments(c *gin.Context) {
	apartments, err := h.listings.ListByOwner(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apartments})
}

func (h *Handler) listPendingApartments(c *gin.Context) {
	apartments, err := h.listings.ListPending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apartments})
}

func (h *Handler) reviewApartment(c *gin.Context) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.listings.Review(c.Request.Context(), callerID(c), c.Param("id"), req.Decision, req.Comments); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartment_id": c.Param("id"), "decision": req.Decision})
}

func (h *Handler) uploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
		return
	}
	if len(data) > maxImageBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds size limit"})
		return
	}

	img, err := h.listings.AddImage(c.Request.Context(), callerID(c), c.Param("id"),
		data, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (h *Handler) getImage(c *gin.Context) {
	data, contentType, err := h.listings.GetImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) listApartmentImages(c *gin.Context) {
	images, err := h.listings.ListImages(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"images": images})
}

func (h *Handler) deleteImage(c *gin.Context) {
	if err := h.listings.DeleteImage(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
