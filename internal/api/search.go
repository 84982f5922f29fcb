package api

import (
	"fmt"
	"net/http"

	"rental-service/internal/apperr"
	"rental-service/internal/models"
	"rental-service/internal/money"

	"github.com/gin-gonic/gin"
)

// filterRequest carries a saved search filter. Rent bounds arrive as
// decimal strings and are stored in minor units; absent fields impose
// no constraint.
type filterRequest struct {
	Location    *string `json:"location"`
	RentMin     *string `json:"rent_min"`
	RentMax     *string `json:"rent_max"`
	Duration    *string `json:"duration"`
	SharingType *string `json:"sharing_type"`
	BHK         *string `json:"bhk"`
	Parking     *bool   `json:"parking"`
}

func (r *filterRequest) toModel(userID string) (*models.SearchFilter, error) {
	f := &models.SearchFilter{
		UserID:      userID,
		Location:    r.Location,
		Duration:    r.Duration,
		SharingType: r.SharingType,
		BHK:         r.BHK,
		Parking:     r.Parking,
	}
	if r.RentMin != nil {
		minor, err := money.ParseAmount(*r.RentMin)
		if err != nil {
			return nil, fmt.Errorf("invalid rent_min: %v: %w", err, apperr.ErrValidation)
		}
		f.RentMinMinor = &minor
	}
	if r.RentMax != nil {
		minor, err := money.ParseAmount(*r.RentMax)
		if err != nil {
			return nil, fmt.Errorf("invalid rent_max: %v: %w", err, apperr.ErrValidation)
		}
		f.RentMaxMinor = &minor
	}
	if f.RentMinMinor != nil && f.RentMaxMinor != nil && *f.RentMinMinor > *f.RentMaxMinor {
		return nil, fmt.Errorf("rent_min exceeds rent_max: %w", apperr.ErrValidation)
	}
	return f, nil
}

func (h *Handler) saveFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	f, err := req.toModel(callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.search.SaveFilter(c.Request.Context(), f); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (h *Handler) getFilter(c *gin.Context) {
	f, err := h.search.GetFilter(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) updateFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	f, err := req.toModel(callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.search.UpdateFilter(c.Request.Context(), f); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) deleteFilter(c *gin.Context) {
	if err := h.search.DeleteFilter(c.Request.Context(), callerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) searchResults(c *gin.Context) {
	apartments, err := h.search.FilterApartments(c.Request.Context(), callerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apartments": apartments})
}
