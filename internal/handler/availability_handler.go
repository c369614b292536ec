package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/application"
	"github.com/tutorlane/service-scheduling/internal/pkg/response"
)

// AvailabilityHandler handles HTTP requests for a provider's sellable slots.
type AvailabilityHandler struct {
	service *application.AvailabilityService
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(service *application.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

// RegisterRoutes registers availability routes. Availability is public: a
// customer browsing a provider's calendar is not required to sign in.
func (h *AvailabilityHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/api/v1/providers/:id/availability", h.GetAvailability)
}

// GetAvailability handles GET /api/v1/providers/:id/availability.
// Query params: from and to (RFC 3339, required), debug (optional, returns
// the excluded ranges with reasons alongside the slots).
func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		response.BadRequest(c, "invalid or missing 'from' query parameter (RFC 3339)")
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		response.BadRequest(c, "invalid or missing 'to' query parameter (RFC 3339)")
		return
	}

	if c.Query("debug") == "true" {
		slots, exclusions, err := h.service.GetSellableSlotsDebug(c.Request.Context(), providerID, from, to)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, gin.H{"slots": slots, "exclusions": exclusions})
		return
	}

	slots, err := h.service.GetSellableSlots(c.Request.Context(), providerID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"slots": slots})
}
