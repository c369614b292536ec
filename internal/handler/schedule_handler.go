package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tutorlane/service-scheduling/internal/application"
	"github.com/tutorlane/service-scheduling/internal/pkg/auth"
	"github.com/tutorlane/service-scheduling/internal/pkg/middleware"
	"github.com/tutorlane/service-scheduling/internal/pkg/response"
)

// ScheduleHandler handles HTTP requests for a provider's own schedule:
// recurring weekly windows and date-specific overrides.
type ScheduleHandler struct {
	service *application.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(service *application.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// RegisterRoutes registers schedule management routes. All routes require the
// provider role; a provider can only manage their own schedule.
func (h *ScheduleHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	providerRole := middleware.RequireRole(auth.RoleProvider)

	schedule := r.Group("/api/v1/schedule")
	schedule.Use(authMW, providerRole)
	{
		schedule.GET("/windows", h.ListWindows)
		schedule.POST("/windows", h.AddWindow)
		schedule.PUT("/windows/:id", h.UpdateWindow)
		schedule.DELETE("/windows/:id", h.DeleteWindow)
		schedule.GET("/overrides", h.ListOverrides)
		schedule.POST("/overrides", h.AddOverride)
		schedule.DELETE("/overrides/:id", h.DeleteOverride)
	}
}

// ListWindows handles GET /api/v1/schedule/windows.
func (h *ScheduleHandler) ListWindows(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	windows, err := h.service.ListRecurringWindows(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, windows)
}

// AddWindow handles POST /api/v1/schedule/windows.
func (h *ScheduleHandler) AddWindow(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.AddRecurringWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	window, err := h.service.AddRecurringWindow(c.Request.Context(), providerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, window)
}

// UpdateWindow handles PUT /api/v1/schedule/windows/:id.
func (h *ScheduleHandler) UpdateWindow(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	windowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid window ID")
		return
	}

	var req application.AddRecurringWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	window, err := h.service.UpdateRecurringWindow(c.Request.Context(), providerID, windowID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, window)
}

// DeleteWindow handles DELETE /api/v1/schedule/windows/:id.
func (h *ScheduleHandler) DeleteWindow(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	windowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid window ID")
		return
	}

	if err := h.service.DeleteRecurringWindow(c.Request.Context(), providerID, windowID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": windowID})
}

// ListOverrides handles GET /api/v1/schedule/overrides.
func (h *ScheduleHandler) ListOverrides(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
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

	overrides, err := h.service.ListOverrides(c.Request.Context(), providerID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, overrides)
}

// AddOverride handles POST /api/v1/schedule/overrides.
func (h *ScheduleHandler) AddOverride(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.AddOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	override, err := h.service.AddOverride(c.Request.Context(), providerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, override)
}

// DeleteOverride handles DELETE /api/v1/schedule/overrides/:id.
func (h *ScheduleHandler) DeleteOverride(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	overrideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid override ID")
		return
	}

	if err := h.service.DeleteOverride(c.Request.Context(), providerID, overrideID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deleted": overrideID})
}
