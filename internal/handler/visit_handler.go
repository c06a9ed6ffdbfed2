package handler

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/permission"
	"fieldops/internal/service"
	"fieldops/pkg/pagination"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

type VisitHandler struct {
	visitService service.VisitService
	authz        middleware.PermissionChecker
}

func NewVisitHandler(visitService service.VisitService, authz middleware.PermissionChecker) *VisitHandler {
	return &VisitHandler{visitService: visitService, authz: authz}
}

func (h *VisitHandler) RegisterRoutes(router *gin.RouterGroup) {
	visits := router.Group("/visits")
	{
		visits.GET("", middleware.RequirePermission(h.authz, permission.VisitsRead), h.ListVisits)
		visits.GET("/:id", middleware.RequirePermission(h.authz, permission.VisitsRead), h.GetVisit)
		visits.POST("", middleware.RequirePermission(h.authz, permission.VisitsWrite), h.CreateVisit)
		visits.PUT("/:id", middleware.RequirePermission(h.authz, permission.VisitsWrite), h.UpdateVisit)
	}
}

// CreateVisit handles POST /visits
// @Summary      Schedule a technical visit
// @Tags         visits
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateVisitRequest  true  "Create Visit Payload"
// @Success      201      {object}  response.Response{data=service.VisitResponse}
// @Failure      404      {object}  response.Response
// @Router       /visits [post]
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var req service.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	visit, err := h.visitService.CreateVisit(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, visit))
}

// ListVisits handles GET /visits
func (h *VisitHandler) ListVisits(c *gin.Context) {
	p := pagination.Parse(c)

	visits, total, err := h.visitService.ListVisits(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch visits"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"visits": visits,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetVisit handles GET /visits/:id
func (h *VisitHandler) GetVisit(c *gin.Context) {
	visit, err := h.visitService.GetVisit(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, visit))
}

// UpdateVisit handles PUT /visits/:id
func (h *VisitHandler) UpdateVisit(c *gin.Context) {
	var req service.UpdateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	visit, err := h.visitService.UpdateVisit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, visit))
}
