package handler

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/permission"
	"fieldops/internal/repository"
	"fieldops/internal/service"
	"fieldops/pkg/pagination"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	authz        middleware.PermissionChecker
}

func NewAuditHandler(auditService service.AuditService, authz middleware.PermissionChecker) *AuditHandler {
	return &AuditHandler{auditService: auditService, authz: authz}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit", middleware.RequirePermission(h.authz, permission.AuditRead), h.ListAudit)
}

// ListAudit handles GET /audit
// @Summary      List the activity log
// @Description  Returns audit entries newest first, filterable by action and user
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        action   query     string  false  "Action filter"
// @Param        user_id  query     string  false  "User filter"
// @Param        page     query     int     false  "Page number"
// @Param        limit    query     int     false  "Page size"
// @Success      200      {object}  response.Response
// @Router       /audit [get]
func (h *AuditHandler) ListAudit(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.AuditFilter{
		Action: c.Query("action"),
		UserID: c.Query("user_id"),
		Page:   p.Page,
		Limit:  p.Limit,
	}

	entries, total, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch audit log"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}
