package handler

import (
	"net/http"
	"strings"

	"fieldops/internal/middleware"
	"fieldops/internal/permission"
	"fieldops/internal/repository"
	"fieldops/internal/service"
	"fieldops/pkg/pagination"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
	authz        middleware.PermissionChecker
}

func NewOrderHandler(orderService service.OrderService, authz middleware.PermissionChecker) *OrderHandler {
	return &OrderHandler{orderService: orderService, authz: authz}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", middleware.RequirePermission(h.authz, permission.OrdersRead), h.ListOrders)
		orders.GET("/:id", middleware.RequirePermission(h.authz, permission.OrdersRead), h.GetOrder)
		orders.GET("/:id/approvals", middleware.RequirePermission(h.authz, permission.OrdersRead), h.ListApprovals)
		orders.POST("", middleware.RequirePermission(h.authz, permission.OrdersWrite), h.CreateOrder)
		orders.PUT("/:id", middleware.RequirePermission(h.authz, permission.OrdersWrite), h.UpdateOrder)
		orders.PATCH("/:id/progress", middleware.RequirePermission(h.authz, permission.OrdersWrite), h.UpdateProgress)

		// The route gate is the coarse OR of the transition permissions; the
		// workflow engine enforces which actor may take which edge.
		orders.POST("/:id/transition",
			middleware.RequirePermission(h.authz, permission.OrdersWrite, permission.OrdersApprove, permission.OrdersCancel),
			h.TransitionStatus)
	}
}

// CreateOrder handles POST /orders
// @Summary      Create a service order
// @Description  Creates a VISIT_REPORT or EXECUTION order; visit reports start in PENDING_APPROVAL
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /orders
// @Summary      List service orders
// @Description  Supports filtering by a comma-separated status set, order type and client
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Comma-separated status filter"
// @Param        type       query     string  false  "Order type filter"
// @Param        client_id  query     string  false  "Client filter"
// @Param        page       query     int     false  "Page number"
// @Param        limit      query     int     false  "Page size"
// @Success      200        {object}  response.Response
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.OrderFilter{
		Type:  c.Query("type"),
		Page:  p.Page,
		Limit: p.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, s)
			}
		}
	}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid client_id filter"))
			return
		}
		filter.ClientID = &clientID
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch orders"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// GetOrder handles GET /orders/:id
// @Summary      Get service order by ID
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder handles PUT /orders/:id
// @Summary      Update service order fields
// @Description  Edits scope, assignees, checklist and deadline subject to status rules
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// TransitionStatus handles POST /orders/:id/transition
// @Summary      Transition a service order
// @Description  Applies a lifecycle transition (submit, approve, reject, cancel, start, complete)
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Order ID"
// @Param        payload  body      service.TransitionRequest  true  "Target status and optional comments"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/transition [post]
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.TransitionStatus(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateProgress handles PATCH /orders/:id/progress
// @Summary      Update execution progress
// @Description  Sets progress 0-100; reaching 100 on an in-progress order completes it
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Order ID"
// @Param        payload  body      service.UpdateProgressRequest  true  "Progress Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/progress [patch]
func (h *OrderHandler) UpdateProgress(c *gin.Context) {
	var req service.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Progress == nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: progress is required"))
		return
	}

	order, err := h.orderService.UpdateProgress(c.Request.Context(), c.Param("id"), c.GetString("userID"), *req.Progress)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ListApprovals handles GET /orders/:id/approvals
// @Summary      List the approval trail
// @Description  Returns the append-only approval decisions for an order, newest first
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.ApprovalResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id}/approvals [get]
func (h *OrderHandler) ListApprovals(c *gin.Context) {
	approvals, err := h.orderService.ListApprovals(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approvals))
}
