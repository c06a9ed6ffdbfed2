package handler

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/permission"
	"fieldops/internal/service"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	poService service.PurchaseOrderService
	authz     middleware.PermissionChecker
}

func NewPurchaseOrderHandler(poService service.PurchaseOrderService, authz middleware.PermissionChecker) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{poService: poService, authz: authz}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/orders/:id/purchase-orders", middleware.RequirePermission(h.authz, permission.OrdersRead), h.ListByOrder)
	router.POST("/orders/:id/purchase-orders", middleware.RequirePermission(h.authz, permission.PurchaseOrdersWrite), h.Issue)
}

// Issue handles POST /orders/:id/purchase-orders
// @Summary      Issue a purchase order
// @Description  Attaches a client purchase order to an APPROVED service order and moves it to IN_PROGRESS
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                             true  "Service Order ID"
// @Param        payload  body      service.IssuePurchaseOrderRequest  true  "Purchase Order Payload"
// @Success      201      {object}  response.Response{data=service.PurchaseOrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/purchase-orders [post]
func (h *PurchaseOrderHandler) Issue(c *gin.Context) {
	var req service.IssuePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	po, err := h.poService.Issue(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, po))
}

// ListByOrder handles GET /orders/:id/purchase-orders
func (h *PurchaseOrderHandler) ListByOrder(c *gin.Context) {
	pos, err := h.poService.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pos))
}
