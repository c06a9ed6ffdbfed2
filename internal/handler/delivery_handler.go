package handler

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/permission"
	"fieldops/internal/service"
	"fieldops/internal/workflow"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	deliveryService service.DeliveryService
	authz           middleware.PermissionChecker
}

func NewDeliveryHandler(deliveryService service.DeliveryService, authz middleware.PermissionChecker) *DeliveryHandler {
	return &DeliveryHandler{deliveryService: deliveryService, authz: authz}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/orders/:id/delivery", middleware.RequirePermission(h.authz, permission.OrdersRead), h.GetByOrder)
	router.POST("/orders/:id/delivery", middleware.RequirePermission(h.authz, permission.DeliveriesWrite), h.Register)
	router.PATCH("/deliveries/:id/signature", middleware.RequirePermission(h.authz, permission.DeliveriesWrite), h.AttachSignature)

	// Removing a delivery reopens a completed order, so it stays admin-only.
	router.DELETE("/deliveries/:id", middleware.RequireRole(workflow.RoleAdmin), h.Delete)
}

// Register handles POST /orders/:id/delivery
// @Summary      Register a delivery
// @Description  Records client acceptance with a fully completed checklist and completes the order
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Service Order ID"
// @Param        payload  body      service.RegisterDeliveryRequest  true  "Delivery Payload"
// @Success      201      {object}  response.Response{data=service.DeliveryResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/delivery [post]
func (h *DeliveryHandler) Register(c *gin.Context) {
	var req service.RegisterDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	delivery, err := h.deliveryService.Register(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, delivery))
}

// GetByOrder handles GET /orders/:id/delivery
func (h *DeliveryHandler) GetByOrder(c *gin.Context) {
	delivery, err := h.deliveryService.GetByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// AttachSignature handles PATCH /deliveries/:id/signature
// @Summary      Attach the client signature
// @Description  One-time attachment of the signature reference to a registered delivery
// @Tags         deliveries
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Delivery ID"
// @Param        payload  body      service.AttachSignatureRequest  true  "Signature Payload"
// @Success      200      {object}  response.Response{data=service.DeliveryResponse}
// @Failure      409      {object}  response.Response
// @Router       /deliveries/{id}/signature [patch]
func (h *DeliveryHandler) AttachSignature(c *gin.Context) {
	var req service.AttachSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	delivery, err := h.deliveryService.AttachSignature(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, delivery))
}

// Delete handles DELETE /deliveries/:id
// @Summary      Remove a delivery
// @Description  Admin-only compensating action; the order returns to IN_PROGRESS
// @Tags         deliveries
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Delivery ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /deliveries/{id} [delete]
func (h *DeliveryHandler) Delete(c *gin.Context) {
	if err := h.deliveryService.Delete(c.Request.Context(), c.Param("id"), c.GetString("userID")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Delivery removed"}))
}
