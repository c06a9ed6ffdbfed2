package handler

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/permission"
	"fieldops/internal/service"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	authz          middleware.PermissionChecker
}

func NewInvoiceHandler(invoiceService service.InvoiceService, authz middleware.PermissionChecker) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, authz: authz}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/orders/:id/invoices", middleware.RequirePermission(h.authz, permission.OrdersRead), h.ListByOrder)
	router.POST("/orders/:id/invoices", middleware.RequirePermission(h.authz, permission.InvoicesWrite), h.Issue)
	router.PATCH("/invoices/:id/status", middleware.RequirePermission(h.authz, permission.InvoicesWrite), h.UpdateStatus)
}

// Issue handles POST /orders/:id/invoices
// @Summary      Issue an invoice
// @Description  Issues an invoice against a non-expired purchase order of the service order
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Service Order ID"
// @Param        payload  body      service.IssueInvoiceRequest true  "Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /orders/{id}/invoices [post]
func (h *InvoiceHandler) Issue(c *gin.Context) {
	var req service.IssueInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	inv, err := h.invoiceService.Issue(c.Request.Context(), c.Param("id"), c.GetString("userID"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}

// ListByOrder handles GET /orders/:id/invoices
func (h *InvoiceHandler) ListByOrder(c *gin.Context) {
	invoices, err := h.invoiceService.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoices))
}

// UpdateStatus handles PATCH /invoices/:id/status
// @Summary      Update invoice status
// @Description  Moves an invoice between ISSUED, OVERDUE, PAID and CANCELLED; PAID and CANCELLED are terminal
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                             true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceStatusRequest true  "Target Status"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /invoices/{id}/status [patch]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	inv, err := h.invoiceService.UpdateStatus(c.Request.Context(), c.Param("id"), c.GetString("userID"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, inv))
}
