package handler

import (
	"net/http"

	"fieldops/internal/middleware"
	"fieldops/internal/service"
	"fieldops/internal/workflow"
	"fieldops/pkg/response"

	"github.com/gin-gonic/gin"
)

// MaintenanceHandler exposes the periodic document sweeps as explicit
// endpoints so an external scheduler (cron, systemd timer) can drive them.
type MaintenanceHandler struct {
	poService      service.PurchaseOrderService
	invoiceService service.InvoiceService
	authz          middleware.RoleChecker
}

func NewMaintenanceHandler(poService service.PurchaseOrderService, invoiceService service.InvoiceService, authz middleware.RoleChecker) *MaintenanceHandler {
	return &MaintenanceHandler{poService: poService, invoiceService: invoiceService, authz: authz}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	maintenance := router.Group("/maintenance", middleware.RequireCurrentRole(h.authz, workflow.RoleManager, workflow.RoleAdmin))
	{
		maintenance.POST("/sweep/purchase-orders", h.SweepPurchaseOrders)
		maintenance.POST("/sweep/invoices", h.SweepInvoices)
	}
}

// SweepPurchaseOrders handles POST /maintenance/sweep/purchase-orders
// @Summary      Expire lapsed purchase orders
// @Description  Marks APPROVED purchase orders past their expiry date as EXPIRED
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /maintenance/sweep/purchase-orders [post]
func (h *MaintenanceHandler) SweepPurchaseOrders(c *gin.Context) {
	expired, err := h.poService.SweepExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Purchase order sweep failed"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"expired": expired}))
}

// SweepInvoices handles POST /maintenance/sweep/invoices
// @Summary      Flag overdue invoices
// @Description  Marks ISSUED invoices past their due date as OVERDUE
// @Tags         maintenance
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /maintenance/sweep/invoices [post]
func (h *MaintenanceHandler) SweepInvoices(c *gin.Context) {
	flagged, err := h.invoiceService.SweepOverdue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Invoice sweep failed"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"flagged": flagged}))
}
