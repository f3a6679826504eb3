package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/service"
)

// InvoiceHandler handles invoice related cron jobs
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

// NewInvoiceHandler creates a new invoice cron handler
func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// MarkOverdueInvoices flags open invoices whose due date has passed. Wired to
// an external scheduler hitting the cron route group.
func (h *InvoiceHandler) MarkOverdueInvoices(c *gin.Context) {
	flagged, err := h.invoiceService.MarkOverdueInvoices(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoices_flagged": flagged,
	})
}
