package handler

import (
	"net/http"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/billing"
	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InvoiceHandler exposes the invoice endpoints. Totals are always computed
// server-side by the billing package; amounts submitted by the client are
// ignored.
type InvoiceHandler struct {
	db *gorm.DB
}

func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{db: db}
}

type invoiceItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Discount    float64 `json:"discount"`
	VATRate     float64 `json:"vat_rate"`
}

type invoiceRequest struct {
	Number       string               `json:"number"`
	CustomerName string               `json:"customer_name"`
	DueDate      *time.Time           `json:"due_date,omitempty"`
	Discount     float64              `json:"discount"`
	Items        []invoiceItemRequest `json:"items"`
}

// Create stores an invoice with computed totals.
func (h *InvoiceHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req invoiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Number == "" || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "number and items are required"})
	}

	lineItems := make([]billing.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		lineItems = append(lineItems, billing.LineItem{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
			VATRate:   item.VATRate,
		})
	}
	totals := billing.ComputeOrder(lineItems, req.Discount, billing.DefaultVATRate)

	invoice := model.Invoice{
		TenantID:     tenantID,
		Number:       req.Number,
		CustomerName: req.CustomerName,
		Status:       model.InvoiceDraft,
		DueDate:      req.DueDate,
		Discount:     req.Discount,
		Subtotal:     totals.Subtotal,
		VATAmount:    totals.VATAmount,
		GrandTotal:   totals.GrandTotal,
	}
	for i, item := range req.Items {
		invoice.Items = append(invoice.Items, model.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			VATRate:     item.VATRate,
			VATAmount:   totals.Lines[i].VATAmount,
			LineTotal:   totals.Lines[i].Total,
		})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if err := h.db.WithContext(c.Request().Context()).Create(&invoice).Error; err != nil {
		log.Error("Failed to create invoice", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invoice creation failed"})
	}

	log.Info("Invoice created",
		zap.Uint("id", invoice.ID),
		zap.String("number", invoice.Number),
		zap.Float64("grand_total", invoice.GrandTotal))
	return c.JSON(http.StatusCreated, invoice)
}

// List returns the caller's tenant's invoices.
func (h *InvoiceHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var invoices []model.Invoice
	if err := h.db.WithContext(c.Request().Context()).
		Preload("Items").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, invoices)
}
