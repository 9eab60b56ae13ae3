package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/internal/notification"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmployeeHandler exposes the HR employee endpoints. Writes trigger the
// immediate document-expiry check so a near-term passport or visa expiry
// surfaces right away.
type EmployeeHandler struct {
	db     *gorm.DB
	engine *notification.Engine
}

func NewEmployeeHandler(db *gorm.DB, engine *notification.Engine) *EmployeeHandler {
	return &EmployeeHandler{db: db, engine: engine}
}

type employeeRequest struct {
	Name            string     `json:"name"`
	Email           string     `json:"email,omitempty"`
	Position        string     `json:"position,omitempty"`
	PassportNumber  string     `json:"passport_number,omitempty"`
	PassportExpiry  *time.Time `json:"passport_expiry,omitempty"`
	VisaNumber      string     `json:"visa_number,omitempty"`
	VisaExpiry      *time.Time `json:"visa_expiry,omitempty"`
	ContractEndDate *time.Time `json:"contract_end_date,omitempty"`
	ContractActive  *bool      `json:"contract_active,omitempty"`
}

// Create adds an employee to the caller's tenant.
func (h *EmployeeHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req employeeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	emp := model.Employee{
		TenantID:        tenantID,
		Name:            req.Name,
		Email:           req.Email,
		Position:        req.Position,
		PassportNumber:  req.PassportNumber,
		PassportExpiry:  req.PassportExpiry,
		VisaNumber:      req.VisaNumber,
		VisaExpiry:      req.VisaExpiry,
		ContractEndDate: req.ContractEndDate,
		ContractActive:  req.ContractActive == nil || *req.ContractActive,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&emp).Error; err != nil {
		log.Error("Failed to create employee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "employee creation failed"})
	}

	// The write has succeeded; a failing expiry check must not change that.
	h.engine.CheckEmployeeExpiries(c.Request().Context(), &emp)

	log.Info("Employee created", zap.Uint("id", emp.ID), zap.Uint("tenant_id", tenantID))
	return c.JSON(http.StatusCreated, emp)
}

// Update modifies an employee within the caller's tenant.
func (h *EmployeeHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid employee ID"})
	}

	var emp model.Employee
	if err := h.db.WithContext(c.Request().Context()).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&emp).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "employee not found"})
	}

	var req employeeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name != "" {
		emp.Name = req.Name
	}
	if req.Email != "" {
		emp.Email = req.Email
	}
	if req.Position != "" {
		emp.Position = req.Position
	}
	if req.PassportNumber != "" {
		emp.PassportNumber = req.PassportNumber
	}
	if req.PassportExpiry != nil {
		emp.PassportExpiry = req.PassportExpiry
	}
	if req.VisaNumber != "" {
		emp.VisaNumber = req.VisaNumber
	}
	if req.VisaExpiry != nil {
		emp.VisaExpiry = req.VisaExpiry
	}
	if req.ContractEndDate != nil {
		emp.ContractEndDate = req.ContractEndDate
	}
	if req.ContractActive != nil {
		emp.ContractActive = *req.ContractActive
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	if err := h.db.WithContext(c.Request().Context()).Save(&emp).Error; err != nil {
		log.Error("Failed to update employee", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "employee update failed"})
	}

	h.engine.CheckEmployeeExpiries(c.Request().Context(), &emp)

	return c.JSON(http.StatusOK, emp)
}

// List returns the caller's tenant's employees.
func (h *EmployeeHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	tenantID, ok := c.Get("tenant_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var employees []model.Employee
	if err := h.db.WithContext(c.Request().Context()).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&employees).Error; err != nil {
		log.Error("Failed to list employees", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve employees"})
	}

	return c.JSON(http.StatusOK, employees)
}
