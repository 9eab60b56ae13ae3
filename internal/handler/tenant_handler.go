package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/internal/tenant"
	"github.com/afsalck/sme-business-suite-sub002/pkg/logger"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TenantHandler exposes administrative tenant and domain-mapping endpoints.
type TenantHandler struct {
	resolver *tenant.Resolver
	db       *gorm.DB
}

func NewTenantHandler(resolver *tenant.Resolver, db *gorm.DB) *TenantHandler {
	return &TenantHandler{resolver: resolver, db: db}
}

// CreateTenant creates a tenant explicitly (as opposed to auto-provisioning
// on first login from an unmapped domain).
func (h *TenantHandler) CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name     string `json:"name"`
		ShopName string `json:"shop_name,omitempty"`
		Email    string `json:"email,omitempty"`
		Phone    string `json:"phone,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	t := model.Tenant{
		Name:     req.Name,
		ShopName: req.ShopName,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&t).Error; err != nil {
		log.Error("Failed to create tenant", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	log.Info("Tenant created", zap.String("name", t.Name), zap.Uint("id", t.ID))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  t,
	})
}

// AddDomainMapping upserts an active mapping for an email domain and clears
// the resolver cache.
func (h *TenantHandler) AddDomainMapping(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Domain   string `json:"domain"`
		TenantID uint   `json:"tenant_id"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Domain == "" || req.TenantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "domain and tenant_id are required"})
	}

	// The mapping must point at a real tenant.
	var t model.Tenant
	if err := h.db.WithContext(c.Request().Context()).First(&t, req.TenantID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	if err := h.resolver.AddMapping(c.Request().Context(), req.Domain, req.TenantID); err != nil {
		if errors.Is(err, tenant.ErrInvalidEmail) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid domain"})
		}
		log.Error("Failed to add domain mapping",
			zap.String("domain", req.Domain), zap.Uint("tenant_id", req.TenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to add domain mapping"})
	}

	log.Info("Domain mapping added", zap.String("domain", req.Domain), zap.Uint("tenant_id", req.TenantID))
	return c.JSON(http.StatusCreated, echo.Map{"message": "domain mapping added"})
}

// RemoveDomainMapping deactivates a mapping and clears the resolver cache.
func (h *TenantHandler) RemoveDomainMapping(c echo.Context) error {
	log := logger.FromContext(c)

	domain := c.Param("domain")
	if domain == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "domain is required"})
	}

	if err := h.resolver.RemoveMapping(c.Request().Context(), domain); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "domain mapping not found"})
		}
		log.Error("Failed to remove domain mapping", zap.String("domain", domain), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove domain mapping"})
	}

	log.Info("Domain mapping removed", zap.String("domain", domain))
	return c.JSON(http.StatusOK, echo.Map{"message": "domain mapping removed"})
}

// ListDomainMappings returns every mapping, active or not.
func (h *TenantHandler) ListDomainMappings(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())

	var mappings []model.DomainMapping
	if err := h.db.WithContext(c.Request().Context()).Order("domain").Find(&mappings).Error; err != nil {
		log.Error("Failed to list domain mappings", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve domain mappings"})
	}

	return c.JSON(http.StatusOK, mappings)
}
