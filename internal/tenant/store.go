package tenant

import (
	"context"
	"fmt"
	"strings"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"gorm.io/gorm"
)

// Store is the persistence surface the resolver depends on. gorm.ErrRecordNotFound
// signals an unmapped domain; any other error is a transient lookup failure.
type Store interface {
	FindActiveMapping(ctx context.Context, domain string) (*model.DomainMapping, error)
	CreateTenantWithMapping(ctx context.Context, domain string) (uint, error)
	UpsertMapping(ctx context.Context, domain string, tenantID uint) error
	DeactivateMapping(ctx context.Context, domain string) error
	DeleteMapping(ctx context.Context, domain string) error
}

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FindActiveMapping(ctx context.Context, domain string) (*model.DomainMapping, error) {
	var mapping model.DomainMapping
	err := s.db.WithContext(ctx).
		Where("domain = ? AND active = ?", domain, true).
		First(&mapping).Error
	if err != nil {
		return nil, err
	}
	return &mapping, nil
}

// CreateTenantWithMapping atomically provisions a new tenant for an
// unrecognized domain and maps the domain to it. The new tenant id is the
// largest existing id plus one.
func (s *GormStore) CreateTenantWithMapping(ctx context.Context, domain string) (uint, error) {
	var tenantID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID uint
		if err := tx.Model(&model.Tenant{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return err
		}

		tenant := model.Tenant{
			ID:   maxID + 1,
			Name: tenantNameFromDomain(domain),
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		mapping := model.DomainMapping{
			Domain:   domain,
			TenantID: tenant.ID,
			Active:   true,
		}
		if err := tx.Create(&mapping).Error; err != nil {
			return err
		}

		tenantID = tenant.ID
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("auto-create tenant for domain %s: %w", domain, err)
	}
	return tenantID, nil
}

func (s *GormStore) UpsertMapping(ctx context.Context, domain string, tenantID uint) error {
	var existing model.DomainMapping
	err := s.db.WithContext(ctx).Where("domain = ?", domain).First(&existing).Error
	switch {
	case err == nil:
		existing.TenantID = tenantID
		existing.Active = true
		return s.db.WithContext(ctx).Save(&existing).Error
	case err == gorm.ErrRecordNotFound:
		mapping := model.DomainMapping{Domain: domain, TenantID: tenantID, Active: true}
		return s.db.WithContext(ctx).Create(&mapping).Error
	default:
		return err
	}
}

func (s *GormStore) DeactivateMapping(ctx context.Context, domain string) error {
	result := s.db.WithContext(ctx).
		Model(&model.DomainMapping{}).
		Where("domain = ?", domain).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *GormStore) DeleteMapping(ctx context.Context, domain string) error {
	result := s.db.WithContext(ctx).Where("domain = ?", domain).Delete(&model.DomainMapping{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// tenantNameFromDomain derives a display name for auto-provisioned tenants,
// e.g. "acme.ae" -> "Acme".
func tenantNameFromDomain(domain string) string {
	name := domain
	if i := strings.Index(domain, "."); i > 0 {
		name = domain[:i]
	}
	if name == "" {
		return domain
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
