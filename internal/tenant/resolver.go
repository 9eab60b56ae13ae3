package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/pkg/config"
	"github.com/afsalck/sme-business-suite-sub002/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrDomainBlocked means the resolver could not and should not assign a
	// tenant. Callers must deny authentication without leaking whether the
	// domain exists.
	ErrDomainBlocked = errors.New("tenant: domain rejected")

	// ErrInvalidEmail means the address does not contain exactly one "@".
	ErrInvalidEmail = errors.New("tenant: invalid email address")
)

// Resolver maps an authenticated principal's email domain to a tenant id.
// One resolver is constructed at process start and shared by every request
// handler; the domain cache is the only mutable state it owns.
type Resolver struct {
	store         Store
	policy        config.UnmappedDomainPolicy
	cache         *domainCache
	lookupTimeout time.Duration
	log           *zap.Logger
	now           func() time.Time
}

func NewResolver(store Store, cfg config.TenantConfig, log *zap.Logger) *Resolver {
	return &Resolver{
		store:         store,
		policy:        cfg.UnmappedDomainPolicy,
		cache:         newDomainCache(cfg.CacheTTL),
		lookupTimeout: cfg.LookupTimeout,
		log:           log,
		now:           time.Now,
	}
}

// Resolve returns the tenant id the request's data should be scoped to.
//
// Persistence failures degrade to the default tenant (fail open) so a flaky
// database never locks normal tenants out. The one exception is the Block
// policy, where a lookup failure is treated as rejection: when blocking is
// enabled, denial of spoofed domains takes priority over availability.
func (r *Resolver) Resolve(ctx context.Context, email string) (uint, error) {
	domain, err := domainOf(email)
	if err != nil {
		return 0, err
	}

	if tenantID, ok := r.cache.get(domain, r.now()); ok {
		prometheus.RecordResolution("cache_hit")
		return tenantID, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	mapping, err := r.store.FindActiveMapping(lookupCtx, domain)
	switch {
	case err == nil:
		r.cacheAndGauge(domain, mapping.TenantID)
		prometheus.RecordResolution("mapped")
		return mapping.TenantID, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.resolveUnmapped(ctx, domain)

	default:
		// Transient lookup failure.
		if r.policy == config.PolicyBlock {
			r.log.Warn("tenant lookup failed under block policy, rejecting",
				zap.String("domain", domain), zap.Error(err))
			prometheus.RecordResolution("rejected")
			return 0, ErrDomainBlocked
		}
		r.log.Error("tenant lookup failed, falling back to default tenant",
			zap.String("domain", domain), zap.Error(err))
		prometheus.RecordResolution("fail_open")
		return model.DefaultTenantID, nil
	}
}

func (r *Resolver) resolveUnmapped(ctx context.Context, domain string) (uint, error) {
	switch r.policy {
	case config.PolicyBlock:
		r.log.Info("rejected unmapped domain", zap.String("domain", domain))
		prometheus.RecordResolution("rejected")
		return 0, ErrDomainBlocked

	case config.PolicyAutoCreate:
		tenantID, err := r.store.CreateTenantWithMapping(ctx, domain)
		if err != nil {
			r.log.Error("tenant auto-provisioning failed, falling back to default tenant",
				zap.String("domain", domain), zap.Error(err))
			prometheus.RecordResolution("fail_open")
			return model.DefaultTenantID, nil
		}
		r.log.Info("auto-provisioned tenant for domain",
			zap.String("domain", domain), zap.Uint("tenant_id", tenantID))
		r.cacheAndGauge(domain, tenantID)
		prometheus.RecordResolution("auto_created")
		return tenantID, nil

	default: // config.PolicyDefaultFallback
		prometheus.RecordResolution("default_fallback")
		return model.DefaultTenantID, nil
	}
}

// AddMapping upserts an active mapping and clears the cache.
func (r *Resolver) AddMapping(ctx context.Context, domain string, tenantID uint) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return ErrInvalidEmail
	}
	if err := r.store.UpsertMapping(ctx, domain, tenantID); err != nil {
		return err
	}
	r.invalidateCache()
	prometheus.DomainMappingOperationCounter.WithLabelValues("add").Inc()
	return nil
}

// RemoveMapping deactivates a mapping and clears the cache.
func (r *Resolver) RemoveMapping(ctx context.Context, domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if err := r.store.DeactivateMapping(ctx, domain); err != nil {
		return err
	}
	r.invalidateCache()
	prometheus.DomainMappingOperationCounter.WithLabelValues("remove").Inc()
	return nil
}

func (r *Resolver) cacheAndGauge(domain string, tenantID uint) {
	r.cache.set(domain, tenantID, r.now())
	prometheus.CachedDomainsGauge.Set(float64(r.cache.size()))
}

func (r *Resolver) invalidateCache() {
	r.cache.invalidate()
	prometheus.CachedDomainsGauge.Set(0)
}

// domainOf extracts the lower-cased domain portion of an email address. The
// address must contain exactly one "@" with a non-empty domain.
func domainOf(email string) (string, error) {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[1] == "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(parts[1]), nil
}
