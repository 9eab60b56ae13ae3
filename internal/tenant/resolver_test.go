package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/afsalck/sme-business-suite-sub002/internal/model"
	"github.com/afsalck/sme-business-suite-sub002/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errStoreDown = errors.New("connection refused")

// fakeStore counts persistence calls so tests can assert caching behavior.
type fakeStore struct {
	mappings   map[string]uint
	lookups    int
	created    []string
	nextID     uint
	failLookup bool
	failCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mappings: make(map[string]uint),
		nextID:   100,
	}
}

func (s *fakeStore) FindActiveMapping(_ context.Context, domain string) (*model.DomainMapping, error) {
	s.lookups++
	if s.failLookup {
		return nil, errStoreDown
	}
	if tenantID, ok := s.mappings[domain]; ok {
		return &model.DomainMapping{Domain: domain, TenantID: tenantID, Active: true}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) CreateTenantWithMapping(_ context.Context, domain string) (uint, error) {
	if s.failCreate {
		return 0, errStoreDown
	}
	s.nextID++
	s.mappings[domain] = s.nextID
	s.created = append(s.created, domain)
	return s.nextID, nil
}

func (s *fakeStore) UpsertMapping(_ context.Context, domain string, tenantID uint) error {
	s.mappings[domain] = tenantID
	return nil
}

func (s *fakeStore) DeactivateMapping(_ context.Context, domain string) error {
	if _, ok := s.mappings[domain]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.mappings, domain)
	return nil
}

func (s *fakeStore) DeleteMapping(ctx context.Context, domain string) error {
	return s.DeactivateMapping(ctx, domain)
}

var _ctx = context.Background()

func newTestResolver(store Store, policy config.UnmappedDomainPolicy) *Resolver {
	return NewResolver(store, config.TenantConfig{
		UnmappedDomainPolicy: policy,
		CacheTTL:             5 * time.Minute,
		LookupTimeout:        time.Second,
	}, zap.NewNop())
}

func TestResolveMappedDomain(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7

	r := newTestResolver(store, config.PolicyDefaultFallback)

	tenantID, err := r.Resolve(_ctx, "fatima@acme.ae")
	require.NoError(t, err)
	assert.Equal(t, uint(7), tenantID)
}

func TestResolveIsCaseInsensitive(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7

	r := newTestResolver(store, config.PolicyDefaultFallback)

	tenantID, err := r.Resolve(_ctx, "fatima@ACME.AE")
	require.NoError(t, err)
	assert.Equal(t, uint(7), tenantID)
}

func TestResolveCachesWithinTTL(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7

	r := newTestResolver(store, config.PolicyDefaultFallback)

	_, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)
	tenantID, err := r.Resolve(_ctx, "b@acme.ae")
	require.NoError(t, err)

	assert.Equal(t, uint(7), tenantID)
	assert.Equal(t, 1, store.lookups, "second resolution must be served from cache")
}

func TestResolveCacheExpires(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7

	r := newTestResolver(store, config.PolicyDefaultFallback)

	current := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	_, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)

	current = current.Add(6 * time.Minute)
	_, err = r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)

	assert.Equal(t, 2, store.lookups, "expired cache must re-read persistence")
}

func TestResolveCacheServesStaleWithinTTL(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7

	r := newTestResolver(store, config.PolicyDefaultFallback)

	_, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)

	// Deactivate behind the cache's back; the cache may keep serving the old
	// value until the TTL elapses.
	delete(store.mappings, "acme.ae")

	tenantID, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)
	assert.Equal(t, uint(7), tenantID)
}

func TestAddMappingInvalidatesWholeCache(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7
	store.mappings["globex.ae"] = 8

	r := newTestResolver(store, config.PolicyDefaultFallback)

	_, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)
	_, err = r.Resolve(_ctx, "a@globex.ae")
	require.NoError(t, err)
	require.Equal(t, 2, store.lookups)

	require.NoError(t, r.AddMapping(_ctx, "initech.ae", 9))

	// Both previously cached domains must hit persistence again, not just the
	// one that changed.
	_, err = r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)
	_, err = r.Resolve(_ctx, "a@globex.ae")
	require.NoError(t, err)
	assert.Equal(t, 4, store.lookups)
}

func TestRemoveMappingInvalidatesCache(t *testing.T) {
	store := newFakeStore()
	store.mappings["acme.ae"] = 7

	r := newTestResolver(store, config.PolicyDefaultFallback)

	_, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)
	require.NoError(t, r.RemoveMapping(_ctx, "acme.ae"))

	tenantID, err := r.Resolve(_ctx, "a@acme.ae")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTenantID, tenantID, "removed mapping falls back to default tenant")
	assert.Equal(t, 2, store.lookups)
}

func TestResolveUnmappedDefaultFallback(t *testing.T) {
	r := newTestResolver(newFakeStore(), config.PolicyDefaultFallback)

	tenantID, err := r.Resolve(_ctx, "x@unknown.com")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTenantID, tenantID)
}

func TestResolveUnmappedBlock(t *testing.T) {
	r := newTestResolver(newFakeStore(), config.PolicyBlock)

	_, err := r.Resolve(_ctx, "x@unknown.com")
	assert.ErrorIs(t, err, ErrDomainBlocked)
}

func TestResolveUnmappedAutoCreate(t *testing.T) {
	store := newFakeStore()
	r := newTestResolver(store, config.PolicyAutoCreate)

	tenantID, err := r.Resolve(_ctx, "x@newcorp.ae")
	require.NoError(t, err)
	assert.Equal(t, uint(101), tenantID)
	assert.Equal(t, []string{"newcorp.ae"}, store.created)

	// The provisioned id is cached; a second resolution stays local.
	again, err := r.Resolve(_ctx, "y@newcorp.ae")
	require.NoError(t, err)
	assert.Equal(t, tenantID, again)
	assert.Equal(t, 1, store.lookups)
}

func TestResolveFailOpenOnLookupFailure(t *testing.T) {
	store := newFakeStore()
	store.failLookup = true

	r := newTestResolver(store, config.PolicyDefaultFallback)

	tenantID, err := r.Resolve(_ctx, "x@unknown.com")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTenantID, tenantID)
}

func TestResolveFailClosedUnderBlockPolicy(t *testing.T) {
	store := newFakeStore()
	store.failLookup = true

	r := newTestResolver(store, config.PolicyBlock)

	_, err := r.Resolve(_ctx, "x@unknown.com")
	assert.ErrorIs(t, err, ErrDomainBlocked)
}

func TestResolveFailOpenOnAutoCreateFailure(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true

	r := newTestResolver(store, config.PolicyAutoCreate)

	tenantID, err := r.Resolve(_ctx, "x@newcorp.ae")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultTenantID, tenantID)
}

func TestResolveInvalidEmail(t *testing.T) {
	r := newTestResolver(newFakeStore(), config.PolicyDefaultFallback)

	for _, email := range []string{"", "no-at-sign", "two@@acme.ae", "a@b@c", "trailing@"} {
		_, err := r.Resolve(_ctx, email)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
}
