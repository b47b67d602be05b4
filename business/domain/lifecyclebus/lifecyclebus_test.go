package lifecyclebus_test

import (
	"context"
	"errors"
	"io"
	"net/mail"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus/stores/featurecache"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus/stores/identitylocal"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus/stores/membermem"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus/stores/tenantmem"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/usermem"
	"github.com/jcpaschoal/crm-tenancy/business/types/features"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/business/types/role"
	"github.com/jcpaschoal/crm-tenancy/business/types/slug"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/stretchr/testify/require"
)

var errInjected = errors.New("injected failure")

// faultyIdentities fails selected identity store calls on demand.
type faultyIdentities struct {
	identitybus.Storer

	mu         sync.Mutex
	failCreate bool
	failUpdate bool
	lateCreate time.Duration
	failDelete map[uuid.UUID]bool
	deletes    []uuid.UUID
}

func (s *faultyIdentities) Create(ctx context.Context, ni identitybus.NewIdentity) (identitybus.Identity, error) {
	s.mu.Lock()
	fail, late := s.failCreate, s.lateCreate
	s.mu.Unlock()

	if fail {
		return identitybus.Identity{}, errInjected
	}

	idn, err := s.Storer.Create(ctx, ni)
	if err != nil {
		return identitybus.Identity{}, err
	}

	// The account is written but the reply arrives after the deadline.
	time.Sleep(late)

	return idn, nil
}

func (s *faultyIdentities) Update(ctx context.Context, id uuid.UUID, ui identitybus.UpdateIdentity) (identitybus.Identity, error) {
	s.mu.Lock()
	fail := s.failUpdate
	s.mu.Unlock()

	if fail {
		return identitybus.Identity{}, errInjected
	}
	return s.Storer.Update(ctx, id, ui)
}

func (s *faultyIdentities) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, id)
	fail := s.failDelete[id]
	s.mu.Unlock()

	if fail {
		return errInjected
	}
	return s.Storer.Delete(ctx, id)
}

// faultyMembers fails membership writes on demand.
type faultyMembers struct {
	memberbus.Storer

	failCreate bool
	failUpsert bool
	slowCreate time.Duration
}

func (s *faultyMembers) Create(ctx context.Context, m memberbus.Membership) error {
	if s.slowCreate > 0 {
		select {
		case <-time.After(s.slowCreate):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.failCreate {
		return errInjected
	}
	return s.Storer.Create(ctx, m)
}

func (s *faultyMembers) Upsert(ctx context.Context, m memberbus.Membership) error {
	if s.failUpsert {
		return errInjected
	}
	return s.Storer.Upsert(ctx, m)
}

type harness struct {
	core       *lifecyclebus.Core
	tenants    *tenantbus.Core
	members    *memberbus.Core
	identities *identitybus.Core
	features   *featurebus.Core
	idStore    *faultyIdentities
	memStore   *faultyMembers
	super      policybus.Caller
}

func newHarness(t *testing.T, opts ...lifecyclebus.Option) *harness {
	t.Helper()

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	policy, err := policybus.NewCore(log)
	require.NoError(t, err)

	tmem := tenantmem.NewStore()
	tenantBus := tenantbus.NewCore(log, tmem)

	memStore := &faultyMembers{Storer: membermem.NewStore()}
	memberBus := memberbus.NewCore(log, memStore)

	userBus := userbus.NewCore(log, usermem.NewStore())
	idStore := &faultyIdentities{Storer: identitylocal.NewStore(userBus), failDelete: map[uuid.UUID]bool{}}
	identityBus := identitybus.NewCore(log, idStore)

	featureBus := featurebus.NewCore(log, featurecache.NewStore(log, tmem, time.Minute))

	core := lifecyclebus.NewCore(log, policy, tenantBus, memberBus, identityBus, featureBus, opts...)

	h := harness{
		core:       core,
		tenants:    tenantBus,
		members:    memberBus,
		identities: identityBus,
		features:   featureBus,
		idStore:    idStore,
		memStore:   memStore,
	}

	m, err := core.SeedSuperAdmin(context.Background(), name.MustParse("Root"), email("root@crm.test"), password.MustParse("r00t!"))
	require.NoError(t, err)

	h.super = policybus.Caller{PrincipalID: m.PrincipalID, Role: role.SuperAdmin}

	return &h
}

func email(s string) mail.Address {
	return mail.Address{Address: s}
}

func primeRealty() lifecyclebus.NewTenant {
	return lifecyclebus.NewTenant{
		Name:          name.MustParse("Prime Realty"),
		Slug:          slug.MustParse("prime-realty"),
		AdminName:     name.MustParse("Ana Admin"),
		AdminEmail:    email("ana@prime.test"),
		AdminPassword: password.MustParse("Adm1n!pass"),
	}
}

// adminOf logs in as the tenant administrator created by primeRealty.
func (h *harness) adminOf(t *testing.T) policybus.Caller {
	t.Helper()

	c, err := h.core.Login(context.Background(), email("ana@prime.test"), "Adm1n!pass")
	require.NoError(t, err)

	return c
}

func (h *harness) tenantCount(t *testing.T) int {
	t.Helper()

	n, err := h.tenants.Count(context.Background(), tenantbus.QueryFilter{})
	require.NoError(t, err)

	return n
}

func (h *harness) identityExists(t *testing.T, addr string) bool {
	t.Helper()

	_, err := h.identities.QueryByEmail(context.Background(), email(addr))
	if errors.Is(err, identitybus.ErrNotFound) {
		return false
	}
	require.NoError(t, err)

	return true
}

func ptr[T any](v T) *T {
	return &v
}

func enabled() features.Config {
	return features.Config{WhatsApp: ptr(true), Provider: ptr(features.ProviderEvolution)}
}
