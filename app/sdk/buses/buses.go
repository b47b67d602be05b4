// Package buses constructs the business cores for a binary, choosing the
// Postgres or in-memory stores and the identity provider.
package buses

import (
	"fmt"
	"time"

	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/featurebus/stores/featurecache"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus/stores/identitygotrue"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus/stores/identitylocal"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus/stores/memberdb"
	"github.com/jcpaschoal/crm-tenancy/business/domain/memberbus/stores/membermem"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus/stores/tenantdb"
	"github.com/jcpaschoal/crm-tenancy/business/domain/tenantbus/stores/tenantmem"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/crm-tenancy/business/domain/userbus/stores/usermem"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Identity providers.
const (
	ProviderLocal  = "local"
	ProviderGoTrue = "gotrue"
)

// Cache lifetimes used when the config leaves them unset.
const (
	DefaultUserCacheTTL    = 5 * time.Minute
	DefaultFeatureCacheTTL = time.Minute
)

// Config holds what is needed to construct the cores. A nil DB selects the
// in-memory stores.
type Config struct {
	Log                  *logger.Logger
	DB                   *sqlx.DB
	IdentityProvider     string
	GoTrue               identitygotrue.Config
	IdentityCallTimeout  time.Duration
	UserCacheTTL         time.Duration
	FeatureCacheTTL      time.Duration
	StepTimeout          time.Duration
	AdminsManageFeatures bool
}

// Buses holds the constructed cores.
type Buses struct {
	Tenant    *tenantbus.Core
	Member    *memberbus.Core
	Identity  *identitybus.Core
	Feature   *featurebus.Core
	Policy    *policybus.Core
	Lifecycle *lifecyclebus.Core
}

type tenantStorer interface {
	tenantbus.Storer
	featurebus.Storer
}

// New constructs the cores described by cfg.
func New(cfg Config) (Buses, error) {
	if cfg.UserCacheTTL <= 0 {
		cfg.UserCacheTTL = DefaultUserCacheTTL
	}
	if cfg.FeatureCacheTTL <= 0 {
		cfg.FeatureCacheTTL = DefaultFeatureCacheTTL
	}

	var (
		tenantStore tenantStorer
		memberStore memberbus.Storer
		userStore   userbus.Storer
	)

	switch cfg.DB {
	case nil:
		tenantStore = tenantmem.NewStore()
		memberStore = membermem.NewStore()
		userStore = usermem.NewStore()

	default:
		tenantStore = tenantdb.NewStore(cfg.Log, cfg.DB)
		memberStore = memberdb.NewStore(cfg.Log, cfg.DB)
		userStore = usercache.NewStore(cfg.Log, userdb.NewStore(cfg.Log, cfg.DB), cfg.UserCacheTTL)
	}

	var identityStore identitybus.Storer

	switch cfg.IdentityProvider {
	case ProviderLocal, "":
		identityStore = identitylocal.NewStore(userbus.NewCore(cfg.Log, userStore))

	case ProviderGoTrue:
		if cfg.GoTrue.BaseURL == "" {
			return Buses{}, fmt.Errorf("identity provider %q needs a base url", cfg.IdentityProvider)
		}
		identityStore = identitygotrue.NewStore(cfg.Log, cfg.GoTrue)

	default:
		return Buses{}, fmt.Errorf("unknown identity provider %q", cfg.IdentityProvider)
	}

	policy, err := policybus.NewCore(cfg.Log, policybus.WithAdminsManageFeatures(cfg.AdminsManageFeatures))
	if err != nil {
		return Buses{}, fmt.Errorf("policy: %w", err)
	}

	var identityOpts []identitybus.Option
	if cfg.IdentityCallTimeout > 0 {
		identityOpts = append(identityOpts, identitybus.WithCallTimeout(cfg.IdentityCallTimeout))
	}

	b := Buses{
		Tenant:   tenantbus.NewCore(cfg.Log, tenantStore),
		Member:   memberbus.NewCore(cfg.Log, memberStore),
		Identity: identitybus.NewCore(cfg.Log, identityStore, identityOpts...),
		Feature:  featurebus.NewCore(cfg.Log, featurecache.NewStore(cfg.Log, tenantStore, cfg.FeatureCacheTTL)),
		Policy:   policy,
	}

	var opts []lifecyclebus.Option
	if cfg.StepTimeout > 0 {
		opts = append(opts, lifecyclebus.WithStepTimeout(cfg.StepTimeout))
	}
	if cfg.DB != nil {
		opts = append(opts, lifecyclebus.WithBeginner(sqldb.NewBeginner(cfg.DB)))
	}

	b.Lifecycle = lifecyclebus.NewCore(cfg.Log, b.Policy, b.Tenant, b.Member, b.Identity, b.Feature, opts...)

	return b, nil
}
