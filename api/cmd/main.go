package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"io/fs"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jcpaschoal/crm-tenancy/api/cmd/build/all"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/auth"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/buses"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mid"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/mux"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus/stores/identitygotrue"
	"github.com/jcpaschoal/crm-tenancy/business/domain/lifecyclebus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/idempotency"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/migrate"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/business/types/name"
	"github.com/jcpaschoal/crm-tenancy/business/types/password"
	"github.com/jcpaschoal/crm-tenancy/foundation/keystore"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
)

var build = "develop"

// Config holds the service settings. Every field is read from the
// environment, optionally seeded from a .env file.
type Config struct {
	Version struct {
		Build string `json:"build"`
		Desc  string `json:"desc"`
	} `json:"version"`

	Web struct {
		ReadTimeout        time.Duration `envconfig:"WEB_READ_TIMEOUT" default:"5s"`
		WriteTimeout       time.Duration `envconfig:"WEB_WRITE_TIMEOUT" default:"30s"`
		IdleTimeout        time.Duration `envconfig:"WEB_IDLE_TIMEOUT" default:"120s"`
		ShutdownTimeout    time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"20s"`
		APIHost            string        `envconfig:"WEB_API_HOST" default:"0.0.0.0:3000"`
		CORSAllowedOrigins []string      `envconfig:"WEB_CORS_ALLOWED_ORIGINS" default:"*"`
	}
	Auth struct {
		KeysFolder string        `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
		ActiveKID  string        `envconfig:"AUTH_ACTIVE_KID" default:"54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"`
		Issuer     string        `envconfig:"AUTH_ISSUER" default:"crm-tenancy"`
		TokenTTL   time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"8h"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"crm"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
		Disabled     bool   `envconfig:"DB_DISABLED" default:"false"`
	}
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}
	Login struct {
		Rate string `envconfig:"LOGIN_RATE" default:"10-M"`
	}
	Identity struct {
		Provider         string        `envconfig:"IDENTITY_PROVIDER" default:"local"`
		GoTrueURL        string        `envconfig:"GOTRUE_URL"`
		GoTrueServiceKey string        `envconfig:"GOTRUE_SERVICE_KEY"`
		GoTrueTimeout    time.Duration `envconfig:"GOTRUE_TIMEOUT" default:"5s"`
		UserCacheTTL     time.Duration `envconfig:"USER_CACHE_TTL" default:"5m"`
	}
	Policy struct {
		AdminsManageFeatures bool `envconfig:"POLICY_ADMINS_MANAGE_FEATURES" default:"false"`
	}
	Lifecycle struct {
		StepTimeout time.Duration `envconfig:"LIFECYCLE_STEP_TIMEOUT" default:"10s"`
	}
	Feature struct {
		CacheTTL time.Duration `envconfig:"FEATURE_CACHE_TTL" default:"1m"`
	}
	Idempotency struct {
		TTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	}
	Seed struct {
		SuperAdminName     string `envconfig:"SEED_SUPER_ADMIN_NAME" default:"Platform Operator"`
		SuperAdminEmail    string `envconfig:"SEED_SUPER_ADMIN_EMAIL"`
		SuperAdminPassword string `envconfig:"SEED_SUPER_ADMIN_PASSWORD"`
	}
	Tempo struct {
		Host        string  `envconfig:"TEMPO_HOST"`
		ServiceName string  `envconfig:"TEMPO_SERVICE_NAME" default:"crm-tenancy"`
		Probability float64 `envconfig:"TEMPO_PROBABILITY" default:"0.05"`
	}
}

func main() {
	var log *logger.Logger

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "CRM-TENANCY", otel.GetTraceID, events)

	// -------------------------------------------------------------------------

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	cfg.Version.Build = build
	cfg.Version.Desc = "CRM tenancy service"

	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	// -------------------------------------------------------------------------
	// App Starting

	log.Info(ctx, "starting service", "version", cfg.Version.Build)
	defer log.Info(ctx, "shutdown complete")

	log.Info(ctx, "startup", "config", sanitizeConfig(cfg))

	log.BuildInfo(ctx)

	expvar.NewString("build").Set(cfg.Version.Build)

	// -------------------------------------------------------------------------
	// Database Support

	var db *sqlx.DB

	switch cfg.DB.Disabled {
	case true:
		log.Info(ctx, "startup", "status", "database disabled, using in-memory stores")

	default:
		log.Info(ctx, "startup", "status", "initializing database support", "hostport", cfg.DB.Host)

		var err error
		db, err = sqldb.Open(sqldb.Config{
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			Host:         cfg.DB.Host,
			Name:         cfg.DB.Name,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			DisableTLS:   cfg.DB.DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}

		defer db.Close()

		version, dirty, err := migrate.Version(db)
		switch {
		case err != nil:
			log.Warn(ctx, "startup", "status", "schema version unknown", "err", err)
		case dirty:
			log.Warn(ctx, "startup", "status", "schema is dirty", "version", version)
		default:
			log.Info(ctx, "startup", "status", "schema", "version", version)
		}
	}

	// -------------------------------------------------------------------------
	// Redis Support

	var rdb *redis.Client
	var idem *idempotency.Store

	if cfg.Redis.Addr != "" {
		log.Info(ctx, "startup", "status", "initializing redis support", "addr", cfg.Redis.Addr)

		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		idem = idempotency.NewStore(log, rdb, "crm:idem:", cfg.Idempotency.TTL)
	}

	loginLimiter, err := mid.NewLimiter(cfg.Login.Rate, "crm:login:", rdb)
	if err != nil {
		return fmt.Errorf("login limiter: %w", err)
	}

	// -------------------------------------------------------------------------
	// Business Support

	b, err := buses.New(buses.Config{
		Log:              log,
		DB:               db,
		IdentityProvider: cfg.Identity.Provider,
		GoTrue: identitygotrue.Config{
			BaseURL:    cfg.Identity.GoTrueURL,
			ServiceKey: cfg.Identity.GoTrueServiceKey,
			Timeout:    cfg.Identity.GoTrueTimeout,
		},
		IdentityCallTimeout:  cfg.Identity.GoTrueTimeout,
		UserCacheTTL:         cfg.Identity.UserCacheTTL,
		FeatureCacheTTL:      cfg.Feature.CacheTTL,
		StepTimeout:          cfg.Lifecycle.StepTimeout,
		AdminsManageFeatures: cfg.Policy.AdminsManageFeatures,
	})
	if err != nil {
		return fmt.Errorf("constructing business cores: %w", err)
	}

	if err := seedSuperAdmin(ctx, log, b.Lifecycle, cfg); err != nil {
		return fmt.Errorf("seeding super admin: %w", err)
	}

	// -------------------------------------------------------------------------
	// Auth Support

	log.Info(ctx, "startup", "status", "initializing authentication support")

	ks := keystore.New()

	if _, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder)); err != nil {
		return fmt.Errorf("loading keys: %w", err)
	}

	authClient := auth.New(auth.Config{
		Log:       log,
		KeyLookup: ks,
		ActiveKID: cfg.Auth.ActiveKID,
		Issuer:    cfg.Auth.Issuer,
		TTL:       cfg.Auth.TokenTTL,
	})

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
		Probability: cfg.Tempo.Probability,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer teardown(context.Background())

	tracer := traceProvider.Tracer(cfg.Tempo.ServiceName)

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing V1 API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	cfgMux := mux.Config{
		Build:        cfg.Version.Build,
		Log:          log,
		DB:           db,
		Tracer:       tracer,
		Auth:         authClient,
		LoginLimiter: loginLimiter,
		Idempotency:  idem,
		BusConfig: mux.BusConfig{
			Lifecycle: b.Lifecycle,
		},
	}

	webAPI := mux.WebAPI(cfgMux,
		buildRoutes(),
		mux.WithCORS(cfg.Web.CORSAllowedOrigins),
	)

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      webAPI,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func buildRoutes() mux.RouteAdder {
	return all.Routes()
}

// seedSuperAdmin creates the configured super admin when the identity
// store does not know the address yet. It lets the in-memory mode be used
// without the admin tool.
func seedSuperAdmin(ctx context.Context, log *logger.Logger, lifecycle *lifecyclebus.Core, cfg Config) error {
	if cfg.Seed.SuperAdminEmail == "" {
		return nil
	}

	addr, err := mail.ParseAddress(cfg.Seed.SuperAdminEmail)
	if err != nil {
		return fmt.Errorf("parse email: %w", err)
	}

	nme, err := name.Parse(cfg.Seed.SuperAdminName)
	if err != nil {
		return fmt.Errorf("parse name: %w", err)
	}

	pass, err := password.Parse(cfg.Seed.SuperAdminPassword)
	if err != nil {
		return fmt.Errorf("parse password: %w", err)
	}

	if _, err := lifecycle.SeedSuperAdmin(ctx, nme, *addr, pass); err != nil {
		if errors.Is(err, lifecyclebus.ErrSuperAdminExists) || errors.Is(err, identitybus.ErrEmailExists) {
			log.Info(ctx, "startup", "status", "super admin already present", "email", addr.Address)
			return nil
		}
		return err
	}

	return nil
}

func sanitizeConfig(cfg Config) string {
	cfg.DB.Password = "[MASKED]"
	cfg.Redis.Password = "[MASKED]"
	cfg.Identity.GoTrueServiceKey = "[MASKED]"
	cfg.Seed.SuperAdminPassword = "[MASKED]"

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(data)
}
