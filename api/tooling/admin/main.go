// This program performs administrative tasks for the crm tenancy service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/jcpaschoal/crm-tenancy/api/tooling/admin/commands"
	"github.com/jcpaschoal/crm-tenancy/app/sdk/buses"
	"github.com/jcpaschoal/crm-tenancy/business/domain/identitybus/stores/identitygotrue"
	"github.com/jcpaschoal/crm-tenancy/business/domain/policybus"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
	"github.com/jcpaschoal/crm-tenancy/foundation/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
)

type config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"crm"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"2"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"2"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Auth struct {
		KeysFolder string `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
	}
	Identity struct {
		Provider         string        `envconfig:"IDENTITY_PROVIDER" default:"local"`
		GoTrueURL        string        `envconfig:"GOTRUE_URL"`
		GoTrueServiceKey string        `envconfig:"GOTRUE_SERVICE_KEY"`
		GoTrueTimeout    time.Duration `envconfig:"GOTRUE_TIMEOUT" default:"5s"`
	}
	Lifecycle struct {
		StepTimeout time.Duration `envconfig:"LIFECYCLE_STEP_TIMEOUT" default:"30s"`
	}
}

func (c config) dbConfig() sqldb.Config {
	return sqldb.Config{
		User:         c.DB.User,
		Password:     c.DB.Password,
		Host:         c.DB.Host,
		Name:         c.DB.Name,
		MaxIdleConns: c.DB.MaxIdleConns,
		MaxOpenConns: c.DB.MaxOpenConns,
		DisableTLS:   c.DB.DisableTLS,
	}
}

func main() {
	log := logger.New(io.Discard, logger.LevelInfo, "ADMIN", nil)

	if err := run(log); err != nil {
		if !errors.Is(err, commands.ErrHelp) {
			fmt.Println("msg:", err)
		}
		os.Exit(1)
	}
}

func run(log *logger.Logger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	if len(os.Args) < 2 {
		usage()
		return commands.ErrHelp
	}

	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "migrate":
		return commands.Migrate(cfg.dbConfig())

	case "genkey":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		folder := flags.String("folder", cfg.Auth.KeysFolder, "folder the private key is written to")
		if err := flags.Parse(args); err != nil {
			return err
		}

		_, err := commands.GenKey(*folder)
		return err

	case "seed-super-admin":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		name := flags.String("name", "Platform Operator", "full name")
		email := flags.String("email", "", "email address")
		pass := flags.String("password", "", "password")
		if err := flags.Parse(args); err != nil {
			return err
		}

		return withLifecycle(log, cfg, func(ctx context.Context, b buses.Buses) error {
			return commands.SeedSuperAdmin(ctx, b.Lifecycle, *name, *email, *pass)
		})

	case "add-super-admin":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		operator := flags.String("operator", "", "principal id of the super admin running the command")
		name := flags.String("name", "", "full name")
		email := flags.String("email", "", "email address")
		pass := flags.String("password", "", "password")
		if err := flags.Parse(args); err != nil {
			return err
		}

		return withOperator(log, cfg, *operator, func(ctx context.Context, b buses.Buses, op policybus.Caller) error {
			_, err := commands.AddSuperAdmin(ctx, b.Lifecycle, op, *name, *email, *pass)
			return err
		})

	case "create-tenant":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		operator := flags.String("operator", "", "principal id of the super admin running the command")
		var nt commands.NewTenant
		flags.StringVar(&nt.Name, "name", "", "organization name")
		flags.StringVar(&nt.Slug, "slug", "", "organization slug, derived from the name when empty")
		flags.StringVar(&nt.AdminName, "admin-name", "", "administrator full name")
		flags.StringVar(&nt.AdminEmail, "admin-email", "", "administrator email")
		flags.StringVar(&nt.AdminPassword, "admin-password", "", "administrator password")
		if err := flags.Parse(args); err != nil {
			return err
		}

		return withOperator(log, cfg, *operator, func(ctx context.Context, b buses.Buses, op policybus.Caller) error {
			_, err := commands.CreateTenant(ctx, b.Lifecycle, op, nt)
			return err
		})

	case "set-status":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		operator := flags.String("operator", "", "principal id of the super admin running the command")
		orgID := flags.String("org", "", "organization id")
		st := flags.String("status", "", "active, blocked or inactive")
		if err := flags.Parse(args); err != nil {
			return err
		}

		return withOperator(log, cfg, *operator, func(ctx context.Context, b buses.Buses, op policybus.Caller) error {
			return commands.SetStatus(ctx, b.Lifecycle, op, *orgID, *st)
		})

	case "delete-tenant":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		operator := flags.String("operator", "", "principal id of the super admin running the command")
		orgID := flags.String("org", "", "organization id")
		if err := flags.Parse(args); err != nil {
			return err
		}

		return withOperator(log, cfg, *operator, func(ctx context.Context, b buses.Buses, op policybus.Caller) error {
			return commands.DeleteTenant(ctx, b.Lifecycle, op, *orgID)
		})

	case "export-tenants":
		flags := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
		operator := flags.String("operator", "", "principal id of the super admin running the command")
		out := flags.StringP("out", "o", "", "output file, a timestamped name when empty")
		if err := flags.Parse(args); err != nil {
			return err
		}

		return withOperator(log, cfg, *operator, func(ctx context.Context, b buses.Buses, op policybus.Caller) error {
			_, err := commands.ExportTenants(ctx, b.Lifecycle, op, *out)
			return err
		})

	case "help", "-h", "--help":
		usage()
		return commands.ErrHelp
	}

	usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func withLifecycle(log *logger.Logger, cfg config, fn func(ctx context.Context, b buses.Buses) error) error {
	db, err := sqldb.Open(cfg.dbConfig())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	b, err := buses.New(buses.Config{
		Log:              log,
		DB:               db,
		IdentityProvider: cfg.Identity.Provider,
		GoTrue: identitygotrue.Config{
			BaseURL:    cfg.Identity.GoTrueURL,
			ServiceKey: cfg.Identity.GoTrueServiceKey,
			Timeout:    cfg.Identity.GoTrueTimeout,
		},
		IdentityCallTimeout: cfg.Identity.GoTrueTimeout,
		StepTimeout:         cfg.Lifecycle.StepTimeout,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return fn(ctx, b)
}

func withOperator(log *logger.Logger, cfg config, operator string, fn func(ctx context.Context, b buses.Buses, op policybus.Caller) error) error {
	return withLifecycle(log, cfg, func(ctx context.Context, b buses.Buses) error {
		op, err := commands.Operator(ctx, b.Lifecycle, operator)
		if err != nil {
			return err
		}

		return fn(ctx, b, op)
	})
}

func usage() {
	fmt.Println(`Usage: admin <command> [flags]

Commands:
  migrate            apply the database schema
  genkey             write a new token signing key      --folder
  seed-super-admin   create the first super admin       --name --email --password
  add-super-admin    create another super admin         --operator --name --email --password
  create-tenant      provision an organization          --operator --name [--slug] --admin-name --admin-email --admin-password
  set-status         change an organization status      --operator --org --status
  delete-tenant      remove an organization             --operator --org
  export-tenants     write organizations to xlsx        --operator [--out]`)
}
