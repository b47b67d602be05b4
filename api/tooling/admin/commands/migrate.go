package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jcpaschoal/crm-tenancy/business/sdk/migrate"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/sqldb"
)

// Migrate creates the schema in the database.
func Migrate(cfg sqldb.Config) error {
	db, err := sqldb.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := migrate.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	version, _, err := migrate.Version(db)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}

	fmt.Println("migrations complete, schema version", version)

	return nil
}
