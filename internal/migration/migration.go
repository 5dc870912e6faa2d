package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	entdomain "github.com/smallbiznis/courtside/internal/entitlement/domain"
	qadomain "github.com/smallbiznis/courtside/internal/qa/domain"
	subdomain "github.com/smallbiznis/courtside/internal/subscription/domain"
	usagedomain "github.com/smallbiznis/courtside/internal/usage/domain"
	userdomain "github.com/smallbiznis/courtside/internal/user/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema. The analytics views are
// owned by the ingestion pipeline and are not created here.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every table the pipeline writes, in dependency order.
func Models() []any {
	return []any{
		&userdomain.User{},
		&entdomain.Entitlement{},
		&subdomain.Subscription{},
		&usagedomain.DailyUsage{},
		&qadomain.AuditRecord{},
	}
}

// AutoMigrate creates the schema from the gorm models for dialects without
// embedded SQL, such as sqlite in local runs and tests.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
