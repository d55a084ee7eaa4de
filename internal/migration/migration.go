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
	bookingdomain "github.com/smallbiznis/tourhub/internal/booking/domain"
	catalogdomain "github.com/smallbiznis/tourhub/internal/catalog/domain"
	tierdomain "github.com/smallbiznis/tourhub/internal/commissiontier/domain"
	overridedomain "github.com/smallbiznis/tourhub/internal/priceoverride/domain"
	tieringdomain "github.com/smallbiznis/tourhub/internal/tiering/domain"
	vendordomain "github.com/smallbiznis/tourhub/internal/vendors/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres schema.
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

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&vendordomain.Vendor{},
		&catalogdomain.Service{},
		&tierdomain.CommissionTier{},
		&overridedomain.ServicePriceOverride{},
		&bookingdomain.Booking{},
		&tieringdomain.VendorTierHistory{},
	}
}

// AutoMigrate builds the schema from the gorm models. Used for the
// mysql and sqlite dialects, which the SQL migrations do not target.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
