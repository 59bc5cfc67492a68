package sqlstore

import (
	"embed"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// NewMigrator returns a migrator over the embedded migrations for the
// dialect of rawURL. Callers own Close.
func NewMigrator(rawURL string) (*migrate.Migrate, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return nil, crerr.Wrapf(err, "open %s migrations", dialect)
	}

	databaseURL := dsn
	if dialect == DialectSQLite {
		databaseURL = "sqlite://" + dsn
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, crerr.Wrap(err, "create migrator")
	}
	return m, nil
}

// MigrateUp applies every pending migration. No change is not an error.
func MigrateUp(rawURL string) error {
	m, err := NewMigrator(rawURL)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !crerr.Is(err, migrate.ErrNoChange) {
		return crerr.Wrap(err, "apply migrations")
	}
	return nil
}
