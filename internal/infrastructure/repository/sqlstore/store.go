package sqlstore

import (
	"context"
	"database/sql"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	_ "modernc.org/sqlite"
)

const documentsTable = "meta_cache_documents"

type Config struct {
	URL                         string
	AutoMigrate                 bool
	DisablePreparedBinaryResult bool
}

// Store keeps cache documents as rows of meta_cache_documents.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to the cache database, applying migrations first when
// AutoMigrate is set.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, dsn, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if dialect == DialectPostgres {
		dsn = NormalizeDBURL(dsn, cfg.DisablePreparedBinaryResult)
	}

	if cfg.AutoMigrate {
		if err := MigrateUp(cfg.URL); err != nil {
			return nil, err
		}
	}

	db, err := otelsqlx.Open(
		string(dialect),
		dsn,
		otelsql.WithDBSystem(string(dialect)),
		otelsql.WithDBName(dbNameFromURL(dialect, dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, crerr.Wrapf(err, "open %s cache database", dialect)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, crerr.Wrapf(err, "ping %s cache database", dialect)
	}

	return NewStore(db, dialect), nil
}

func NewStore(db *sqlx.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, now: time.Now}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Read(ctx context.Context, name string) ([]byte, bool, error) {
	var payload string
	query := s.db.Rebind(`SELECT payload FROM ` + documentsTable + ` WHERE name = ?`)
	err := s.db.GetContext(ctx, &payload, query, name)
	if crerr.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, crerr.Wrapf(err, "select document %s", name)
	}
	return []byte(payload), true, nil
}

func (s *Store) Write(ctx context.Context, name string, fetchedAt time.Time, payload []byte) error {
	model := documentModel{
		Name:      name,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	if !fetchedAt.IsZero() {
		ts := fetchedAt.UTC()
		model.FetchedAt = &ts
	}

	query := `INSERT INTO ` + documentsTable + ` (name, payload, fetched_at, updated_at)
VALUES (:name, :payload, :fetched_at, :updated_at)
ON CONFLICT (name) DO UPDATE SET
    payload = excluded.payload,
    fetched_at = excluded.fetched_at,
    updated_at = excluded.updated_at`
	if _, err := s.db.NamedExecContext(ctx, query, model); err != nil {
		return crerr.Wrapf(err, "upsert document %s", name)
	}
	return nil
}

type documentModel struct {
	Name      string     `db:"name"`
	Payload   string     `db:"payload"`
	FetchedAt *time.Time `db:"fetched_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}
