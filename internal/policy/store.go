package policy

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Load assembles the effective policy: the configured id lists, unioned
// with rows from Postgres when a DSN is provided. The database source
// exists so the allow-list can be grown without a redeploy; an empty DSN
// means config-only operation. The result is fixed for the process
// lifetime; there is no reload path.
func Load(ctx context.Context, dsn string, allowedChats, exemptSenders []int64) (*Policy, error) {
	p := New(allowedChats, exemptSenders)

	if dsn == "" {
		if p.AllowedCount() == 0 {
			return nil, fmt.Errorf("policy: allow-list is empty and no database configured")
		}
		return p, nil
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("policy: open postgres: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("policy: postgres unreachable: %w", err)
	}

	if err := migrateUp(db); err != nil {
		return nil, err
	}

	dbAllowed, err := loadIDs(ctx, db, `SELECT chat_id FROM moderated_chats`)
	if err != nil {
		return nil, fmt.Errorf("policy: load moderated chats: %w", err)
	}
	dbExempt, err := loadIDs(ctx, db, `SELECT sender_chat_id FROM exempt_senders`)
	if err != nil {
		return nil, fmt.Errorf("policy: load exempt senders: %w", err)
	}

	p.merge(dbAllowed, dbExempt)
	log.Printf("[policy] loaded %d allowed chats (%d from database), %d exempt senders",
		p.AllowedCount(), len(dbAllowed), len(p.exempt))

	if p.AllowedCount() == 0 {
		return nil, fmt.Errorf("policy: allow-list is empty after merging database rows")
	}
	return p, nil
}

// migrateUp applies the embedded schema migrations. A dirty or current
// schema is fine; only real migration failures are fatal.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("policy: open migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("policy: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("policy: init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("policy: apply migrations: %w", err)
	}
	return nil
}

func loadIDs(ctx context.Context, db *sql.DB, query string) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
