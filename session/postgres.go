package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultPostgresTable is the table used when none is configured.
const DefaultPostgresTable = "vertix_kv_store"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]{0,62}$`)

// PgxConn is the subset of *pgxpool.Pool and *pgx.Conn used by [PostgresBackend].
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores values in a single key/value table.
type PostgresBackend struct {
	conn  PgxConn
	table string

	selectSQL string
	upsertSQL string
	deleteSQL string
	schemaSQL string
}

// NewPostgresBackend returns a backend on conn using table (or
// [DefaultPostgresTable] when empty). The table name must be a plain SQL
// identifier.
func NewPostgresBackend(conn PgxConn, table string) (*PostgresBackend, error) {
	if conn == nil {
		return nil, errors.New("postgres backend requires a connection")
	}
	if table == "" {
		table = DefaultPostgresTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid postgres table name %q", table)
	}

	ident := pgx.Identifier{table}.Sanitize()
	return &PostgresBackend{
		conn:      conn,
		table:     table,
		selectSQL: `SELECT value FROM ` + ident + ` WHERE key = $1`,
		upsertSQL: `INSERT INTO ` + ident + ` (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		deleteSQL: `DELETE FROM ` + ident + ` WHERE key = $1`,
		schemaSQL: `CREATE TABLE IF NOT EXISTS ` + ident + ` (
  key        TEXT PRIMARY KEY,
  value      BYTEA NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	}, nil
}

// Table returns the backing table name.
func (p *PostgresBackend) Table() string { return p.table }

// EnsureSchema creates the backing table if it does not exist.
func (p *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := p.conn.Exec(ctx, p.schemaSQL); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (p *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	var value []byte
	if err := p.conn.QueryRow(ctx, p.selectSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return value, nil
}

func (p *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	if _, err := p.conn.Exec(ctx, p.upsertSQL, key, value); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if _, err := p.conn.Exec(ctx, p.deleteSQL, key); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
