package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowmesh/flowmesh/registry"
	"github.com/flowmesh/flowmesh/signature"
)

// Pool is the subset of pgxpool.Pool's surface the Store needs; it lets
// tests substitute pgxmock for a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements registry.Store using PostgreSQL.
type Store struct {
	pool      Pool
	tableName string
}

// Options configures a Store's Postgres connection.
type Options struct {
	ConnString string
	// TableName defaults to "signatures".
	TableName string
}

// New opens a pooled connection and ensures the signature table exists.
func New(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("registry/postgres: create pool: %w", err)
	}
	s := NewWithPool(pool, opts.TableName)
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// NewWithPool builds a Store over an existing pool, useful for tests with
// pgxmock.
func NewWithPool(pool Pool, tableName string) *Store {
	if tableName == "" {
		tableName = "signatures"
	}
	return &Store{pool: pool, tableName: tableName}
}

func (s *Store) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			name      TEXT NOT NULL,
			body      JSONB NOT NULL,
			PRIMARY KEY (namespace, name)
		);
	`, s.tableName)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("registry/postgres: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Put implements registry.Store.
func (s *Store) Put(namespace string, sig signature.OperationSignature) error {
	return s.put(context.Background(), namespace, sig)
}

func (s *Store) put(ctx context.Context, namespace string, sig signature.OperationSignature) error {
	body, err := registry.Encode(sig)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, name, body) VALUES ($1, $2, $3)
		ON CONFLICT (namespace, name) DO UPDATE SET body = EXCLUDED.body
	`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, namespace, sig.Name, body); err != nil {
		return fmt.Errorf("registry/postgres: put %s::%s: %w", namespace, sig.Name, err)
	}
	return nil
}

// Get implements registry.Store.
func (s *Store) Get(namespace, name string) (signature.OperationSignature, bool, error) {
	return s.get(context.Background(), namespace, name)
}

func (s *Store) get(ctx context.Context, namespace, name string) (signature.OperationSignature, bool, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE namespace = $1 AND name = $2`, s.tableName)
	var body []byte
	err := s.pool.QueryRow(ctx, query, namespace, name).Scan(&body)
	if err == pgx.ErrNoRows {
		return signature.OperationSignature{}, false, nil
	}
	if err != nil {
		return signature.OperationSignature{}, false, fmt.Errorf("registry/postgres: get %s::%s: %w", namespace, name, err)
	}
	sig, err := registry.Decode(body)
	if err != nil {
		return signature.OperationSignature{}, false, err
	}
	return sig, true, nil
}

// List implements registry.Store.
func (s *Store) List(namespace string) ([]signature.OperationSignature, error) {
	ctx := context.Background()
	query := fmt.Sprintf(`SELECT body FROM %s WHERE namespace = $1 ORDER BY name ASC`, s.tableName)
	rows, err := s.pool.Query(ctx, query, namespace)
	if err != nil {
		return nil, fmt.Errorf("registry/postgres: list %s: %w", namespace, err)
	}
	defer rows.Close()

	var out []signature.OperationSignature
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("registry/postgres: scan row: %w", err)
		}
		sig, err := registry.Decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// Delete implements registry.Store.
func (s *Store) Delete(namespace, name string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND name = $2`, s.tableName)
	if _, err := s.pool.Exec(context.Background(), query, namespace, name); err != nil {
		return fmt.Errorf("registry/postgres: delete %s::%s: %w", namespace, name, err)
	}
	return nil
}

// Clear implements registry.Store.
func (s *Store) Clear(namespace string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1`, s.tableName)
	if _, err := s.pool.Exec(context.Background(), query, namespace); err != nil {
		return fmt.Errorf("registry/postgres: clear %s: %w", namespace, err)
	}
	return nil
}
