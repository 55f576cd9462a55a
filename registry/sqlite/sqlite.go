package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/flowmesh/flowmesh/registry"
	"github.com/flowmesh/flowmesh/signature"
)

// Store implements registry.Store using a local SQLite file.
type Store struct {
	db        *sql.DB
	tableName string
}

// Options configures a Store's SQLite connection.
type Options struct {
	Path string
	// TableName defaults to "signatures".
	TableName string
}

// New opens (creating if necessary) a SQLite-backed signature Store.
func New(opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("registry/sqlite: open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "signatures"
	}

	s := &Store{db: db, tableName: tableName}
	if err := s.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			name      TEXT NOT NULL,
			body      TEXT NOT NULL,
			PRIMARY KEY (namespace, name)
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("registry/sqlite: create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put implements registry.Store.
func (s *Store) Put(namespace string, sig signature.OperationSignature) error {
	body, err := registry.Encode(sig)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (namespace, name, body) VALUES (?, ?, ?)
		ON CONFLICT(namespace, name) DO UPDATE SET body = excluded.body
	`, s.tableName)
	if _, err := s.db.Exec(query, namespace, sig.Name, string(body)); err != nil {
		return fmt.Errorf("registry/sqlite: put %s::%s: %w", namespace, sig.Name, err)
	}
	return nil
}

// Get implements registry.Store.
func (s *Store) Get(namespace, name string) (signature.OperationSignature, bool, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE namespace = ? AND name = ?`, s.tableName)
	var body string
	err := s.db.QueryRow(query, namespace, name).Scan(&body)
	if err == sql.ErrNoRows {
		return signature.OperationSignature{}, false, nil
	}
	if err != nil {
		return signature.OperationSignature{}, false, fmt.Errorf("registry/sqlite: get %s::%s: %w", namespace, name, err)
	}
	sig, err := registry.Decode([]byte(body))
	if err != nil {
		return signature.OperationSignature{}, false, err
	}
	return sig, true, nil
}

// List implements registry.Store.
func (s *Store) List(namespace string) ([]signature.OperationSignature, error) {
	query := fmt.Sprintf(`SELECT body FROM %s WHERE namespace = ? ORDER BY name ASC`, s.tableName)
	rows, err := s.db.Query(query, namespace)
	if err != nil {
		return nil, fmt.Errorf("registry/sqlite: list %s: %w", namespace, err)
	}
	defer rows.Close()

	var out []signature.OperationSignature
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("registry/sqlite: scan row: %w", err)
		}
		sig, err := registry.Decode([]byte(body))
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// Delete implements registry.Store.
func (s *Store) Delete(namespace, name string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = ? AND name = ?`, s.tableName)
	if _, err := s.db.Exec(query, namespace, name); err != nil {
		return fmt.Errorf("registry/sqlite: delete %s::%s: %w", namespace, name, err)
	}
	return nil
}

// Clear implements registry.Store.
func (s *Store) Clear(namespace string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE namespace = ?`, s.tableName)
	if _, err := s.db.Exec(query, namespace); err != nil {
		return fmt.Errorf("registry/sqlite: clear %s: %w", namespace, err)
	}
	return nil
}
