// Package store persists rule documents in SQLite. Node, edge, and alarm
// data are stored as JSON columns; the engine packages never import this —
// they borrow documents, the store owns them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fluxrules/ruleflow/internal/rule"
)

// ErrNotFound is returned when no rule exists with the requested id.
var ErrNotFound = errors.New("rule not found")

// Store wraps a SQLite database holding rule documents.
type Store struct {
	conn *sql.DB
	Path string
}

// Open opens the database with WAL mode and foreign keys enabled and
// creates the schema if needed.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	s := &Store{conn: conn, Path: path}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			id               TEXT PRIMARY KEY,
			name             TEXT NOT NULL,
			user_id          TEXT NOT NULL DEFAULT '',
			nodes            TEXT NOT NULL,
			edges            TEXT NOT NULL,
			alarm_config     TEXT NOT NULL,
			natural_language TEXT NOT NULL DEFAULT '',
			is_valid         INTEGER NOT NULL DEFAULT 0,
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Create inserts a new rule document.
func (s *Store) Create(ctx context.Context, r *rule.Rule) error {
	nodes, edges, alarm, err := marshalDoc(r)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO rules (id, name, user_id, nodes, edges, alarm_config,
		                   natural_language, is_valid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.UserID, nodes, edges, alarm,
		r.NaturalLanguage, boolInt(r.IsValid),
		r.CreatedAt.UTC().Format(time.RFC3339Nano),
		r.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("inserting rule %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the rule with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*rule.Rule, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT id, name, user_id, nodes, edges, alarm_config,
		       natural_language, is_valid, created_at, updated_at
		FROM rules WHERE id = ?
	`, id)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading rule %s: %w", id, err)
	}
	return r, nil
}

// List returns all rules ordered by most recently updated. When userID is
// non-empty only that user's rules are returned.
func (s *Store) List(ctx context.Context, userID string) ([]*rule.Rule, error) {
	query := `
		SELECT id, name, user_id, nodes, edges, alarm_config,
		       natural_language, is_valid, created_at, updated_at
		FROM rules`
	args := []any{}
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var out []*rule.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Update replaces an existing rule document and bumps updated_at.
func (s *Store) Update(ctx context.Context, r *rule.Rule) error {
	nodes, edges, alarm, err := marshalDoc(r)
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now().UTC()
	res, err := s.conn.ExecContext(ctx, `
		UPDATE rules
		SET name = ?, user_id = ?, nodes = ?, edges = ?, alarm_config = ?,
		    natural_language = ?, is_valid = ?, updated_at = ?
		WHERE id = ?
	`, r.Name, r.UserID, nodes, edges, alarm,
		r.NaturalLanguage, boolInt(r.IsValid),
		r.UpdatedAt.Format(time.RFC3339Nano), r.ID)
	if err != nil {
		return fmt.Errorf("updating rule %s: %w", r.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a rule by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting rule %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalDoc(r *rule.Rule) (nodes, edges, alarm []byte, err error) {
	if nodes, err = json.Marshal(r.Nodes); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding nodes: %w", err)
	}
	if edges, err = json.Marshal(r.Edges); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding edges: %w", err)
	}
	if alarm, err = json.Marshal(r.AlarmConfig); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding alarm config: %w", err)
	}
	return nodes, edges, alarm, nil
}

func scanRule(scanner interface{ Scan(dest ...any) error }) (*rule.Rule, error) {
	var (
		r                    rule.Rule
		nodes, edges, alarm  []byte
		isValid              int
		createdAt, updatedAt string
	)
	err := scanner.Scan(&r.ID, &r.Name, &r.UserID, &nodes, &edges, &alarm,
		&r.NaturalLanguage, &isValid, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(nodes, &r.Nodes); err != nil {
		return nil, fmt.Errorf("decoding nodes: %w", err)
	}
	if err := json.Unmarshal(edges, &r.Edges); err != nil {
		return nil, fmt.Errorf("decoding edges: %w", err)
	}
	if err := json.Unmarshal(alarm, &r.AlarmConfig); err != nil {
		return nil, fmt.Errorf("decoding alarm config: %w", err)
	}
	r.IsValid = isValid != 0
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if r.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
