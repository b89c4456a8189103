package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the default AnchorStore backed by a local sqlite database.
// One shared instance serves all callers for the process lifetime.
type SQLiteStore struct {
	db *sql.DB

	mu         sync.Mutex
	systemRoot *Anchor
}

// NewSQLiteStore opens (creating if necessary) the anchor database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("anchor database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open anchor database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open anchor database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS anchors (
			id TEXT PRIMARY KEY,
			is_root INTEGER NOT NULL DEFAULT 0,
			access TEXT NOT NULL DEFAULT '',
			edges TEXT NOT NULL DEFAULT '[]',
			content_hash TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create anchors schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// EnsureSystemRoot bootstraps the canonical system root anchor. The record
// carries default access permissions and an initially empty edge set; its
// content hash is re-derived before caching.
func (s *SQLiteStore) EnsureSystemRoot(ctx context.Context) (*Anchor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.systemRoot != nil {
		root := s.systemRoot
		s.mu.Unlock()
		return root, nil
	}
	s.mu.Unlock()

	existing, ok, err := s.GetAnchor(ctx, SystemRootID)
	if err != nil {
		return nil, fmt.Errorf("resolve system root: %w", err)
	}
	if !ok {
		now := time.Now().UTC()
		existing = &Anchor{
			ID:        SystemRootID,
			IsRoot:    true,
			Access:    "{}",
			Edges:     []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		existing.ContentHash = DeriveContentHash(existing)
		if err := s.SaveAnchor(ctx, existing); err != nil {
			return nil, fmt.Errorf("bootstrap system root: %w", err)
		}
	} else {
		existing.ContentHash = DeriveContentHash(existing)
	}

	s.mu.Lock()
	s.systemRoot = existing
	s.mu.Unlock()
	return existing, nil
}

// GetAnchor fetches an anchor by ID. Absence is reported, not an error.
func (s *SQLiteStore) GetAnchor(ctx context.Context, id string) (*Anchor, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, false, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, is_root, access, edges, content_hash, created_at, updated_at
		FROM anchors
		WHERE id = ?
	`, id)

	var anchor Anchor
	var edgesJSON string
	err := row.Scan(&anchor.ID, &anchor.IsRoot, &anchor.Access, &edgesJSON,
		&anchor.ContentHash, &anchor.CreatedAt, &anchor.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get anchor %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(edgesJSON), &anchor.Edges); err != nil {
		return nil, false, fmt.Errorf("decode edges for anchor %s: %w", id, err)
	}
	return &anchor, true, nil
}

// SaveAnchor inserts or replaces an anchor record wholesale.
func (s *SQLiteStore) SaveAnchor(ctx context.Context, anchor *Anchor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if anchor == nil {
		return fmt.Errorf("anchor is required")
	}
	if strings.TrimSpace(anchor.ID) == "" {
		return fmt.Errorf("anchor id is required")
	}

	edges := anchor.Edges
	if edges == nil {
		edges = []string{}
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("encode edges for anchor %s: %w", anchor.ID, err)
	}

	if anchor.CreatedAt.IsZero() {
		anchor.CreatedAt = time.Now().UTC()
	}
	anchor.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO anchors (id, is_root, access, edges, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_root = excluded.is_root,
			access = excluded.access,
			edges = excluded.edges,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
	`, anchor.ID, anchor.IsRoot, anchor.Access, string(edgesJSON),
		anchor.ContentHash, anchor.CreatedAt.UTC(), anchor.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save anchor %s: %w", anchor.ID, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
