package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/observe"
)

// SQLiteStore is a Persister backed by a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	obs *observe.Observer
}

var _ Persister = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, obs *observe.Observer) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if obs == nil {
		obs = observe.Discard()
	}

	s := &SQLiteStore{db: db, obs: obs}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id               TEXT PRIMARY KEY,
		agent_id         TEXT NOT NULL,
		org_id           TEXT,
		category         TEXT NOT NULL DEFAULT 'context',
		source           TEXT NOT NULL DEFAULT 'interaction',
		importance       TEXT NOT NULL DEFAULT 'normal',
		title            TEXT NOT NULL DEFAULT '',
		content          TEXT NOT NULL DEFAULT '',
		tags             TEXT,
		confidence       REAL NOT NULL DEFAULT 1.0,
		access_count     INTEGER NOT NULL DEFAULT 0,
		last_accessed_at TEXT,
		expires_at       TEXT,
		metadata         TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_agent ON memories(agent_id);
	CREATE INDEX IF NOT EXISTS idx_memories_agent_category ON memories(agent_id, category);
	CREATE INDEX IF NOT EXISTS idx_memories_expires ON memories(expires_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

const selectColumns = `id, agent_id, org_id, category, source, importance, title, content, tags,
	confidence, access_count, last_accessed_at, expires_at, metadata, created_at, updated_at`

// LoadAll returns every row. Rows that fail to decode are logged and skipped.
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM memories ORDER BY created_at`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil
		}
		return nil, fmt.Errorf("load memories: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			s.obs.Log().Warn().Str("id", e.ID).Err(err).Msg("skipping malformed row")
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return entries, fmt.Errorf("load memories: %w", err)
	}
	return entries, nil
}

// Upsert inserts e or replaces the row with the same id.
func (s *SQLiteStore) Upsert(ctx context.Context, e model.Entry) error {
	var tagsJSON, metaJSON *string
	if len(e.Tags) > 0 {
		b, _ := json.Marshal(e.Tags)
		v := string(b)
		tagsJSON = &v
	}
	if len(e.Metadata) > 0 {
		b, _ := json.Marshal(e.Metadata)
		v := string(b)
		metaJSON = &v
	}
	var orgID *string
	if e.OrgID != "" {
		orgID = &e.OrgID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (`+selectColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			agent_id = excluded.agent_id,
			org_id = excluded.org_id,
			category = excluded.category,
			source = excluded.source,
			importance = excluded.importance,
			title = excluded.title,
			content = excluded.content,
			tags = excluded.tags,
			confidence = excluded.confidence,
			access_count = excluded.access_count,
			last_accessed_at = excluded.last_accessed_at,
			expires_at = excluded.expires_at,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		e.ID, e.AgentID, orgID, string(e.Category), string(e.Source), string(e.Importance),
		e.Title, e.Content, tagsJSON, e.Confidence, e.AccessCount,
		formatTime(e.LastAccessedAt), formatTime(e.ExpiresAt), metaJSON,
		e.CreatedAt.UTC().Format(time.RFC3339Nano), e.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert memory %s: %w", e.ID, err)
	}
	return nil
}

// Delete removes the row with id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete memory %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339Nano)
	return &v
}

func parseTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (model.Entry, error) {
	var e model.Entry
	var orgID, tagsJSON, lastAccessed, expiresAt, meta sql.NullString
	var category, source, importance, createdAt, updatedAt string

	err := row.Scan(
		&e.ID, &e.AgentID, &orgID, &category, &source, &importance,
		&e.Title, &e.Content, &tagsJSON, &e.Confidence, &e.AccessCount,
		&lastAccessed, &expiresAt, &meta, &createdAt, &updatedAt,
	)
	if err != nil {
		return e, err
	}

	if e.Category, err = model.ParseCategory(category); err != nil {
		return e, err
	}
	if e.Source, err = model.ParseSource(source); err != nil {
		return e, err
	}
	if e.Importance, err = model.ParseImportance(importance); err != nil {
		return e, err
	}
	if orgID.Valid {
		e.OrgID = orgID.String
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &e.Tags); err != nil {
			return e, fmt.Errorf("tags: %w", err)
		}
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &e.Metadata); err != nil {
			return e, fmt.Errorf("metadata: %w", err)
		}
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return e, fmt.Errorf("created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return e, fmt.Errorf("updated_at: %w", err)
	}
	if e.LastAccessedAt, err = parseTime(lastAccessed); err != nil {
		return e, fmt.Errorf("last_accessed_at: %w", err)
	}
	if e.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return e, fmt.Errorf("expires_at: %w", err)
	}
	return e, nil
}
