package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/observe"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntry(id string) model.Entry {
	created := time.Date(2026, 2, 3, 4, 5, 6, 789, time.UTC)
	accessed := created.Add(time.Hour)
	expires := created.Add(72 * time.Hour)
	return model.Entry{
		ID:             id,
		AgentID:        "support-bot",
		OrgID:          "acme",
		Category:       model.CategoryOrgKnowledge,
		Source:         model.SourceAdmin,
		Importance:     model.ImportanceCritical,
		Title:          "Refund Policy",
		Content:        "Refunds within 30 days.",
		Tags:           []string{"billing", "policy"},
		Confidence:     0.875,
		AccessCount:    3,
		LastAccessedAt: &accessed,
		ExpiresAt:      &expires,
		Metadata:       map[string]string{"policy_id": "pol-1"},
		CreatedAt:      created,
		UpdatedAt:      created.Add(time.Minute),
	}
}

func TestUpsertAndLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	want := sampleEntry("01ROUNDTRIP")
	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	got := rows[0]
	if got.ID != want.ID || got.AgentID != want.AgentID || got.OrgID != want.OrgID {
		t.Errorf("identity mismatch: %+v", got)
	}
	if got.Category != want.Category || got.Source != want.Source || got.Importance != want.Importance {
		t.Errorf("enum mismatch: %s %s %s", got.Category, got.Source, got.Importance)
	}
	if got.Title != want.Title || got.Content != want.Content {
		t.Errorf("text mismatch: %q %q", got.Title, got.Content)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "billing" || got.Tags[1] != "policy" {
		t.Errorf("expected tags [billing policy], got %v", got.Tags)
	}
	if got.Confidence != 0.875 || got.AccessCount != 3 {
		t.Errorf("expected confidence 0.875 and 3 accesses, got %v %d", got.Confidence, got.AccessCount)
	}
	if got.Metadata["policy_id"] != "pol-1" {
		t.Errorf("expected policy_id metadata, got %v", got.Metadata)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps mismatch: %v %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.LastAccessedAt == nil || !got.LastAccessedAt.Equal(*want.LastAccessedAt) {
		t.Errorf("last accessed mismatch: %v", got.LastAccessedAt)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(*want.ExpiresAt) {
		t.Errorf("expires mismatch: %v", got.ExpiresAt)
	}
}

func TestUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	e := sampleEntry("01REPLACE")
	s.Upsert(ctx, e)

	e.Content = "Refunds within 60 days."
	e.Tags = nil
	e.Metadata = nil
	e.ExpiresAt = nil
	if err := s.Upsert(ctx, e); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, _ := s.LoadAll(ctx)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Content != "Refunds within 60 days." {
		t.Errorf("expected updated content, got %q", rows[0].Content)
	}
	if rows[0].Tags != nil || rows[0].Metadata != nil || rows[0].ExpiresAt != nil {
		t.Errorf("expected cleared optional fields, got %v %v %v", rows[0].Tags, rows[0].Metadata, rows[0].ExpiresAt)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Upsert(ctx, sampleEntry("01KEEP"))
	s.Upsert(ctx, sampleEntry("01DROP"))
	if err := s.Delete(ctx, "01DROP"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "01NEVER"); err != nil {
		t.Errorf("deleting unknown id should not fail: %v", err)
	}

	rows, _ := s.LoadAll(ctx)
	if len(rows) != 1 || rows[0].ID != "01KEEP" {
		t.Errorf("expected only 01KEEP, got %v", rows)
	}
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), observe.NewJSON(&logs, false))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	s.Upsert(ctx, sampleEntry("01GOOD"))

	now := time.Now().UTC().Format(time.RFC3339Nano)
	bad := []struct {
		id, category, tags, meta, created string
	}{
		{"01BADTAGS", "skill", "[not json", "", now},
		{"01BADMETA", "skill", "", "{oops", now},
		{"01BADCAT", "gossip", "", "", now},
		{"01BADTIME", "skill", "", "", "yesterday"},
	}
	for _, b := range bad {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO memories (id, agent_id, category, tags, metadata, created_at, updated_at)
			 VALUES (?, 'a1', ?, NULLIF(?, ''), NULLIF(?, ''), ?, ?)`,
			b.id, b.category, b.tags, b.meta, b.created, now)
		if err != nil {
			t.Fatalf("insert %s: %v", b.id, err)
		}
	}

	rows, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "01GOOD" {
		t.Errorf("expected only 01GOOD, got %d rows", len(rows))
	}
	if n := strings.Count(logs.String(), "skipping malformed row"); n != len(bad) {
		t.Errorf("expected %d skip warnings, got %d", len(bad), n)
	}
}

func TestLoadWithoutSchema(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.db.Exec(`DROP TABLE memories`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	rows, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatalf("expected no error without schema, got %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestMemoryStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "memory.db")

	db, err := NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	ms := Open(ctx, db)
	keep := ms.Create(CreateParams{AgentID: "support-bot", Title: "Refund Policy", Content: "30 days", Tags: []string{"billing"}})
	drop := ms.Create(CreateParams{AgentID: "support-bot", Title: "Old promo"})
	ms.RecordAccess(keep.ID)
	ms.Delete(drop.ID)
	if err := ms.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = NewSQLiteStore(dbPath, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	ms = Open(ctx, db)
	defer ms.Close()

	if ms.Len() != 1 {
		t.Fatalf("expected 1 memory after restart, got %d", ms.Len())
	}
	got, ok := ms.Get(keep.ID)
	if !ok {
		t.Fatal("expected kept memory after restart")
	}
	if got.AccessCount != 1 {
		t.Errorf("expected access count 1, got %d", got.AccessCount)
	}
	if hits := ms.Search("support-bot", "refund", 10); len(hits) != 1 {
		t.Errorf("expected restored memory to be searchable, got %d hits", len(hits))
	}
}
