package store

import (
	"sort"

	"github.com/agentmem/agent-memory/internal/model"
)

// ExportAll returns copies of every memory, optionally filtered by agent,
// ordered by agent then creation time.
func (s *MemoryStore) ExportAll(agentID string) []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.agentEntriesLocked(agentID)
	out := make([]model.Entry, 0, len(src))
	for _, e := range src {
		out = append(out, *e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgentID != out[j].AgentID {
			return out[i].AgentID < out[j].AgentID
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Import stores memories from an export, replacing any memory with the same
// id. Entries without an id get a fresh one. It returns how many were stored.
func (s *MemoryStore) Import(entries []model.Entry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	imported := 0
	for i := range entries {
		e := entries[i].Clone()
		if e.ID == "" {
			e.ID = s.newID()
		}
		if !model.ValidCategories[e.Category] {
			e.Category = model.CategoryContext
		}
		if !model.ValidSources[e.Source] {
			e.Source = model.SourceInteraction
		}
		if !model.ValidImportances[e.Importance] {
			e.Importance = model.ImportanceNormal
		}
		e.Content = model.TruncateContent(e.Content)
		e.Tags = model.NormalizeTags(e.Tags)
		e.Confidence = model.ClampConfidence(e.Confidence)
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = e.CreatedAt
		}
		s.insertLocked(e)
		s.schedUpsert(e)
		imported++
	}
	return imported
}
