package store

import (
	"sort"
	"strings"
	"time"

	"github.com/agentmem/agent-memory/internal/model"
)

const defaultLimit = 20

func (p QueryParams) matches(e *model.Entry) bool {
	if p.Category != "" && e.Category != p.Category {
		return false
	}
	if p.Importance != "" && e.Importance != p.Importance {
		return false
	}
	if p.Source != "" && e.Source != p.Source {
		return false
	}
	return true
}

// byImportance orders by importance weight, then newest first.
func byImportance(entries []*model.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if wa, wb := a.Importance.Weight(), b.Importance.Weight(); wa != wb {
			return wa > wb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

func clip[T any](s []T, limit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}

// Query lists an agent's memories matching the filters. With a query string
// the matches are ranked by relevance times importance weight; if nothing
// matches the text, the filtered set is returned in importance order instead.
func (s *MemoryStore) Query(p QueryParams) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []*model.Entry
	for _, e := range s.agentEntriesLocked(p.AgentID) {
		if p.matches(e) {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return []Result{}
	}

	if strings.TrimSpace(p.Query) != "" {
		candidates := make(map[string]struct{}, len(filtered))
		for _, e := range filtered {
			candidates[e.ID] = struct{}{}
		}
		if hits := s.index.Search(p.Query, candidates); len(hits) > 0 {
			results := make([]Result, 0, len(hits))
			for _, h := range hits {
				e := s.entries[h.ID]
				results = append(results, Result{
					Entry: *e.Clone(),
					Score: h.Score * float64(e.Importance.Weight()),
				})
			}
			sort.SliceStable(results, func(i, j int) bool {
				return results[i].Score > results[j].Score
			})
			return clip(results, p.Limit)
		}
	}

	byImportance(filtered)
	filtered = clip(filtered, p.Limit)
	results := make([]Result, 0, len(filtered))
	for _, e := range filtered {
		results = append(results, Result{Entry: *e.Clone()})
	}
	return results
}

// Search returns raw text-relevance hits, scoped to agentID unless it is
// empty.
func (s *MemoryStore) Search(agentID, query string, limit int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates map[string]struct{}
	if agentID != "" {
		candidates = s.byAgent[agentID]
		if candidates == nil {
			return []Result{}
		}
	}
	hits := clip(s.index.Search(query, candidates), limit)
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, Result{Entry: *s.entries[h.ID].Clone(), Score: h.Score})
	}
	return results
}

// Recent returns memories created within window, newest first.
func (s *MemoryStore) Recent(agentID string, window time.Duration, limit int) []Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	since := s.now().Add(-window)
	var picked []*model.Entry
	for _, e := range s.agentEntriesLocked(agentID) {
		if !e.CreatedAt.Before(since) {
			picked = append(picked, e)
		}
	}
	sort.Slice(picked, func(i, j int) bool {
		if !picked[i].CreatedAt.Equal(picked[j].CreatedAt) {
			return picked[i].CreatedAt.After(picked[j].CreatedAt)
		}
		return picked[i].ID > picked[j].ID
	})
	picked = clip(picked, limit)
	results := make([]Result, 0, len(picked))
	for _, e := range picked {
		results = append(results, Result{Entry: *e.Clone()})
	}
	return results
}
