package store

import (
	"math"

	"github.com/agentmem/agent-memory/internal/model"
)

// Stats holds memory statistics.
type Stats struct {
	DBPath        string                   `json:"db_path,omitempty"`
	DBSizeBytes   int64                    `json:"db_size_bytes,omitempty"`
	Total         int                      `json:"total"`
	Agents        int                      `json:"agents"`
	ByCategory    map[model.Category]int   `json:"by_category"`
	ByImportance  map[model.Importance]int `json:"by_importance"`
	BySource      map[model.Source]int     `json:"by_source"`
	AvgConfidence float64                  `json:"avg_confidence"`
	IndexedTerms  int                      `json:"indexed_terms"`
	IndexWrites   uint64                   `json:"index_writes"`
}

// Stats summarizes agentID's memories, or every agent's when it is empty.
func (s *MemoryStore) Stats(agentID string) *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{
		ByCategory:   make(map[model.Category]int),
		ByImportance: make(map[model.Importance]int),
		BySource:     make(map[model.Source]int),
		IndexedTerms: len(s.index.Terms()),
		IndexWrites:  s.index.Writes(),
	}
	agents := make(map[string]struct{})
	sum := 0.0
	for _, e := range s.agentEntriesLocked(agentID) {
		st.Total++
		st.ByCategory[e.Category]++
		st.ByImportance[e.Importance]++
		st.BySource[e.Source]++
		agents[e.AgentID] = struct{}{}
		sum += e.Confidence
	}
	st.Agents = len(agents)
	if st.Total > 0 {
		st.AvgConfidence = math.Round(sum/float64(st.Total)*10000) / 10000
	}
	return st
}
