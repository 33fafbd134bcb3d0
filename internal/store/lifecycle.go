package store

import (
	"math"
	"time"

	"github.com/agentmem/agent-memory/internal/config"
	"github.com/agentmem/agent-memory/internal/model"
)

// DecayAfter is how long an entry must go untouched before it decays.
const DecayAfter = 7 * 24 * time.Hour

// DecayConfidence lowers the confidence of an agent's stale memories by rate
// (default 0.05). Critical memories never decay. It returns how many
// memories changed.
func (s *MemoryStore) DecayConfidence(agentID string, rate float64) int {
	if rate <= 0 {
		rate = config.DefaultDecayRate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-DecayAfter)
	changed := 0
	for _, e := range s.agentEntriesLocked(agentID) {
		if e.Importance == model.ImportanceCritical {
			continue
		}
		if e.TouchedAt().After(cutoff) {
			continue
		}
		next := math.Round(math.Max(0, e.Confidence-rate)*10000) / 10000
		if next == e.Confidence {
			continue
		}
		e.Confidence = next
		e.UpdatedAt = now.UTC()
		s.schedUpsert(e)
		changed++
	}
	if changed > 0 {
		s.obs.Log().Info().Str("agent", agentID).Int("count", changed).Msg("confidence decayed")
	}
	return changed
}

// PruneExpired deletes memories whose confidence fell below MinConfidence or
// whose expiry has passed. An empty agentID prunes every agent.
func (s *MemoryStore) PruneExpired(agentID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var doomed []string
	for _, e := range s.agentEntriesLocked(agentID) {
		if e.Confidence < MinConfidence || (e.ExpiresAt != nil && !e.ExpiresAt.After(now)) {
			doomed = append(doomed, e.ID)
		}
	}
	for _, id := range doomed {
		s.removeLocked(id)
	}
	if len(doomed) > 0 {
		s.obs.Log().Info().Str("agent", agentID).Int("count", len(doomed)).Msg("memories pruned")
	}
	return len(doomed)
}
