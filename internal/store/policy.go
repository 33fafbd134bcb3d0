package store

import (
	"strings"

	"github.com/agentmem/agent-memory/internal/model"
)

// Policy enforcement levels.
const (
	EnforcementMandatory     = "mandatory"
	EnforcementRecommended   = "recommended"
	EnforcementInformational = "informational"
)

// SeedPolicyParams describes an organizational policy to seed into an
// agent's memory.
type SeedPolicyParams struct {
	AgentID     string
	OrgID       string
	PolicyID    string
	Name        string
	Content     string
	Enforcement string
	Tags        []string
}

// ImportanceForEnforcement maps a policy enforcement level to an importance.
func ImportanceForEnforcement(level string) model.Importance {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case EnforcementMandatory:
		return model.ImportanceCritical
	case EnforcementRecommended:
		return model.ImportanceHigh
	default:
		return model.ImportanceNormal
	}
}

// SeedPolicy stores a policy as org knowledge for an agent. Seeding the same
// policy id for the same agent again updates the earlier entry.
func (s *MemoryStore) SeedPolicy(p SeedPolicyParams) *model.Entry {
	importance := ImportanceForEnforcement(p.Enforcement)
	meta := map[string]string{"policy_id": p.PolicyID, "enforcement": p.Enforcement}

	s.mu.Lock()
	defer s.mu.Unlock()

	if p.PolicyID != "" {
		for _, e := range s.agentEntriesLocked(p.AgentID) {
			if e.Metadata["policy_id"] != p.PolicyID {
				continue
			}
			category := model.CategoryOrgKnowledge
			source := model.SourceAdmin
			tags := p.Tags
			s.applyLocked(e, UpdateParams{
				Title:      &p.Name,
				Content:    &p.Content,
				Tags:       &tags,
				Category:   &category,
				Source:     &source,
				Importance: &importance,
				Metadata:   meta,
			})
			return e.Clone()
		}
	}

	e := s.buildLocked(CreateParams{
		AgentID:    p.AgentID,
		OrgID:      p.OrgID,
		Category:   model.CategoryOrgKnowledge,
		Source:     model.SourceAdmin,
		Importance: importance,
		Title:      p.Name,
		Content:    p.Content,
		Tags:       p.Tags,
		Metadata:   meta,
	})
	s.insertLocked(e)
	s.schedUpsert(e)
	return e.Clone()
}
