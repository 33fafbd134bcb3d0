package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/agent-memory/internal/model"
)

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestQuery_NoQueryOrdering(t *testing.T) {
	s, clock := newMemStore(t)
	low := s.Create(CreateParams{AgentID: "a1", Title: "low", Importance: model.ImportanceLow})
	clock.Advance(time.Minute)
	oldNormal := s.Create(CreateParams{AgentID: "a1", Title: "old normal"})
	clock.Advance(time.Minute)
	newNormal := s.Create(CreateParams{AgentID: "a1", Title: "new normal"})
	clock.Advance(time.Minute)
	crit := s.Create(CreateParams{AgentID: "a1", Title: "crit", Importance: model.ImportanceCritical})

	got := s.Query(QueryParams{AgentID: "a1"})
	assert.Equal(t, []string{crit.ID, newNormal.ID, oldNormal.ID, low.ID}, ids(got))

	assert.Len(t, s.Query(QueryParams{AgentID: "a1", Limit: 2}), 2)
	assert.Empty(t, s.Query(QueryParams{AgentID: "nobody"}))
}

func TestQuery_Filters(t *testing.T) {
	s, _ := newMemStore(t)
	skill := s.Create(CreateParams{AgentID: "a1", Category: model.CategorySkill, Source: model.SourceOnboarding})
	s.Create(CreateParams{AgentID: "a1", Category: model.CategoryPreference, Importance: model.ImportanceHigh})
	s.Create(CreateParams{AgentID: "a2", Category: model.CategorySkill})

	got := s.Query(QueryParams{AgentID: "a1", Category: model.CategorySkill})
	assert.Equal(t, []string{skill.ID}, ids(got))

	got = s.Query(QueryParams{AgentID: "a1", Importance: model.ImportanceHigh})
	require.Len(t, got, 1)
	assert.Equal(t, model.CategoryPreference, got[0].Category)

	got = s.Query(QueryParams{AgentID: "a1", Source: model.SourceOnboarding})
	assert.Equal(t, []string{skill.ID}, ids(got))
}

func TestQuery_RanksHitsByImportance(t *testing.T) {
	s, _ := newMemStore(t)
	normal := s.Create(CreateParams{AgentID: "a1", Title: "Deploy checklist", Content: "run the deploy script"})
	crit := s.Create(CreateParams{AgentID: "a1", Title: "Deploy freeze", Importance: model.ImportanceCritical})
	s.Create(CreateParams{AgentID: "a1", Title: "Lunch menu"})

	got := s.Query(QueryParams{AgentID: "a1", Query: "deploy"})
	require.Len(t, got, 2)
	assert.Equal(t, crit.ID, got[0].ID)
	assert.Equal(t, normal.ID, got[1].ID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestQuery_FallbackWhenNoHits(t *testing.T) {
	s, clock := newMemStore(t)
	a := s.Create(CreateParams{AgentID: "a1", Title: "alpha"})
	clock.Advance(time.Minute)
	b := s.Create(CreateParams{AgentID: "a1", Title: "beta", Importance: model.ImportanceHigh})

	got := s.Query(QueryParams{AgentID: "a1", Query: "zebra"})
	assert.Equal(t, []string{b.ID, a.ID}, ids(got))
	for _, r := range got {
		assert.Zero(t, r.Score)
	}
}

func TestQuery_ScopedToAgentAndFilters(t *testing.T) {
	s, _ := newMemStore(t)
	s.Create(CreateParams{AgentID: "a2", Title: "refund rules"})
	pref := s.Create(CreateParams{AgentID: "a1", Title: "refund tone", Category: model.CategoryPreference})
	s.Create(CreateParams{AgentID: "a1", Title: "refund policy", Category: model.CategoryOrgKnowledge})

	got := s.Query(QueryParams{AgentID: "a1", Query: "refund", Category: model.CategoryPreference})
	assert.Equal(t, []string{pref.ID}, ids(got))
}

func TestSearch_Scope(t *testing.T) {
	s, _ := newMemStore(t)
	s.Create(CreateParams{AgentID: "a1", Title: "kubernetes upgrade"})
	s.Create(CreateParams{AgentID: "a2", Title: "kubernetes rollback"})

	assert.Len(t, s.Search("", "kubernetes", 10), 2)
	assert.Len(t, s.Search("a1", "kubernetes", 10), 1)
	assert.Empty(t, s.Search("a3", "kubernetes", 10))
	assert.Len(t, s.Search("", "kubernetes", 1), 1)
	assert.Empty(t, s.Search("", "", 10))
}

func TestRecent(t *testing.T) {
	s, clock := newMemStore(t)
	old := s.Create(CreateParams{AgentID: "a1", Title: "old"})
	clock.Advance(48 * time.Hour)
	mid := s.Create(CreateParams{AgentID: "a1", Title: "mid"})
	clock.Advance(time.Hour)
	fresh := s.Create(CreateParams{AgentID: "a1", Title: "fresh"})

	got := s.Recent("a1", 24*time.Hour, 10)
	assert.Equal(t, []string{fresh.ID, mid.ID}, ids(got))

	got = s.Recent("a1", 72*time.Hour, 10)
	assert.Equal(t, []string{fresh.ID, mid.ID, old.ID}, ids(got))

	assert.Len(t, s.Recent("a1", 72*time.Hour, 1), 1)
}
