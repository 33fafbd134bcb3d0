package store

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmem/agent-memory/internal/model"
)

func TestRefundPolicyScenario(t *testing.T) {
	s, _ := newMemStore(t)
	a := s.Create(CreateParams{
		AgentID:    "support-bot",
		Category:   model.CategoryOrgKnowledge,
		Importance: model.ImportanceCritical,
		Title:      "Refund Policy",
		Content:    "Refunds are issued within 30 days of purchase.",
		Confidence: ptr(1.0),
	})
	b := s.Create(CreateParams{
		AgentID:    "support-bot",
		Category:   model.CategoryPreference,
		Importance: model.ImportanceNormal,
		Title:      "Casual user prefers short replies",
		Content:    "Keep answers under three sentences.",
		Confidence: ptr(0.6),
	})

	got := s.Query(QueryParams{AgentID: "support-bot", Query: "refund"})
	require.NotEmpty(t, got)
	assert.Equal(t, a.ID, got[0].ID)

	res := s.GenerateContext(ContextParams{AgentID: "support-bot", Query: "refund"})
	assert.True(t, strings.HasPrefix(res.Text, "## Agent Memory"))
	assert.Contains(t, res.Text, "### Organization Knowledge")
	assert.Contains(t, res.Text, "### Preferences")
	assert.Contains(t, res.Text, "- [CRITICAL] **Refund Policy**: Refunds are issued within 30 days of purchase.")
	assert.Less(t, strings.Index(res.Text, "Refund Policy"), strings.Index(res.Text, "Casual user"))
	require.Len(t, res.Entries, 2)
	assert.Equal(t, a.ID, res.Entries[0].ID)

	// with A demoted to low, the no-query ordering flips
	s.Update(a.ID, UpdateParams{Importance: ptr(model.ImportanceLow)})

	got = s.Query(QueryParams{AgentID: "support-bot"})
	assert.Equal(t, []string{b.ID, a.ID}, ids(got))

	res = s.GenerateContext(ContextParams{AgentID: "support-bot"})
	assert.Less(t, strings.Index(res.Text, "Casual user"), strings.Index(res.Text, "Refund Policy"))
	assert.Equal(t, b.ID, res.Entries[0].ID)
}

func TestGenerateContext_Empty(t *testing.T) {
	s, _ := newMemStore(t)
	res := s.GenerateContext(ContextParams{AgentID: "nobody"})
	assert.Empty(t, res.Text)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 4000, res.Budget)

	s.Create(CreateParams{AgentID: "a1", Title: "faded", Confidence: ptr(0.05)})
	res = s.GenerateContext(ContextParams{AgentID: "a1"})
	assert.Empty(t, res.Text)
}

func TestGenerateContext_SkipsLowConfidence(t *testing.T) {
	s, _ := newMemStore(t)
	s.Create(CreateParams{AgentID: "a1", Title: "kept", Confidence: ptr(0.1)})
	s.Create(CreateParams{AgentID: "a1", Title: "dropped", Confidence: ptr(0.0999)})

	res := s.GenerateContext(ContextParams{AgentID: "a1"})
	assert.Contains(t, res.Text, "kept")
	assert.NotContains(t, res.Text, "dropped")
}

func TestGenerateContext_Budget(t *testing.T) {
	s, _ := newMemStore(t)
	for i := 0; i < 40; i++ {
		s.Create(CreateParams{
			AgentID:  "a1",
			Category: []model.Category{model.CategorySkill, model.CategoryContext, model.CategoryCorrection}[i%3],
			Title:    fmt.Sprintf("Entry %d", i),
			Content:  strings.Repeat("lorem ipsum dolor ", 3),
		})
	}

	for _, tokens := range []int{1, 5, 20, 50, 120} {
		res := s.GenerateContext(ContextParams{AgentID: "a1", MaxTokens: tokens})
		n := utf8.RuneCountInString(res.Text)
		assert.LessOrEqual(t, n, tokens*4, "tokens=%d", tokens)
		assert.Equal(t, n, res.Used)
		assert.Equal(t, tokens, res.Budget)

		for _, line := range strings.Split(res.Text, "\n") {
			if line == "" {
				continue
			}
			ok := strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ") ||
				(strings.HasPrefix(line, "- ") && strings.HasSuffix(line, "lorem ipsum dolor"))
			assert.True(t, ok, "partial line %q", line)
		}
		bullets := strings.Count(res.Text, "\n- ")
		assert.Len(t, res.Entries, bullets, "tokens=%d", tokens)
	}

	// a budget below the header size yields nothing
	res := s.GenerateContext(ContextParams{AgentID: "a1", MaxTokens: 1})
	assert.Empty(t, res.Text)
}

func TestGenerateContext_GroupsByFirstAppearance(t *testing.T) {
	s, _ := newMemStore(t)
	s.Create(CreateParams{AgentID: "a1", Title: "skill top", Category: model.CategorySkill, Importance: model.ImportanceCritical})
	s.Create(CreateParams{AgentID: "a1", Title: "pref mid", Category: model.CategoryPreference, Importance: model.ImportanceHigh})
	s.Create(CreateParams{AgentID: "a1", Title: "skill low", Category: model.CategorySkill, Importance: model.ImportanceLow})

	res := s.GenerateContext(ContextParams{AgentID: "a1"})
	skills := strings.Index(res.Text, "### Skills")
	prefs := strings.Index(res.Text, "### Preferences")
	require.GreaterOrEqual(t, skills, 0)
	require.GreaterOrEqual(t, prefs, 0)
	assert.Less(t, skills, prefs)
	assert.Equal(t, 1, strings.Count(res.Text, "### Skills"))

	// the low skill sits under the skills heading, ahead of preferences
	low := strings.Index(res.Text, "skill low")
	assert.Less(t, low, prefs)
	assert.Contains(t, res.Text, "- [CRITICAL] **skill top**")
	assert.Contains(t, res.Text, "- [HIGH] **pref mid**")
	assert.Contains(t, res.Text, "- **skill low**")
}

func TestGenerateContext_FlattensContent(t *testing.T) {
	s, _ := newMemStore(t)
	s.Create(CreateParams{AgentID: "a1", Content: "line one\nline two\n\n  line three"})
	res := s.GenerateContext(ContextParams{AgentID: "a1"})
	assert.Contains(t, res.Text, "- line one line two line three")
}

func TestGenerateContext_TrackAccess(t *testing.T) {
	s, clock := newMemStore(t)
	e := s.Create(CreateParams{AgentID: "a1", Title: "tracked"})
	clock.Advance(time.Hour)

	s.GenerateContext(ContextParams{AgentID: "a1"})
	got, _ := s.Get(e.ID)
	assert.Zero(t, got.AccessCount)

	s.GenerateContext(ContextParams{AgentID: "a1", TrackAccess: true})
	got, _ = s.Get(e.ID)
	assert.Equal(t, 1, got.AccessCount)
	require.NotNil(t, got.LastAccessedAt)
	assert.True(t, got.LastAccessedAt.Equal(clock.Now()))
}

func TestCompositeScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	e := &model.Entry{
		Confidence:  0.8,
		AccessCount: 3,
		Importance:  model.ImportanceHigh,
		CreatedAt:   now.Add(-48 * time.Hour),
	}

	access := 1 + math.Log(4)*0.3
	recency := 1 / (1 + math.Log(3)*0.2)
	want := 0.8 * access * recency * 3
	assert.InDelta(t, want, compositeScore(e, 0, now), 1e-12)
	assert.InDelta(t, want*2.5, compositeScore(e, 0.5, now), 1e-12)

	// ages under an hour count as one hour
	fresh := &model.Entry{Confidence: 1, Importance: model.ImportanceNormal, CreatedAt: now}
	assert.InDelta(t, 2/(1+math.Log(1+1.0/24)*0.2), compositeScore(fresh, 0, now), 1e-12)

	// last access, not creation, drives recency
	touched := now.Add(-time.Hour)
	e.LastAccessedAt = &touched
	assert.Greater(t, compositeScore(e, 0, now), want)
}
