package store

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agentmem/agent-memory/internal/config"
	"github.com/agentmem/agent-memory/internal/model"
)

// Ranking constants.
const (
	MinConfidence = 0.1 // below this an entry is neither ranked nor kept

	accessFactor    = 0.3
	recencyFactor   = 0.2
	relevanceFactor = 3.0
	charsPerToken   = 4

	contextHeader = "## Agent Memory"
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	AgentID   string
	Query     string
	MaxTokens int // default config.DefaultBudget
	// TrackAccess records an access for every entry that makes it into the
	// output.
	TrackAccess bool
}

// ContextEntry is one memory included in the assembled context.
type ContextEntry struct {
	ID         string           `json:"id"`
	Category   model.Category   `json:"category"`
	Importance model.Importance `json:"importance"`
	Title      string           `json:"title"`
	Score      float64          `json:"score"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Text    string         `json:"text"`
	Budget  int            `json:"budget"` // tokens
	Used    int            `json:"used"`   // characters
	Entries []ContextEntry `json:"entries"`
}

type scored struct {
	entry *model.Entry
	score float64
}

// compositeScore blends confidence, access frequency, recency, importance and
// query relevance into a single ranking value.
func compositeScore(e *model.Entry, relevance float64, now time.Time) float64 {
	access := 1 + math.Log(1+float64(e.AccessCount))*accessFactor

	ageHours := now.Sub(e.TouchedAt()).Hours()
	if ageHours < 1 {
		ageHours = 1
	}
	recency := 1 / (1 + math.Log(1+ageHours/24)*recencyFactor)

	rel := 1.0
	if relevance > 0 {
		rel = 1 + relevance*relevanceFactor
	}
	return e.Confidence * access * recency * float64(e.Importance.Weight()) * rel
}

func badge(i model.Importance) string {
	switch i {
	case model.ImportanceCritical:
		return "[CRITICAL] "
	case model.ImportanceHigh:
		return "[HIGH] "
	}
	return ""
}

func bullet(e *model.Entry) string {
	content := strings.Join(strings.Fields(e.Content), " ")
	title := strings.Join(strings.Fields(e.Title), " ")

	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(badge(e.Importance))
	switch {
	case title != "" && content != "":
		b.WriteString("**" + title + "**: " + content)
	case title != "":
		b.WriteString("**" + title + "**")
	default:
		b.WriteString(content)
	}
	b.WriteString("\n")
	return b.String()
}

// GenerateContext renders an agent's most useful memories as markdown that
// fits within p.MaxTokens (at four characters per token). Output stops at
// the first section or bullet that would overflow, so it never ends
// mid-line.
func (s *MemoryStore) GenerateContext(p ContextParams) *ContextResult {
	budget := p.MaxTokens
	if budget <= 0 {
		budget = config.DefaultBudget
	}
	charBudget := budget * charsPerToken
	result := &ContextResult{Budget: budget, Entries: []ContextEntry{}}

	s.mu.Lock()
	defer s.mu.Unlock()

	var eligible []*model.Entry
	candidates := make(map[string]struct{})
	for _, e := range s.agentEntriesLocked(p.AgentID) {
		if e.Confidence >= MinConfidence {
			eligible = append(eligible, e)
			candidates[e.ID] = struct{}{}
		}
	}
	if len(eligible) == 0 {
		return result
	}

	relevance := make(map[string]float64)
	if strings.TrimSpace(p.Query) != "" {
		hits := s.index.Search(p.Query, candidates)
		if len(hits) > 0 && hits[0].Score > 0 {
			top := hits[0].Score
			for _, h := range hits {
				relevance[h.ID] = h.Score / top
			}
		}
	}

	now := s.now()
	ranked := make([]scored, 0, len(eligible))
	for _, e := range eligible {
		ranked = append(ranked, scored{entry: e, score: compositeScore(e, relevance[e.ID], now)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entry.ID < ranked[j].entry.ID
	})

	// group by category in order of first appearance
	var order []model.Category
	groups := make(map[model.Category][]scored)
	for _, r := range ranked {
		c := r.entry.Category
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], r)
	}

	var b strings.Builder
	used := 0
	write := func(piece string) bool {
		n := utf8.RuneCountInString(piece)
		if used+n > charBudget {
			return false
		}
		b.WriteString(piece)
		used += n
		return true
	}

	var emitted []string
	if write(contextHeader + "\n") {
	assemble:
		for _, c := range order {
			if !write("\n### " + c.Label() + "\n") {
				break
			}
			for _, r := range groups[c] {
				if !write(bullet(r.entry)) {
					break assemble
				}
				emitted = append(emitted, r.entry.ID)
				result.Entries = append(result.Entries, ContextEntry{
					ID:         r.entry.ID,
					Category:   r.entry.Category,
					Importance: r.entry.Importance,
					Title:      r.entry.Title,
					Score:      math.Round(r.score*10000) / 10000,
				})
			}
		}
	}

	result.Text = strings.TrimSpace(b.String())
	result.Used = utf8.RuneCountInString(result.Text)

	if p.TrackAccess && len(emitted) > 0 {
		s.recordAccessLocked(emitted)
	}
	return result
}
