// Package model defines the core memory data types.
package model

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxContentLength caps entry content, in runes, at write time.
const MaxContentLength = 10000

// Category classifies what kind of knowledge an entry holds.
type Category string

const (
	CategoryOrgKnowledge       Category = "org_knowledge"
	CategoryInteractionPattern Category = "interaction_pattern"
	CategoryPreference         Category = "preference"
	CategoryCorrection         Category = "correction"
	CategorySkill              Category = "skill"
	CategoryContext            Category = "context"
	CategoryReflection         Category = "reflection"
)

// Source records how an entry came to exist.
type Source string

const (
	SourceOnboarding     Source = "onboarding"
	SourceInteraction    Source = "interaction"
	SourceAdmin          Source = "admin"
	SourceSelfReflection Source = "self_reflection"
	SourceCorrection     Source = "correction"
)

// Importance is the priority tier of an entry.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceNormal   Importance = "normal"
	ImportanceLow      Importance = "low"
)

// ValidCategories are the allowed categories.
var ValidCategories = map[Category]bool{
	CategoryOrgKnowledge:       true,
	CategoryInteractionPattern: true,
	CategoryPreference:         true,
	CategoryCorrection:         true,
	CategorySkill:              true,
	CategoryContext:            true,
	CategoryReflection:         true,
}

// ValidSources are the allowed sources.
var ValidSources = map[Source]bool{
	SourceOnboarding:     true,
	SourceInteraction:    true,
	SourceAdmin:          true,
	SourceSelfReflection: true,
	SourceCorrection:     true,
}

// ValidImportances are the allowed importance levels.
var ValidImportances = map[Importance]bool{
	ImportanceCritical: true,
	ImportanceHigh:     true,
	ImportanceNormal:   true,
	ImportanceLow:      true,
}

var categoryLabels = map[Category]string{
	CategoryOrgKnowledge:       "Organization Knowledge",
	CategoryInteractionPattern: "Interaction Patterns",
	CategoryPreference:         "Preferences",
	CategoryCorrection:         "Corrections",
	CategorySkill:              "Skills",
	CategoryContext:            "Context",
	CategoryReflection:         "Reflections",
}

// Label is the human-readable heading for the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Weight maps the importance tier to its ranking multiplier.
func (i Importance) Weight() int {
	switch i {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceNormal:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 2
	}
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !ValidCategories[c] {
		return "", fmt.Errorf("invalid category %q", s)
	}
	return c, nil
}

// ParseSource validates a source string.
func ParseSource(s string) (Source, error) {
	src := Source(s)
	if !ValidSources[src] {
		return "", fmt.Errorf("invalid source %q", s)
	}
	return src, nil
}

// ParseImportance validates an importance string.
func ParseImportance(s string) (Importance, error) {
	i := Importance(s)
	if !ValidImportances[i] {
		return "", fmt.Errorf("invalid importance %q (valid: critical, high, normal, low)", s)
	}
	return i, nil
}

// Entry is a single unit of agent knowledge.
type Entry struct {
	ID             string            `json:"id"`
	AgentID        string            `json:"agent_id"`
	OrgID          string            `json:"org_id,omitempty"`
	Category       Category          `json:"category"`
	Source         Source            `json:"source"`
	Importance     Importance        `json:"importance"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Tags           []string          `json:"tags,omitempty"`
	Confidence     float64           `json:"confidence"`
	AccessCount    int               `json:"access_count"`
	LastAccessedAt *time.Time        `json:"last_accessed_at,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// TouchedAt is the last time the entry was accessed, or its creation time.
func (e *Entry) TouchedAt() time.Time {
	if e.LastAccessedAt != nil {
		return *e.LastAccessedAt
	}
	return e.CreatedAt
}

// Clone returns a deep copy.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Tags != nil {
		c.Tags = append([]string(nil), e.Tags...)
	}
	if e.Metadata != nil {
		c.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			c.Metadata[k] = v
		}
	}
	if e.LastAccessedAt != nil {
		t := *e.LastAccessedAt
		c.LastAccessedAt = &t
	}
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

// ClampConfidence bounds c to [0, 1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// TruncateContent cuts s to MaxContentLength runes.
func TruncateContent(s string) string {
	if utf8.RuneCountInString(s) <= MaxContentLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxContentLength])
}

// NormalizeTags drops empty and duplicate tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
