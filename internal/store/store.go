// Package store holds agent memories in memory, keeps them searchable, ranks
// them for prompt assembly, and mirrors every mutation to a row store.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/agentmem/agent-memory/internal/model"
)

// Persister is the durable row store behind a MemoryStore. It is read once at
// startup and written asynchronously after each mutation.
type Persister interface {
	// LoadAll returns every stored row. A store without a schema yet
	// returns no rows and no error.
	LoadAll(ctx context.Context) ([]model.Entry, error)

	// Upsert inserts or replaces the row with e.ID.
	Upsert(ctx context.Context, e model.Entry) error

	// Delete removes the row with id. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// CreateParams holds parameters for creating a memory.
type CreateParams struct {
	AgentID    string
	OrgID      string
	Category   model.Category
	Source     model.Source
	Importance model.Importance
	Title      string
	Content    string
	Tags       []string
	Confidence *float64 // nil means 1.0
	ExpiresAt  *time.Time
	TTL        time.Duration // used when ExpiresAt is nil
	Metadata   map[string]string
}

// UpdateParams holds a partial update. Nil fields are left alone.
type UpdateParams struct {
	Title       *string
	Content     *string
	Tags        *[]string
	Category    *model.Category
	Source      *model.Source
	Importance  *model.Importance
	Confidence  *float64
	ExpiresAt   *time.Time
	ClearExpiry bool
	// Metadata is merged into the entry; an empty value deletes the key.
	Metadata map[string]string
}

func (p UpdateParams) touchesText() bool {
	return p.Title != nil || p.Content != nil || p.Tags != nil
}

// QueryParams holds parameters for listing an agent's memories.
type QueryParams struct {
	AgentID    string
	Category   model.Category   // empty matches any
	Importance model.Importance // empty matches any
	Source     model.Source     // empty matches any
	Query      string
	Limit      int
}

// Result wraps a memory with its ranking score.
type Result struct {
	model.Entry
	Score float64 `json:"score,omitempty"`
}

var ttlRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseTTL parses a TTL string like "7d", "24h", "30m" into a time.Duration.
func ParseTTL(s string) (time.Duration, error) {
	m := ttlRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid format %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "s":
		return time.Duration(n) * time.Second, nil
	}
	return 0, fmt.Errorf("unknown unit %q", m[2])
}
