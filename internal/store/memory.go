package store

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agentmem/agent-memory/internal/config"
	"github.com/agentmem/agent-memory/internal/model"
	"github.com/agentmem/agent-memory/internal/observe"
	"github.com/agentmem/agent-memory/internal/textindex"
)

// MemoryStore is the authoritative in-memory copy of every agent's memories.
// All public methods are safe for concurrent use and never wait on the
// Persister.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*model.Entry
	byAgent map[string]map[string]struct{}
	index   *textindex.Index

	queue   *persistQueue
	persist Persister
	obs     *observe.Observer
	now     func() time.Time
	entropy *rand.Rand
	timeout time.Duration
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithObserver sets the logger and tracer.
func WithObserver(o *observe.Observer) Option {
	return func(s *MemoryStore) { s.obs = o }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// WithPersistTimeout bounds each Persister call.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New returns an empty store with no durable backing.
func New(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*model.Entry),
		byAgent: make(map[string]map[string]struct{}),
		index:   textindex.NewIndex(),
		obs:     observe.Discard(),
		now:     time.Now,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
		timeout: config.DefaultPersistTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Open loads every row from p and mirrors later mutations back to it. A load
// failure is logged and the store starts empty.
func Open(ctx context.Context, p Persister, opts ...Option) *MemoryStore {
	s := New(opts...)
	s.persist = p
	s.queue = newPersistQueue(p, s.obs, s.timeout)

	ctx, span := s.obs.StartSpan(ctx, "memory.load")
	defer span.End()

	rows, err := p.LoadAll(ctx)
	if err != nil {
		span.RecordError(err)
		s.obs.Log().Error().Err(err).Msg("load memories failed, starting empty")
		return s
	}

	loaded := 0
	for i := range rows {
		e := rows[i].Clone()
		if e.ID == "" || !model.ValidCategories[e.Category] || !model.ValidImportances[e.Importance] {
			s.obs.Log().Warn().Str("id", e.ID).Msg("skipping invalid row")
			continue
		}
		s.insertLocked(e)
		loaded++
	}
	s.obs.Log().Info().Int("count", loaded).Msg("memories loaded")
	return s
}

// Flush blocks until queued writes have reached the Persister.
func (s *MemoryStore) Flush() {
	if s.queue != nil {
		s.queue.flush()
	}
}

// Close drains pending writes and closes the Persister.
func (s *MemoryStore) Close() error {
	if s.queue == nil {
		return nil
	}
	s.queue.close()
	return s.persist.Close()
}

func (s *MemoryStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

func (s *MemoryStore) schedUpsert(e *model.Entry) {
	if s.queue != nil {
		s.queue.upsert(e)
	}
}

func (s *MemoryStore) schedDelete(id string) {
	if s.queue != nil {
		s.queue.delete(id)
	}
}

func docOf(e *model.Entry) textindex.Document {
	return textindex.Document{Title: e.Title, Content: e.Content, Tags: e.Tags}
}

// insertLocked stores e, replacing any entry with the same id.
func (s *MemoryStore) insertLocked(e *model.Entry) {
	if old, ok := s.entries[e.ID]; ok && old.AgentID != e.AgentID {
		s.unlinkAgentLocked(old.AgentID, old.ID)
	}
	s.entries[e.ID] = e
	set, ok := s.byAgent[e.AgentID]
	if !ok {
		set = make(map[string]struct{})
		s.byAgent[e.AgentID] = set
	}
	set[e.ID] = struct{}{}
	s.index.AddDocument(e.ID, docOf(e))
}

func (s *MemoryStore) unlinkAgentLocked(agentID, id string) {
	set := s.byAgent[agentID]
	delete(set, id)
	if len(set) == 0 {
		delete(s.byAgent, agentID)
	}
}

func (s *MemoryStore) removeLocked(id string) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)
	s.unlinkAgentLocked(e.AgentID, id)
	s.index.RemoveDocument(id)
	s.schedDelete(id)
	return true
}

// agentEntriesLocked returns the live entries of agentID, or of every agent
// when agentID is empty.
func (s *MemoryStore) agentEntriesLocked(agentID string) []*model.Entry {
	if agentID == "" {
		out := make([]*model.Entry, 0, len(s.entries))
		for _, e := range s.entries {
			out = append(out, e)
		}
		return out
	}
	set := s.byAgent[agentID]
	out := make([]*model.Entry, 0, len(set))
	for id := range set {
		out = append(out, s.entries[id])
	}
	return out
}

// Create stores a new memory and returns a copy of it.
func (s *MemoryStore) Create(p CreateParams) *model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.buildLocked(p)
	s.insertLocked(e)
	s.schedUpsert(e)
	return e.Clone()
}

func (s *MemoryStore) buildLocked(p CreateParams) *model.Entry {
	now := s.now().UTC()
	e := &model.Entry{
		ID:         s.newID(),
		AgentID:    p.AgentID,
		OrgID:      p.OrgID,
		Category:   p.Category,
		Source:     p.Source,
		Importance: p.Importance,
		Title:      p.Title,
		Content:    model.TruncateContent(p.Content),
		Tags:       model.NormalizeTags(p.Tags),
		Confidence: 1.0,
		CreatedAt:  now,
		UpdatedAt:  now,
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
	if p.Confidence != nil {
		e.Confidence = model.ClampConfidence(*p.Confidence)
	}
	switch {
	case p.ExpiresAt != nil:
		t := p.ExpiresAt.UTC()
		e.ExpiresAt = &t
	case p.TTL > 0:
		t := now.Add(p.TTL)
		e.ExpiresAt = &t
	}
	if len(p.Metadata) > 0 {
		e.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			e.Metadata[k] = v
		}
	}
	return e
}

// Update applies p to the memory with id. Only title, content and tag
// changes re-index the entry.
func (s *MemoryStore) Update(id string, p UpdateParams) (*model.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	s.applyLocked(e, p)
	return e.Clone(), true
}

func (s *MemoryStore) applyLocked(e *model.Entry, p UpdateParams) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = model.TruncateContent(*p.Content)
	}
	if p.Tags != nil {
		e.Tags = model.NormalizeTags(*p.Tags)
	}
	if p.Category != nil && model.ValidCategories[*p.Category] {
		e.Category = *p.Category
	}
	if p.Source != nil && model.ValidSources[*p.Source] {
		e.Source = *p.Source
	}
	if p.Importance != nil && model.ValidImportances[*p.Importance] {
		e.Importance = *p.Importance
	}
	if p.Confidence != nil {
		e.Confidence = model.ClampConfidence(*p.Confidence)
	}
	switch {
	case p.ClearExpiry:
		e.ExpiresAt = nil
	case p.ExpiresAt != nil:
		t := p.ExpiresAt.UTC()
		e.ExpiresAt = &t
	}
	for k, v := range p.Metadata {
		if e.Metadata == nil {
			e.Metadata = make(map[string]string)
		}
		if v == "" {
			delete(e.Metadata, k)
		} else {
			e.Metadata[k] = v
		}
	}
	if len(e.Metadata) == 0 {
		e.Metadata = nil
	}
	e.UpdatedAt = s.now().UTC()

	if p.touchesText() {
		s.index.AddDocument(e.ID, docOf(e))
	}
	s.schedUpsert(e)
}

// Delete removes the memory with id. It reports whether it existed.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(id)
}

// Get returns a copy of the memory with id. It does not count as an access.
func (s *MemoryStore) Get(id string) (*model.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// RecordAccess bumps the access count and last-access time of each known id.
// It returns how many ids were found.
func (s *MemoryStore) RecordAccess(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordAccessLocked(ids)
}

func (s *MemoryStore) recordAccessLocked(ids []string) int {
	now := s.now().UTC()
	n := 0
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		e.AccessCount++
		t := now
		e.LastAccessedAt = &t
		s.schedUpsert(e)
		n++
	}
	return n
}

// Agents returns the ids of every agent with at least one memory.
func (s *MemoryStore) Agents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.byAgent))
	for id := range s.byAgent {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len is the number of stored memories.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
