package textindex

import (
	"fmt"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Field weights for BM25F.
const (
	TitleWeight   = 3.0
	TagWeight     = 2.0
	ContentWeight = 1.0
)

// BM25 parameters and the query-side boosts.
const (
	K1 = 1.2
	B  = 0.75

	PrefixMatchWeight = 0.7
	BigramBonus       = 0.5
	MaxBigramBonus    = 2.0

	prefixLen      = 3
	queryCacheSize = 512
)

// Document is the indexable text of one memory entry.
type Document struct {
	Title   string
	Content string
	Tags    []string
}

// Hit is a scored search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

type docRecord struct {
	weightedTF  map[string]float64
	weightedLen float64
	stems       map[string]struct{}
	// title stems followed by content stems; tags are not positional
	sequence []string
}

// Index is an inverted index with field-weighted BM25 scoring. It is not safe
// for concurrent use; callers serialize access.
type Index struct {
	docs     map[string]*docRecord
	postings map[string]map[string]struct{}
	prefixes map[string]map[string]struct{}

	idf      map[string]float64
	idfStale bool
	totalLen float64
	writes   uint64

	queries *lru.Cache[string, []string]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, []string](queryCacheSize)
	return &Index{
		docs:     make(map[string]*docRecord),
		postings: make(map[string]map[string]struct{}),
		prefixes: make(map[string]map[string]struct{}),
		idf:      make(map[string]float64),
		queries:  cache,
	}
}

// Len is the number of indexed documents.
func (ix *Index) Len() int { return len(ix.docs) }

// Has reports whether id is indexed.
func (ix *Index) Has(id string) bool {
	_, ok := ix.docs[id]
	return ok
}

// AddDocument indexes doc under id, replacing any previous version.
func (ix *Index) AddDocument(id string, doc Document) {
	ix.remove(id)
	ix.writes++

	title := Tokenize(doc.Title)
	content := Tokenize(doc.Content)
	tags := Tokenize(strings.Join(doc.Tags, " "))

	rec := &docRecord{
		weightedTF: make(map[string]float64),
		stems:      make(map[string]struct{}),
		sequence:   make([]string, 0, len(title)+len(content)),
	}
	accumulate := func(stems []string, weight float64) {
		for _, s := range stems {
			rec.weightedTF[s] += weight
			rec.stems[s] = struct{}{}
		}
		rec.weightedLen += float64(len(stems)) * weight
	}
	accumulate(title, TitleWeight)
	accumulate(tags, TagWeight)
	accumulate(content, ContentWeight)
	rec.sequence = append(rec.sequence, title...)
	rec.sequence = append(rec.sequence, content...)

	ix.docs[id] = rec
	ix.totalLen += rec.weightedLen

	for s := range rec.stems {
		set, ok := ix.postings[s]
		if !ok {
			set = make(map[string]struct{})
			ix.postings[s] = set
		}
		set[id] = struct{}{}

		if len(s) >= prefixLen {
			p := s[:prefixLen]
			bucket, ok := ix.prefixes[p]
			if !ok {
				bucket = make(map[string]struct{})
				ix.prefixes[p] = bucket
			}
			bucket[s] = struct{}{}
		}
	}
	ix.idfStale = true
}

// RemoveDocument drops id from the index. It reports whether id was indexed.
func (ix *Index) RemoveDocument(id string) bool {
	if !ix.remove(id) {
		return false
	}
	ix.writes++
	return true
}

// Writes counts AddDocument calls and successful removals.
func (ix *Index) Writes() uint64 { return ix.writes }

func (ix *Index) remove(id string) bool {
	rec, ok := ix.docs[id]
	if !ok {
		return false
	}
	ix.totalLen -= rec.weightedLen
	delete(ix.docs, id)

	for s := range rec.stems {
		set := ix.postings[s]
		delete(set, id)
		if len(set) > 0 {
			continue
		}
		delete(ix.postings, s)
		delete(ix.idf, s)
		if len(s) >= prefixLen {
			p := s[:prefixLen]
			if bucket, ok := ix.prefixes[p]; ok {
				delete(bucket, s)
				if len(bucket) == 0 {
					delete(ix.prefixes, p)
				}
			}
		}
	}
	if len(ix.docs) == 0 {
		// avoid float drift accumulating across add/remove cycles
		ix.totalLen = 0
	}
	ix.idfStale = true
	return true
}

func (ix *Index) refreshIDF() {
	if !ix.idfStale {
		return
	}
	n := float64(len(ix.docs))
	idf := make(map[string]float64, len(ix.postings))
	for term, set := range ix.postings {
		df := float64(len(set))
		idf[term] = math.Log((n-df+0.5)/(df+0.5) + 1)
	}
	ix.idf = idf
	ix.idfStale = false
}

func (ix *Index) queryStems(query string) []string {
	if stems, ok := ix.queries.Get(query); ok {
		return stems
	}
	stems := Tokenize(query)
	ix.queries.Add(query, stems)
	return stems
}

// expand maps every query stem, and every indexed stem it is a literal
// prefix of, to its expansion weight.
func (ix *Index) expand(stems []string) map[string]float64 {
	terms := make(map[string]float64, len(stems))
	for _, q := range stems {
		terms[q] = 1.0
	}
	for _, q := range stems {
		if len(q) < prefixLen {
			continue
		}
		for s := range ix.prefixes[q[:prefixLen]] {
			if s == q || !strings.HasPrefix(s, q) {
				continue
			}
			if _, exact := terms[s]; !exact {
				terms[s] = PrefixMatchWeight
			}
		}
	}
	return terms
}

// Search scores documents against query. A nil candidates set searches the
// whole index; a non-nil set restricts results to its members. Results are
// ordered by descending score, ties broken by id.
func (ix *Index) Search(query string, candidates map[string]struct{}) []Hit {
	if len(ix.docs) == 0 {
		return nil
	}
	stems := ix.queryStems(query)
	if len(stems) == 0 {
		return nil
	}
	ix.refreshIDF()

	terms := ix.expand(stems)
	matched := make(map[string]struct{})
	for term := range terms {
		for id := range ix.postings[term] {
			if candidates != nil {
				if _, ok := candidates[id]; !ok {
					continue
				}
			}
			matched[id] = struct{}{}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	queryTerms := make(map[string]struct{}, len(stems))
	for _, s := range stems {
		queryTerms[s] = struct{}{}
	}

	avgLen := ix.totalLen / float64(len(ix.docs))
	if avgLen <= 0 {
		avgLen = 1
	}

	hits := make([]Hit, 0, len(matched))
	for id := range matched {
		rec := ix.docs[id]
		score := 0.0
		for term, weight := range terms {
			tf := rec.weightedTF[term]
			if tf == 0 {
				continue
			}
			norm := K1 * (1 - B + B*rec.weightedLen/avgLen)
			score += ix.idf[term] * (tf * (K1 + 1)) / (tf + norm) * weight
		}
		score += proximityBonus(rec.sequence, queryTerms)
		if score > 0 {
			hits = append(hits, Hit{ID: id, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

func proximityBonus(seq []string, queryTerms map[string]struct{}) float64 {
	if len(queryTerms) < 2 {
		return 0
	}
	bonus := 0.0
	for i := 0; i+1 < len(seq); i++ {
		a, b := seq[i], seq[i+1]
		if a == b {
			continue
		}
		if _, ok := queryTerms[a]; !ok {
			continue
		}
		if _, ok := queryTerms[b]; !ok {
			continue
		}
		bonus += BigramBonus
		if bonus >= MaxBigramBonus {
			return MaxBigramBonus
		}
	}
	return bonus
}

// Terms returns every indexed stem, sorted.
func (ix *Index) Terms() []string {
	out := make([]string, 0, len(ix.postings))
	for t := range ix.postings {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Postings returns the sorted ids containing stem.
func (ix *Index) Postings(stem string) []string {
	set := ix.postings[stem]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CheckConsistency verifies that postings, prefixes and documents agree.
func (ix *Index) CheckConsistency() error {
	total := 0.0
	for id, rec := range ix.docs {
		total += rec.weightedLen
		for s := range rec.stems {
			if _, ok := ix.postings[s][id]; !ok {
				return fmt.Errorf("doc %s: stem %q missing from postings", id, s)
			}
		}
	}
	if math.Abs(total-ix.totalLen) > 1e-6 {
		return fmt.Errorf("total length %f, docs sum to %f", ix.totalLen, total)
	}
	for term, set := range ix.postings {
		if len(set) == 0 {
			return fmt.Errorf("term %q has an empty posting set", term)
		}
		for id := range set {
			rec, ok := ix.docs[id]
			if !ok {
				return fmt.Errorf("term %q: dangling posting for %s", term, id)
			}
			if _, ok := rec.stems[term]; !ok {
				return fmt.Errorf("term %q: doc %s does not own it", term, id)
			}
		}
		if len(term) >= prefixLen {
			if _, ok := ix.prefixes[term[:prefixLen]][term]; !ok {
				return fmt.Errorf("term %q missing from prefix map", term)
			}
		}
	}
	for p, bucket := range ix.prefixes {
		if len(bucket) == 0 {
			return fmt.Errorf("prefix %q has an empty bucket", p)
		}
		for s := range bucket {
			if _, ok := ix.postings[s]; !ok {
				return fmt.Errorf("prefix %q: stem %q has no postings", p, s)
			}
		}
	}
	return nil
}
