// File path: internal/vector/store.go
package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Yoshani/team-xc7/internal/common"
)

// TextType tags what kind of text an embedding was computed from.
type TextType string

const (
	TypeFR      TextType = "fr"
	TypeNFR     TextType = "nfr"
	TypeSeedFR  TextType = "seed_fr"
	TypeSeedNFR TextType = "seed_nfr"
	TypeSeed    TextType = "seed_pair"
)

var (
	// ErrNotFound reports that no embeddings exist for the requested text
	// type. Callers treating an empty corpus as a valid state should check
	// for it with errors.Is.
	ErrNotFound = errors.New("no embeddings for requested type")
	// ErrDimensionMismatch reports a vector whose length disagrees with the
	// index dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Store is the contract the retriever and workflow layers depend on.
type Store interface {
	Put(ctx context.Context, textType TextType, referenceID string, vec []float32) error
	Query(ctx context.Context, textType TextType, vec []float32, k int) ([]Match, error)
	Remove(textType TextType, referenceID string)
	RemoveRef(referenceID string)
	Count(textType TextType) int
	Dimension() int
}

// Match is a single k-NN result, highest cosine similarity first.
type Match struct {
	ReferenceID string    `json:"reference_id"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

type entry struct {
	vec     []float32
	norm    float64
	seq     int64
	created time.Time
}

// Index is an in-process embedding index keyed by (text type, reference id).
// Each key holds at most one current embedding; Put replaces atomically so a
// concurrent Query never observes a partially written vector.
type Index struct {
	mu      sync.RWMutex
	dim     int
	seq     int64
	entries map[TextType]map[string]*entry

	cfg Config
}

func NewFromEnv() (*Index, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg), nil
}

// New constructs an index using the provided configuration. A zero configured
// dimension means the first inserted vector fixes it.
func New(cfg Config) *Index {
	logger := common.Logger()
	logger.Info("vector: initializing embedding index", "dimension", cfg.Dimension, "default_limit", cfg.DefaultLimit)
	return &Index{
		dim:     cfg.Dimension,
		entries: make(map[TextType]map[string]*entry),
		cfg:     cfg,
	}
}

// Put stores or replaces the embedding for (textType, referenceID).
func (ix *Index) Put(ctx context.Context, textType TextType, referenceID string, vec []float32) error {
	if ix == nil {
		return errors.New("vector index not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	referenceID = strings.TrimSpace(referenceID)
	if referenceID == "" {
		return errors.New("reference id required")
	}
	if len(vec) == 0 {
		return fmt.Errorf("put %s/%s: %w", textType, referenceID, ErrDimensionMismatch)
	}
	// Copy and pre-compute outside the write lock so the swap below is the
	// only mutation readers can race with.
	stored := make([]float32, len(vec))
	copy(stored, vec)
	e := &entry{vec: stored, norm: norm(stored), created: time.Now().UTC()}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.dim == 0 {
		ix.dim = len(stored)
	} else if len(stored) != ix.dim {
		return fmt.Errorf("put %s/%s: got %d dims, index has %d: %w",
			textType, referenceID, len(stored), ix.dim, ErrDimensionMismatch)
	}
	ix.seq++
	e.seq = ix.seq
	bucket, ok := ix.entries[textType]
	if !ok {
		bucket = make(map[string]*entry)
		ix.entries[textType] = bucket
	}
	bucket[referenceID] = e
	return nil
}

// Query returns the k reference ids most similar to vec within the given text
// type. Ordering is deterministic: cosine similarity descending, ties broken
// by most recent insertion.
func (ix *Index) Query(ctx context.Context, textType TextType, vec []float32, k int) ([]Match, error) {
	if ix == nil {
		return nil, errors.New("vector index not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = ix.cfg.DefaultLimit
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	bucket := ix.entries[textType]
	if len(bucket) == 0 {
		return nil, fmt.Errorf("query %s: %w", textType, ErrNotFound)
	}
	if ix.dim != 0 && len(vec) != ix.dim {
		return nil, fmt.Errorf("query %s: got %d dims, index has %d: %w",
			textType, len(vec), ix.dim, ErrDimensionMismatch)
	}
	qnorm := norm(vec)
	type scored struct {
		id    string
		score float64
		seq   int64
		at    time.Time
	}
	results := make([]scored, 0, len(bucket))
	for id, e := range bucket {
		results = append(results, scored{id: id, score: cosine(vec, qnorm, e.vec, e.norm), seq: e.seq, at: e.created})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].seq > results[j].seq
	})
	if len(results) > k {
		results = results[:k]
	}
	out := make([]Match, 0, len(results))
	for _, r := range results {
		out = append(out, Match{ReferenceID: r.id, Score: r.score, CreatedAt: r.at})
	}
	return out, nil
}

// Remove deletes the embedding for (textType, referenceID) if present.
func (ix *Index) Remove(textType TextType, referenceID string) {
	if ix == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.entries[textType], referenceID)
}

// RemoveRef garbage-collects every embedding referencing the given id across
// all text types. Embeddings are not foreign-keyed in the catalog, so entity
// deletion must reach them through here.
func (ix *Index) RemoveRef(referenceID string) {
	if ix == nil {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, bucket := range ix.entries {
		delete(bucket, referenceID)
	}
}

// Count reports how many embeddings exist for a text type.
func (ix *Index) Count(textType TextType) int {
	if ix == nil {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries[textType])
}

// Dimension reports the fixed dimensionality, or zero before the first insert.
func (ix *Index) Dimension() int {
	if ix == nil {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

var _ Store = (*Index)(nil)

func norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if len(a) != len(b) || aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}
