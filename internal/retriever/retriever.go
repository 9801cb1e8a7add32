// File path: internal/retriever/retriever.go
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/llm"
	"github.com/Yoshani/team-xc7/internal/vector"
)

// Embedder is the minimal contract needed to turn text into query vectors.
type Embedder interface {
	Embed(ctx context.Context, input []string) ([][]float32, error)
}

// SeedReader is the persistence surface the retriever needs.
type SeedReader interface {
	ListSeedPairs(ctx context.Context) ([]catalog.SeedPair, error)
	GetSeedPair(ctx context.Context, pairID string) (*catalog.SeedPair, error)
	CreateSeedPair(ctx context.Context, frText, nfrText, source string, qualityChecked bool) (*catalog.SeedPair, error)
}

var _ SeedReader = (*catalog.Store)(nil)
var _ Embedder = llm.Provider(nil)

// Example is one retrieved seed pair with its similarity score.
type Example struct {
	PairID  string  `json:"pair_id"`
	FRText  string  `json:"fr_text"`
	NFRText string  `json:"nfr_text"`
	Source  string  `json:"source,omitempty"`
	Score   float64 `json:"score"`
}

type Option func(*Retriever)

// WithCacheSize overrides the query embedding cache capacity.
func WithCacheSize(size int) Option {
	return func(r *Retriever) {
		r.cache = newEmbedCache(size)
	}
}

// WithDefaultLimit overrides how many examples are returned by default.
func WithDefaultLimit(limit int) Option {
	return func(r *Retriever) {
		if limit > 0 {
			r.cfg.DefaultLimit = limit
		}
	}
}

// Retriever finds the seed examples most similar to a query requirement. Seed
// pairs are indexed by their FR text: retrieval queries describe a functional
// requirement and the matched pairs supply the NFR exemplars.
type Retriever struct {
	cfg      Config
	embedder Embedder
	index    vector.Store
	store    SeedReader
	cache    *embedCache
}

// New builds a retriever with environment-derived configuration.
func New(embedder Embedder, index vector.Store, store SeedReader, opts ...Option) (*Retriever, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg, embedder, index, store, opts...), nil
}

// NewWithConfig builds a retriever with explicit configuration.
func NewWithConfig(cfg Config, embedder Embedder, index vector.Store, store SeedReader, opts ...Option) *Retriever {
	cfg.applyDefaults()
	r := &Retriever{
		cfg:      cfg,
		embedder: embedder,
		index:    index,
		store:    store,
		cache:    newEmbedCache(cfg.CacheSize),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.cache == nil {
		r.cache = newEmbedCache(cfg.CacheSize)
	}
	return r
}

// Ingest persists a new seed pair and indexes its FR text.
func (r *Retriever) Ingest(ctx context.Context, frText, nfrText, source string, qualityChecked bool) (*catalog.SeedPair, error) {
	if r == nil || r.store == nil {
		return nil, errors.New("retriever not initialised")
	}
	pair, err := r.store.CreateSeedPair(ctx, frText, nfrText, source, qualityChecked)
	if err != nil {
		return nil, err
	}
	if err := r.indexPair(ctx, pair); err != nil {
		return nil, fmt.Errorf("index seed pair %s: %w", pair.ID, err)
	}
	common.Logger().Info("retriever: seed pair ingested",
		"pair", pair.ID, "source", pair.Source)
	return pair, nil
}

// Sync re-embeds every stored seed pair into the index. Called at startup so
// the in-memory index reflects the durable corpus.
func (r *Retriever) Sync(ctx context.Context) (int, error) {
	if r == nil || r.store == nil {
		return 0, errors.New("retriever not initialised")
	}
	pairs, err := r.store.ListSeedPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list seed pairs: %w", err)
	}
	for i := range pairs {
		if err := r.indexPair(ctx, &pairs[i]); err != nil {
			return i, fmt.Errorf("index seed pair %s: %w", pairs[i].ID, err)
		}
	}
	common.Logger().Info("retriever: seed corpus synced", "pairs", len(pairs))
	return len(pairs), nil
}

func (r *Retriever) indexPair(ctx context.Context, pair *catalog.SeedPair) error {
	vectors, err := r.embedder.Embed(ctx, []string{pair.FRText})
	if err != nil {
		return err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return errors.New("embedder returned no vector")
	}
	return r.index.Put(ctx, vector.TypeSeed, pair.ID, vectors[0])
}

// Retrieve returns up to k seed examples most similar to the query, best
// first. An empty corpus yields an empty slice, not an error; a corpus
// smaller than k yields what exists.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Example, error) {
	if r == nil || r.store == nil {
		return nil, errors.New("retriever not initialised")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("retriever: query required")
	}
	if k <= 0 {
		k = r.cfg.DefaultLimit
	}

	vec, err := r.queryVector(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	matches, err := r.index.Query(ctx, vector.TypeSeed, vec, k)
	if errors.Is(err, vector.ErrNotFound) {
		return []Example{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}

	examples := make([]Example, 0, len(matches))
	for _, match := range matches {
		pair, err := r.store.GetSeedPair(ctx, match.ReferenceID)
		if errors.Is(err, catalog.ErrNotFound) {
			// Index entry outlived its row; drop it and move on.
			r.index.Remove(vector.TypeSeed, match.ReferenceID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load seed pair %s: %w", match.ReferenceID, err)
		}
		examples = append(examples, Example{
			PairID:  pair.ID,
			FRText:  pair.FRText,
			NFRText: pair.NFRText,
			Source:  pair.Source,
			Score:   match.Score,
		})
	}
	common.Logger().Debug("retriever: retrieval complete",
		"requested", k, "returned", len(examples))
	return examples, nil
}

func (r *Retriever) queryVector(ctx context.Context, query string) ([]float32, error) {
	if cached, ok := r.cache.Get(query); ok {
		return cached, nil
	}
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, errors.New("embedder returned no vector")
	}
	r.cache.Set(query, vectors[0])
	return vectors[0], nil
}
