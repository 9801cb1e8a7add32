// File path: internal/retriever/retriever_test.go
package retriever

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/llm/providers"
	"github.com/Yoshani/team-xc7/internal/vector"
)

type countingEmbedder struct {
	inner *providers.LocalProvider
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, input []string) ([][]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, input)
}

func newRetrieverFixture(t *testing.T) (*Retriever, *countingEmbedder) {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	embedder := &countingEmbedder{inner: providers.NewLocalProvider()}
	r := NewWithConfig(Config{DefaultLimit: 3, CacheSize: 16},
		embedder, vector.New(vector.Config{DefaultLimit: 3}), store)
	return r, embedder
}

func ingestPairs(t *testing.T, r *Retriever) {
	t.Helper()
	ctx := context.Background()
	pairs := [][2]string{
		{"users must authenticate with a password before accessing accounts",
			"authentication responses must complete within 500 milliseconds"},
		{"the system must export monthly billing reports",
			"report generation must not block interactive traffic"},
		{"administrators can suspend user accounts",
			"suspension must propagate to all nodes within one minute"},
	}
	for _, p := range pairs {
		if _, err := r.Ingest(ctx, p[0], p[1], "curated", true); err != nil {
			t.Fatalf("ingest: %v", err)
		}
	}
}

func TestRetrieveOrdersBySimilarity(t *testing.T) {
	r, _ := newRetrieverFixture(t)
	ingestPairs(t, r)

	examples, err := r.Retrieve(context.Background(),
		"users must authenticate with a password before accessing the dashboard", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(examples) != 3 {
		t.Fatalf("expected 3 examples, got %d", len(examples))
	}
	if examples[0].FRText != "users must authenticate with a password before accessing accounts" {
		t.Fatalf("expected authentication pair first, got %q", examples[0].FRText)
	}
	for i := 1; i < len(examples); i++ {
		if examples[i].Score > examples[i-1].Score {
			t.Fatalf("scores not descending at %d: %.3f > %.3f",
				i, examples[i].Score, examples[i-1].Score)
		}
	}
}

func TestRetrieveIsDeterministic(t *testing.T) {
	r, _ := newRetrieverFixture(t)
	ingestPairs(t, r)

	first, err := r.Retrieve(context.Background(), "billing reports exported monthly", 3)
	if err != nil {
		t.Fatalf("first retrieve: %v", err)
	}
	second, err := r.Retrieve(context.Background(), "billing reports exported monthly", 3)
	if err != nil {
		t.Fatalf("second retrieve: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].PairID != second[i].PairID || first[i].Score != second[i].Score {
			t.Fatalf("result %d differs between runs", i)
		}
	}
}

func TestRetrieveReturnsFewerThanRequested(t *testing.T) {
	r, _ := newRetrieverFixture(t)
	if _, err := r.Ingest(context.Background(),
		"the service must log every request", "logs must be queryable for 90 days",
		"curated", true); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	examples, err := r.Retrieve(context.Background(), "request logging", 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(examples) != 1 {
		t.Fatalf("expected 1 example from a corpus of 1, got %d", len(examples))
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	r, _ := newRetrieverFixture(t)
	examples, err := r.Retrieve(context.Background(), "anything at all", 3)
	if err != nil {
		t.Fatalf("expected empty result, got error %v", err)
	}
	if len(examples) != 0 {
		t.Fatalf("expected no examples, got %d", len(examples))
	}
}

func TestQueryEmbeddingIsCached(t *testing.T) {
	r, embedder := newRetrieverFixture(t)
	ingestPairs(t, r)
	baseline := embedder.calls

	if _, err := r.Retrieve(context.Background(), "suspend accounts", 2); err != nil {
		t.Fatalf("first retrieve: %v", err)
	}
	afterFirst := embedder.calls
	if afterFirst != baseline+1 {
		t.Fatalf("expected one embed call for the query, got %d", afterFirst-baseline)
	}
	if _, err := r.Retrieve(context.Background(), "suspend accounts", 2); err != nil {
		t.Fatalf("second retrieve: %v", err)
	}
	if embedder.calls != afterFirst {
		t.Fatalf("expected cached embedding on replay, got %d extra calls",
			embedder.calls-afterFirst)
	}
}

func TestSyncRebuildsIndex(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	for _, text := range []string{"first requirement", "second requirement"} {
		if _, err := store.CreateSeedPair(ctx, text, "matching constraint", "import", false); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	embedder := &countingEmbedder{inner: providers.NewLocalProvider()}
	index := vector.New(vector.Config{})
	r := NewWithConfig(Config{}, embedder, index, store)
	count, err := r.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 synced pairs, got %d", count)
	}
	if index.Count(vector.TypeSeed) != 2 {
		t.Fatalf("expected 2 indexed vectors, got %d", index.Count(vector.TypeSeed))
	}
}
