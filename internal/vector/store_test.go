// File path: internal/vector/store_test.go
package vector

import (
	"context"
	"errors"
	"testing"
)

func newTestIndex() *Index {
	return New(Config{DefaultLimit: 5})
}

func TestPutReplacesExistingEmbedding(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()
	if err := ix.Put(ctx, TypeSeed, "pair-1", []float32{1, 0, 0}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := ix.Put(ctx, TypeSeed, "pair-1", []float32{0, 1, 0}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if got := ix.Count(TypeSeed); got != 1 {
		t.Fatalf("expected single entry after replace, got %d", got)
	}
	matches, err := ix.Query(ctx, TypeSeed, []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if matches[0].Score < 0.999 {
		t.Fatalf("expected replaced vector to match query, score=%f", matches[0].Score)
	}
}

func TestQueryOrdersByCosineSimilarity(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()
	vectors := map[string][]float32{
		"far":     {0, 0, 1},
		"close":   {0.9, 0.1, 0},
		"closest": {1, 0, 0},
	}
	for id, vec := range vectors {
		if err := ix.Put(ctx, TypeSeed, id, vec); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	matches, err := ix.Query(ctx, TypeSeed, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ReferenceID != "closest" || matches[1].ReferenceID != "close" {
		t.Fatalf("unexpected ordering: %s, %s", matches[0].ReferenceID, matches[1].ReferenceID)
	}
}

func TestQueryBreaksTiesByRecency(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()
	// Identical vectors score identically; the later insert must win.
	if err := ix.Put(ctx, TypeSeed, "older", []float32{1, 1, 0}); err != nil {
		t.Fatalf("put older: %v", err)
	}
	if err := ix.Put(ctx, TypeSeed, "newer", []float32{1, 1, 0}); err != nil {
		t.Fatalf("put newer: %v", err)
	}
	for i := 0; i < 3; i++ {
		matches, err := ix.Query(ctx, TypeSeed, []float32{1, 1, 0}, 2)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if matches[0].ReferenceID != "newer" {
			t.Fatalf("expected most recent entry first, got %s", matches[0].ReferenceID)
		}
	}
}

func TestQueryEmptyTypeReturnsNotFound(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()
	if err := ix.Put(ctx, TypeFR, "fr-1", []float32{1, 0}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	_, err := ix.Query(ctx, TypeSeed, []float32{1, 0}, 3)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty type, got %v", err)
	}
}

func TestDimensionMismatchRejected(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()
	if err := ix.Put(ctx, TypeSeed, "a", []float32{1, 0, 0}); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := ix.Put(ctx, TypeSeed, "b", []float32{1, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch on put, got %v", err)
	}
	if _, err := ix.Query(ctx, TypeSeed, []float32{1, 0}, 1); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch on query, got %v", err)
	}
}

func TestRemoveRefGarbageCollectsAcrossTypes(t *testing.T) {
	ix := newTestIndex()
	ctx := context.Background()
	if err := ix.Put(ctx, TypeSeedFR, "pair-9", []float32{1, 0}); err != nil {
		t.Fatalf("put seed fr: %v", err)
	}
	if err := ix.Put(ctx, TypeSeedNFR, "pair-9", []float32{0, 1}); err != nil {
		t.Fatalf("put seed nfr: %v", err)
	}
	ix.RemoveRef("pair-9")
	if got := ix.Count(TypeSeedFR) + ix.Count(TypeSeedNFR); got != 0 {
		t.Fatalf("expected all embeddings collected, %d remain", got)
	}
}
