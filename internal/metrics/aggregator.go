// File path: internal/metrics/aggregator.go
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
)

// Built-in metric names.
const (
	MetricAcceptanceRate = "acceptance_rate"
	MetricRecurrenceRate = "recurrence_rate"
	MetricMeanConfidence = "mean_confidence"
)

// ErrDuplicateMetric reports a second registration under the same name.
var ErrDuplicateMetric = errors.New("metrics: metric already registered")

// MetricFunc derives one value from a slice of classification records. The
// boolean is false when the metric is undefined for the input (for example,
// an empty slice).
type MetricFunc func(records []catalog.ClassificationRecord) (float64, bool)

// Registry maps metric names to their derivations. New metrics are added by
// registration; existing ones are never redefined.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]MetricFunc
}

// NewRegistry returns a registry pre-loaded with the built-in metrics.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]MetricFunc)}
	r.funcs[MetricAcceptanceRate] = acceptanceRate
	r.funcs[MetricRecurrenceRate] = recurrenceRate
	r.funcs[MetricMeanConfidence] = meanConfidence
	return r
}

// Register adds a metric derivation under a new name.
func (r *Registry) Register(name string, fn MetricFunc) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("metrics: name and func required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMetric, name)
	}
	r.funcs[name] = fn
	return nil
}

// Names lists registered metric names, sorted for deterministic iteration.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (MetricFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

func acceptanceRate(records []catalog.ClassificationRecord) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	accepted := 0
	for _, rec := range records {
		if rec.Disposition == "accepted" {
			accepted++
		}
	}
	return float64(accepted) / float64(len(records)), true
}

func recurrenceRate(records []catalog.ClassificationRecord) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	recurring := 0
	for _, rec := range records {
		if rec.RecurringIssue != "" {
			recurring++
		}
	}
	return float64(recurring) / float64(len(records)), true
}

func meanConfidence(records []catalog.ClassificationRecord) (float64, bool) {
	if len(records) == 0 {
		return 0, false
	}
	total := 0.0
	for _, rec := range records {
		total += rec.Confidence
	}
	return total / float64(len(records)), true
}

// MetricStore is the persistence surface the aggregator needs.
type MetricStore interface {
	ClassificationsForProject(ctx context.Context, projectID string) ([]catalog.ClassificationRecord, error)
	AppendMetric(ctx context.Context, m catalog.ProductivityMetric) (*catalog.ProductivityMetric, error)
	MetricSeries(ctx context.Context, commitID, name string) ([]catalog.ProductivityMetric, error)
}

var _ MetricStore = (*catalog.Store)(nil)

// Aggregator derives productivity metrics from classification records and
// appends them to the per-commit metric series. Recomputation never
// overwrites: each run adds new rows.
type Aggregator struct {
	store    MetricStore
	registry *Registry
}

func NewAggregator(store MetricStore, registry *Registry) *Aggregator {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Aggregator{store: store, registry: registry}
}

// Registry exposes the aggregator's metric registry for extension.
func (a *Aggregator) Registry() *Registry {
	return a.registry
}

// AggregateCommit computes every registered metric over the commit's
// classification records and appends one row per defined metric. Metrics
// undefined for the input (no records yet) are skipped, not zeroed.
func (a *Aggregator) AggregateCommit(ctx context.Context, projectID, commitID string) ([]catalog.ProductivityMetric, error) {
	if a == nil || a.store == nil {
		return nil, errors.New("aggregator not initialised")
	}
	all, err := a.store.ClassificationsForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load classifications: %w", err)
	}
	var records []catalog.ClassificationRecord
	for _, rec := range all {
		if rec.CommitID == commitID {
			records = append(records, rec)
		}
	}

	var appended []catalog.ProductivityMetric
	for _, name := range a.registry.Names() {
		fn, ok := a.registry.lookup(name)
		if !ok {
			continue
		}
		value, defined := fn(records)
		if !defined {
			continue
		}
		stored, err := a.store.AppendMetric(ctx, catalog.ProductivityMetric{
			CommitID: commitID, Name: name, Value: value,
		})
		if err != nil {
			return appended, fmt.Errorf("append metric %s: %w", name, err)
		}
		appended = append(appended, *stored)
	}
	common.Logger().Info("metrics: commit aggregated",
		"commit", commitID, "metrics", len(appended))
	return appended, nil
}

// Series returns the append-only history of one metric for a commit.
func (a *Aggregator) Series(ctx context.Context, commitID, name string) ([]catalog.ProductivityMetric, error) {
	if a == nil || a.store == nil {
		return nil, errors.New("aggregator not initialised")
	}
	return a.store.MetricSeries(ctx, commitID, name)
}
