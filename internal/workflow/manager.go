// File path: internal/workflow/manager.go
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/lineage"
	"github.com/Yoshani/team-xc7/internal/metrics"
	"github.com/Yoshani/team-xc7/internal/review"
	"github.com/Yoshani/team-xc7/internal/risk"
)

// StepStatus tracks one pipeline step's lifecycle.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepError     StepStatus = "error"
)

// Pipeline step names, in execution order.
const (
	StepReview   = "review"
	StepClassify = "classify"
	StepMetrics  = "metrics"
	StepAssess   = "assess"
)

// Step is one tracked stage of a commit pipeline run.
type Step struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// State is a snapshot of a commit pipeline run.
type State struct {
	CommitID    string                  `json:"commit_id"`
	Status      string                  `json:"status"`
	Steps       []Step                  `json:"steps"`
	Error       string                  `json:"error,omitempty"`
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	Assessment  *catalog.RiskAssessment `json:"assessment,omitempty"`
}

// Reviewer generates review suggestions for a commit.
type Reviewer interface {
	Review(ctx context.Context, commitID string) ([]catalog.Suggestion, error)
}

// Estimator produces the three risk sub-scores for a commit.
type Estimator interface {
	Estimate(ctx context.Context, commitID string) (risk.Inputs, error)
}

var _ Reviewer = (*review.Suggester)(nil)
var _ Estimator = (*risk.Estimator)(nil)

// Manager drives the per-commit analysis pipeline: persist the snapshot,
// re-classify suggestions along the parent chain, generate fresh suggestions,
// aggregate metrics, and append a risk assessment. One run is tracked per
// commit; a second run replaces the recorded state.
type Manager struct {
	cfg        Config
	store      *catalog.Store
	tracker    *lineage.Tracker
	reviewer   Reviewer
	classifier *review.Classifier
	estimator  Estimator
	synth      *risk.Synthesizer
	aggregator *metrics.Aggregator

	mu   sync.Mutex
	runs map[string]*State
}

// NewManager builds a pipeline manager with environment-derived configuration.
func NewManager(store *catalog.Store, tracker *lineage.Tracker, reviewer Reviewer,
	classifier *review.Classifier, estimator Estimator, synth *risk.Synthesizer,
	aggregator *metrics.Aggregator) (*Manager, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewManagerWithConfig(cfg, store, tracker, reviewer, classifier, estimator, synth, aggregator), nil
}

// NewManagerWithConfig builds a pipeline manager with explicit configuration.
func NewManagerWithConfig(cfg Config, store *catalog.Store, tracker *lineage.Tracker,
	reviewer Reviewer, classifier *review.Classifier, estimator Estimator,
	synth *risk.Synthesizer, aggregator *metrics.Aggregator) *Manager {
	cfg.applyDefaults()
	return &Manager{
		cfg:        cfg,
		store:      store,
		tracker:    tracker,
		reviewer:   reviewer,
		classifier: classifier,
		estimator:  estimator,
		synth:      synth,
		aggregator: aggregator,
		runs:       make(map[string]*State),
	}
}

// RegisterSnapshot persists a commit snapshot, threads it into the lineage
// forest, and re-classifies any still-pending suggestions along its parent
// chain, since the new snapshot is fresh evidence of how those suggestions
// were handled.
func (m *Manager) RegisterSnapshot(ctx context.Context, snapshot catalog.Snapshot) (*catalog.Snapshot, error) {
	if m == nil || m.store == nil {
		return nil, errors.New("workflow manager not initialised")
	}
	if _, err := m.store.GetProject(ctx, snapshot.ProjectID); err != nil {
		return nil, fmt.Errorf("resolve project %s: %w", snapshot.ProjectID, err)
	}
	// Validate the parent against the catalog before persisting anything: a
	// row with a bad parent would survive the failed tracker registration and
	// poison every future Hydrate.
	parentID := ""
	if snapshot.ParentCommitID != nil {
		parentID = *snapshot.ParentCommitID
		parent, err := m.store.GetSnapshot(ctx, parentID)
		if err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("register %s: %w", parentID, lineage.ErrOrphanCommit)
			}
			return nil, fmt.Errorf("resolve parent %s: %w", parentID, err)
		}
		if parent.ProjectID != snapshot.ProjectID {
			return nil, fmt.Errorf("register %s: parent %s belongs to project %s: %w",
				snapshot.CommitID, parentID, parent.ProjectID, lineage.ErrOrphanCommit)
		}
		if !m.tracker.Contains(parentID) {
			return nil, fmt.Errorf("register %s: %w", parentID, lineage.ErrOrphanCommit)
		}
	}
	stored, err := m.store.CreateSnapshot(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if err := m.tracker.Register(stored.ProjectID, stored.CommitID, parentID); err != nil {
		return nil, err
	}
	common.Logger().Info("workflow: snapshot registered",
		"project", stored.ProjectID, "commit", stored.CommitID, "parent", parentID)

	if m.classifier != nil {
		ancestors, err := m.tracker.Ancestors(stored.CommitID, 0)
		if err != nil {
			common.Logger().Warn("workflow: ancestor walk failed",
				"commit", stored.CommitID, "error", err)
			return stored, nil
		}
		for _, ancestorID := range ancestors {
			if _, err := m.classifier.ClassifyCommit(ctx, ancestorID); err != nil {
				common.Logger().Warn("workflow: ancestor classification failed",
					"commit", ancestorID, "error", err)
			}
		}
	}
	return stored, nil
}

// Hydrate rebuilds the lineage forest from the catalog, oldest snapshots
// first. Called once at startup.
func (m *Manager) Hydrate(ctx context.Context) error {
	if m == nil || m.store == nil {
		return errors.New("workflow manager not initialised")
	}
	projects, err := m.store.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	total := 0
	for _, project := range projects {
		snapshots, err := m.store.ListSnapshots(ctx, project.ID)
		if err != nil {
			return fmt.Errorf("list snapshots for %s: %w", project.ID, err)
		}
		// Creation timestamps can tie, so a child may sort before its
		// parent; keep sweeping until every snapshot lands.
		pending := snapshots
		for len(pending) > 0 {
			var deferred []catalog.Snapshot
			for _, snapshot := range pending {
				parentID := ""
				if snapshot.ParentCommitID != nil {
					parentID = *snapshot.ParentCommitID
				}
				err := m.tracker.Register(project.ID, snapshot.CommitID, parentID)
				switch {
				case err == nil:
					total++
				case errors.Is(err, lineage.ErrOrphanCommit):
					deferred = append(deferred, snapshot)
				default:
					return fmt.Errorf("rebuild lineage for %s: %w", snapshot.CommitID, err)
				}
			}
			if len(deferred) == len(pending) {
				return fmt.Errorf("rebuild lineage for %s: %d snapshots reference unknown parents",
					project.ID, len(deferred))
			}
			pending = deferred
		}
	}
	common.Logger().Info("workflow: lineage hydrated",
		"projects", len(projects), "commits", total)
	return nil
}

// RunPipeline executes the full analysis pipeline for a commit and returns
// the final run state. The returned error mirrors State.Error.
func (m *Manager) RunPipeline(ctx context.Context, commitID string) (*State, error) {
	if m == nil || m.store == nil {
		return nil, errors.New("workflow manager not initialised")
	}
	snapshot, err := m.store.GetSnapshot(ctx, commitID)
	if err != nil {
		return nil, fmt.Errorf("resolve commit %s: %w", commitID, err)
	}

	state := m.startRun(commitID)

	// Review: model-backed, retried.
	m.setStep(commitID, StepReview, StepRunning, "")
	var suggestions []catalog.Suggestion
	err = m.withRetry(ctx, func() error {
		var reviewErr error
		suggestions, reviewErr = m.reviewer.Review(ctx, commitID)
		return reviewErr
	})
	if err != nil {
		return m.failRun(ctx, commitID, StepReview, err)
	}
	m.setStep(commitID, StepReview, StepCompleted,
		fmt.Sprintf("%d suggestions recorded", len(suggestions)))

	// Classify the parent chain; the new snapshot is the evidence.
	m.setStep(commitID, StepClassify, StepRunning, "")
	classified := 0
	ancestors, err := m.tracker.Ancestors(commitID, 0)
	if err != nil {
		return m.failRun(ctx, commitID, StepClassify, err)
	}
	for _, ancestorID := range ancestors {
		results, err := m.classifier.ClassifyCommit(ctx, ancestorID)
		if err != nil {
			return m.failRun(ctx, commitID, StepClassify, err)
		}
		classified += len(results)
	}
	m.setStep(commitID, StepClassify, StepCompleted,
		fmt.Sprintf("%d suggestions classified across %d ancestors", classified, len(ancestors)))

	// Metrics over whatever classifications exist so far.
	m.setStep(commitID, StepMetrics, StepRunning, "")
	appended, err := m.aggregator.AggregateCommit(ctx, snapshot.ProjectID, commitID)
	if err != nil {
		return m.failRun(ctx, commitID, StepMetrics, err)
	}
	if len(appended) == 0 {
		m.setStep(commitID, StepMetrics, StepSkipped, "no classified suggestions yet")
	} else {
		m.setStep(commitID, StepMetrics, StepCompleted,
			fmt.Sprintf("%d metrics appended", len(appended)))
	}

	// Estimate and assess: the estimate is model-backed and retried.
	m.setStep(commitID, StepAssess, StepRunning, "")
	var inputs risk.Inputs
	err = m.withRetry(ctx, func() error {
		var estimateErr error
		inputs, estimateErr = m.estimator.Estimate(ctx, commitID)
		return estimateErr
	})
	if err != nil {
		return m.failRun(ctx, commitID, StepAssess, err)
	}
	assessment, err := m.synth.Assess(ctx, snapshot.ProjectID, commitID, inputs)
	if err != nil {
		return m.failRun(ctx, commitID, StepAssess, err)
	}
	m.setStep(commitID, StepAssess, StepCompleted,
		fmt.Sprintf("final score %.1f (%s)", assessment.FinalScore, assessment.Recommendation))

	m.mu.Lock()
	now := time.Now().UTC()
	state.Status = "completed"
	state.CompletedAt = &now
	state.Assessment = assessment
	snapshotState := cloneState(state)
	m.mu.Unlock()
	return snapshotState, nil
}

// Run returns the recorded state of the latest pipeline run for a commit.
func (m *Manager) Run(commitID string) (*State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.runs[commitID]
	if !ok {
		return nil, false
	}
	return cloneState(state), true
}

func (m *Manager) startRun(commitID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := &State{
		CommitID:  commitID,
		Status:    "running",
		StartedAt: time.Now().UTC(),
		Steps: []Step{
			{Name: StepReview, Status: StepPending},
			{Name: StepClassify, Status: StepPending},
			{Name: StepMetrics, Status: StepPending},
			{Name: StepAssess, Status: StepPending},
		},
	}
	m.runs[commitID] = state
	return state
}

func (m *Manager) setStep(commitID, name string, status StepStatus, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.runs[commitID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	for i := range state.Steps {
		if state.Steps[i].Name != name {
			continue
		}
		step := &state.Steps[i]
		switch status {
		case StepRunning:
			step.StartedAt = &now
		case StepCompleted, StepSkipped, StepError:
			if step.StartedAt == nil {
				step.StartedAt = &now
			}
			step.CompletedAt = &now
		}
		step.Status = status
		if message != "" {
			step.Message = message
		}
		return
	}
}

func (m *Manager) failRun(ctx context.Context, commitID, stepName string, cause error) (*State, error) {
	m.setStep(commitID, stepName, StepError, cause.Error())
	m.mu.Lock()
	state, ok := m.runs[commitID]
	if ok {
		now := time.Now().UTC()
		state.Status = "error"
		state.Error = cause.Error()
		state.CompletedAt = &now
	}
	snapshot := cloneState(state)
	m.mu.Unlock()
	common.Logger().Error("workflow: pipeline failed",
		"commit", commitID, "step", stepName, "error", cause)
	if err := m.store.AppendSystemLog(ctx, "workflow", "pipeline_failed",
		fmt.Sprintf("commit=%s step=%s: %v", commitID, stepName, cause)); err != nil {
		common.Logger().Warn("workflow: audit write failed", "error", err)
	}
	return snapshot, fmt.Errorf("pipeline step %s: %w", stepName, cause)
}

// withRetry runs fn up to MaxRetries+1 times with doubling backoff,
// respecting context cancellation between attempts.
func (m *Manager) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := m.cfg.RetryBackoff
	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		common.Logger().Warn("workflow: step attempt failed",
			"attempt", attempt+1, "error", lastErr)
	}
	return lastErr
}

func cloneState(state *State) *State {
	if state == nil {
		return nil
	}
	cloned := *state
	cloned.Steps = append([]Step(nil), state.Steps...)
	if state.Assessment != nil {
		assessment := *state.Assessment
		cloned.Assessment = &assessment
	}
	return &cloned
}
