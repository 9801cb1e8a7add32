// File path: internal/metrics/rollup.go
package metrics

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Yoshani/team-xc7/internal/catalog"
)

// DeveloperSummary rolls a developer's classified suggestions up into counts
// and rates.
type DeveloperSummary struct {
	Developer      string  `json:"developer"`
	Total          int     `json:"total"`
	Accepted       int     `json:"accepted"`
	Modified       int     `json:"modified"`
	NotHandled     int     `json:"not_handled"`
	Recurring      int     `json:"recurring"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// ProjectSummary is the team view: one row per developer plus the combined
// totals.
type ProjectSummary struct {
	ProjectID  string             `json:"project_id"`
	Team       DeveloperSummary   `json:"team"`
	Developers []DeveloperSummary `json:"developers"`
}

// Summarize rolls every classification in a project up by developer.
func (a *Aggregator) Summarize(ctx context.Context, projectID string) (*ProjectSummary, error) {
	if a == nil || a.store == nil {
		return nil, errors.New("aggregator not initialised")
	}
	records, err := a.store.ClassificationsForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load classifications: %w", err)
	}

	byDeveloper := make(map[string][]catalog.ClassificationRecord)
	for _, rec := range records {
		byDeveloper[rec.DeveloperName] = append(byDeveloper[rec.DeveloperName], rec)
	}

	summary := &ProjectSummary{
		ProjectID: projectID,
		Team:      rollup("team", records),
	}
	for developer, recs := range byDeveloper {
		summary.Developers = append(summary.Developers, rollup(developer, recs))
	}
	sort.Slice(summary.Developers, func(i, j int) bool {
		return summary.Developers[i].Developer < summary.Developers[j].Developer
	})
	return summary, nil
}

func rollup(name string, records []catalog.ClassificationRecord) DeveloperSummary {
	summary := DeveloperSummary{Developer: name, Total: len(records)}
	confidence := 0.0
	for _, rec := range records {
		switch rec.Disposition {
		case "accepted":
			summary.Accepted++
		case "modified":
			summary.Modified++
		default:
			summary.NotHandled++
		}
		if rec.RecurringIssue != "" {
			summary.Recurring++
		}
		confidence += rec.Confidence
	}
	if summary.Total > 0 {
		summary.AcceptanceRate = float64(summary.Accepted) / float64(summary.Total)
		summary.MeanConfidence = confidence / float64(summary.Total)
	}
	return summary
}
