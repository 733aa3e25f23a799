package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/artifact"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/metrics"
)

type CleanupAction string

const (
	ActionReport CleanupAction = "report"
	ActionMove   CleanupAction = "move"
	ActionDelete CleanupAction = "delete"
)

// ParseCleanupAction accepts report, move and delete.
func ParseCleanupAction(s string) (CleanupAction, error) {
	switch a := CleanupAction(s); a {
	case ActionReport, ActionMove, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("unknown cleanup action %q", s)
}

const (
	IssueCorrupt     = "corrupt"
	IssueFailedCrawl = "failed_crawl"
)

type ArtifactIssue struct {
	Ref    repository.ArtifactRef `json:"ref"`
	Kind   string                 `json:"kind"`
	Reason string                 `json:"reason"`
}

type ArtifactReport struct {
	Checked int             `json:"checked"`
	Valid   int             `json:"valid"`
	Issues  []ArtifactIssue `json:"issues"`
	Moved   int             `json:"moved"`
	Deleted int             `json:"deleted"`
}

// ArtifactMaintenance finds stored documents that are corrupt or that come
// from a crawl run without connectivity, and optionally removes them.
type ArtifactMaintenance struct {
	results repository.ResultStore
	mover   repository.ArtifactMover
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewArtifactMaintenance creates the maintenance usecase. mover may be nil
// when the store cannot relocate artifacts; ActionMove then fails.
func NewArtifactMaintenance(results repository.ResultStore, mover repository.ArtifactMover, logger *zap.Logger, m *metrics.Metrics) *ArtifactMaintenance {
	return &ArtifactMaintenance{
		results: results,
		mover:   mover,
		logger:  logger.Named("artifacts"),
		metrics: m,
	}
}

// Scan checks every artifact of profile (all profiles when empty).
func (a *ArtifactMaintenance) Scan(ctx context.Context, profile string) (*ArtifactReport, error) {
	refs, err := a.results.List(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	report := &ArtifactReport{Issues: []ArtifactIssue{}}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		issue, err := a.inspect(ctx, ref)
		if err != nil {
			return report, err
		}
		if issue == nil {
			report.Valid++
			continue
		}
		report.Issues = append(report.Issues, *issue)
	}
	return report, nil
}

func (a *ArtifactMaintenance) inspect(ctx context.Context, ref repository.ArtifactRef) (*ArtifactIssue, error) {
	data, err := a.results.Raw(ctx, ref.Profile, ref.Domain)
	if errors.Is(err, repository.ErrNotFound) {
		// Removed between List and Raw.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", ref.Profile, ref.Domain, err)
	}
	if err := artifact.Validate(data); err != nil {
		return &ArtifactIssue{Ref: ref, Kind: IssueCorrupt, Reason: err.Error()}, nil
	}
	if artifact.IsFailedCrawl(data) {
		return &ArtifactIssue{Ref: ref, Kind: IssueFailedCrawl, Reason: artifact.DisconnectedError}, nil
	}
	return nil, nil
}

// Clean scans and then applies action to every issue found. destDir is
// only used by ActionMove.
func (a *ArtifactMaintenance) Clean(ctx context.Context, profile string, action CleanupAction, destDir string) (*ArtifactReport, error) {
	if action == ActionMove {
		if a.mover == nil {
			return nil, errors.New("result store does not support moving artifacts")
		}
		if destDir == "" {
			return nil, errors.New("move needs a destination directory")
		}
	}
	report, err := a.Scan(ctx, profile)
	if err != nil {
		return report, err
	}

	for _, issue := range report.Issues {
		ref := issue.Ref
		switch action {
		case ActionReport:
			a.logger.Info("Invalid artifact",
				zap.String("profile", ref.Profile),
				zap.String("domain", ref.Domain),
				zap.String("kind", issue.Kind),
				zap.String("reason", issue.Reason))
			continue
		case ActionMove:
			if err := a.mover.Move(ctx, ref, destDir); err != nil {
				return report, fmt.Errorf("move %s/%s: %w", ref.Profile, ref.Domain, err)
			}
			report.Moved++
		case ActionDelete:
			err := a.results.Delete(ctx, ref.Profile, ref.Domain)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return report, fmt.Errorf("delete %s/%s: %w", ref.Profile, ref.Domain, err)
			}
			report.Deleted++
		}
		a.logger.Info("Removed artifact",
			zap.String("profile", ref.Profile),
			zap.String("domain", ref.Domain),
			zap.String("kind", issue.Kind),
			zap.String("action", string(action)))
		if a.metrics != nil {
			a.metrics.ArtifactsRemoved.WithLabelValues(issue.Kind, string(action)).Inc()
		}
	}
	return report, nil
}
