package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// LabelIssueInput contains the parameters for labeling an issue.
type LabelIssueInput struct {
	IssueID string   // Issue id or unambiguous prefix (required)
	Labels  []string // Label names, at least one
}

// LabelIssueOutput contains the result of labeling an issue.
type LabelIssueOutput struct {
	ID       domain.ObjectID
	Revision domain.RevisionID
	Labels   []domain.Label // Labels that were added
}

// LabelIssue is the use case for adding labels to an issue.
// Fields are ordered to minimize memory padding.
type LabelIssue struct {
	issues *issue.Issues
	logger domain.Logger
	author domain.Identity
}

// NewLabelIssue creates a new LabelIssue use case.
func NewLabelIssue(issues *issue.Issues, author domain.Identity, logger domain.Logger) *LabelIssue {
	return &LabelIssue{
		issues: issues,
		author: author,
		logger: logger,
	}
}

// Execute adds the labels.
func (uc *LabelIssue) Execute(ctx context.Context, in LabelIssueInput) (*LabelIssueOutput, error) {
	if err := requireAuthor(uc.author); err != nil {
		return nil, err
	}
	labels, err := domain.ParseLabels(in.Labels)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, domain.ErrNoLabels
	}

	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}
	rev, err := uc.issues.Label(ctx, uc.author, id, labels)
	if err != nil {
		return nil, fmt.Errorf("label issue: %w", err)
	}

	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name()
	}
	uc.logger.Info(id, "issue", fmt.Sprintf("labels %s by %s", strings.Join(names, ","), uc.author))
	return &LabelIssueOutput{ID: id, Revision: rev, Labels: labels}, nil
}
