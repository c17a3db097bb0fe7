package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// ShowIssueInput contains the parameters for showing an issue.
type ShowIssueInput struct {
	IssueID string // Issue id or unambiguous prefix (required)
}

// ShowIssueOutput contains the projected issue.
type ShowIssueOutput struct {
	Issue *domain.Issue
	ID    domain.ObjectID
}

// ShowIssue is the use case for reading one issue.
type ShowIssue struct {
	issues *issue.Issues
}

// NewShowIssue creates a new ShowIssue use case.
func NewShowIssue(issues *issue.Issues) *ShowIssue {
	return &ShowIssue{issues: issues}
}

// Execute folds the issue's history and projects it.
func (uc *ShowIssue) Execute(ctx context.Context, in ShowIssueInput) (*ShowIssueOutput, error) {
	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}
	got, err := uc.issues.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	if got == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrIssueNotFound, id)
	}
	return &ShowIssueOutput{ID: id, Issue: got}, nil
}
