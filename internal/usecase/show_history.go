package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// ShowHistoryInput contains the parameters for showing an issue's history.
type ShowHistoryInput struct {
	IssueID string // Issue id or unambiguous prefix (required)
}

// ShowHistoryOutput contains the stored entries in log order.
type ShowHistoryOutput struct {
	Object *domain.Object
}

// ShowHistory is the use case for inspecting the raw history of an issue.
type ShowHistory struct {
	issues *issue.Issues
}

// NewShowHistory creates a new ShowHistory use case.
func NewShowHistory(issues *issue.Issues) *ShowHistory {
	return &ShowHistory{issues: issues}
}

// Execute retrieves the history.
func (uc *ShowHistory) Execute(ctx context.Context, in ShowHistoryInput) (*ShowHistoryOutput, error) {
	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}
	obj, err := uc.issues.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrIssueNotFound, id)
	}
	return &ShowHistoryOutput{Object: obj}, nil
}
