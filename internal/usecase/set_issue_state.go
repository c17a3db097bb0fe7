package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// SetIssueStateInput contains the parameters for closing or reopening an
// issue.
type SetIssueStateInput struct {
	IssueID string       // Issue id or unambiguous prefix (required)
	State   domain.State // Target state
}

// SetIssueStateOutput contains the result of a state change.
type SetIssueStateOutput struct {
	ID       domain.ObjectID
	Revision domain.RevisionID
	State    domain.State
}

// SetIssueState is the use case for closing and reopening issues. Setting
// the state an issue already has still records a revision.
// Fields are ordered to minimize memory padding.
type SetIssueState struct {
	issues *issue.Issues
	logger domain.Logger
	author domain.Identity
}

// NewSetIssueState creates a new SetIssueState use case.
func NewSetIssueState(issues *issue.Issues, author domain.Identity, logger domain.Logger) *SetIssueState {
	return &SetIssueState{
		issues: issues,
		author: author,
		logger: logger,
	}
}

// Execute applies the state change.
func (uc *SetIssueState) Execute(ctx context.Context, in SetIssueStateInput) (*SetIssueStateOutput, error) {
	if err := requireAuthor(uc.author); err != nil {
		return nil, err
	}

	var change func(context.Context, domain.Identity, domain.ObjectID) (domain.RevisionID, error)
	switch in.State {
	case domain.StateOpen:
		change = uc.issues.Reopen
	case domain.StateClosed:
		change = uc.issues.Close
	default:
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidState, int(in.State))
	}

	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}
	rev, err := change(ctx, uc.author, id)
	if err != nil {
		return nil, fmt.Errorf("set state %s: %w", in.State, err)
	}

	uc.logger.Info(id, "issue", fmt.Sprintf("%s by %s", in.State, uc.author))
	return &SetIssueStateOutput{ID: id, Revision: rev, State: in.State}, nil
}
