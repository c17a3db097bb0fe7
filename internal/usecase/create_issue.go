package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// CreateIssueInput contains the parameters for creating an issue.
type CreateIssueInput struct {
	Title       string // Issue title (required)
	Description string // Description, stored as the first comment
}

// CreateIssueOutput contains the result of creating an issue.
type CreateIssueOutput struct {
	ID domain.ObjectID // The new issue's id
}

// CreateIssue is the use case for opening a new issue.
// Fields are ordered to minimize memory padding.
type CreateIssue struct {
	issues *issue.Issues
	logger domain.Logger
	author domain.Identity
}

// NewCreateIssue creates a new CreateIssue use case.
func NewCreateIssue(issues *issue.Issues, author domain.Identity, logger domain.Logger) *CreateIssue {
	return &CreateIssue{
		issues: issues,
		author: author,
		logger: logger,
	}
}

// Execute creates the issue.
func (uc *CreateIssue) Execute(ctx context.Context, in CreateIssueInput) (*CreateIssueOutput, error) {
	if err := requireAuthor(uc.author); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.ErrEmptyTitle
	}

	id, err := uc.issues.Create(ctx, uc.author, title, strings.TrimSpace(in.Description))
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	uc.logger.Info(id, "issue", fmt.Sprintf("created by %s: %q", uc.author, title))
	return &CreateIssueOutput{ID: id}, nil
}
