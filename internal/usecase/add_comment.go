package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// AddCommentInput contains the parameters for adding a comment.
type AddCommentInput struct {
	IssueID string // Issue id or unambiguous prefix (required)
	Body    string // Comment text (required)
}

// AddCommentOutput contains the result of adding a comment.
type AddCommentOutput struct {
	ID       domain.ObjectID   // The commented issue
	Revision domain.RevisionID // Revision holding the comment
}

// AddComment is the use case for commenting on an issue.
// Fields are ordered to minimize memory padding.
type AddComment struct {
	issues *issue.Issues
	logger domain.Logger
	author domain.Identity
}

// NewAddComment creates a new AddComment use case.
func NewAddComment(issues *issue.Issues, author domain.Identity, logger domain.Logger) *AddComment {
	return &AddComment{
		issues: issues,
		author: author,
		logger: logger,
	}
}

// Execute appends a comment to an issue.
func (uc *AddComment) Execute(ctx context.Context, in AddCommentInput) (*AddCommentOutput, error) {
	if err := requireAuthor(uc.author); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}

	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}
	rev, err := uc.issues.Comment(ctx, uc.author, id, body)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	uc.logger.Info(id, "issue", fmt.Sprintf("comment by %s", uc.author))
	return &AddCommentOutput{ID: id, Revision: rev}, nil
}
