package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// ReactToCommentInput contains the parameters for reacting to a comment.
type ReactToCommentInput struct {
	IssueID   string   // Issue id or unambiguous prefix (required)
	Reactions []string // One grapheme each, at least one
	Index     int      // Comment index; 0 is the description
}

// ReactToCommentOutput contains the result of reacting to a comment.
type ReactToCommentOutput struct {
	ID       domain.ObjectID
	Revision domain.RevisionID
}

// ReactToComment is the use case for adding reactions to a comment.
// Fields are ordered to minimize memory padding.
type ReactToComment struct {
	issues *issue.Issues
	logger domain.Logger
	author domain.Identity
}

// NewReactToComment creates a new ReactToComment use case.
func NewReactToComment(issues *issue.Issues, author domain.Identity, logger domain.Logger) *ReactToComment {
	return &ReactToComment{
		issues: issues,
		author: author,
		logger: logger,
	}
}

// Execute records the reactions.
func (uc *ReactToComment) Execute(ctx context.Context, in ReactToCommentInput) (*ReactToCommentOutput, error) {
	if err := requireAuthor(uc.author); err != nil {
		return nil, err
	}
	if len(in.Reactions) == 0 {
		return nil, domain.ErrNoReactions
	}
	reactions := make([]domain.Reaction, 0, len(in.Reactions))
	for _, s := range in.Reactions {
		r, err := domain.ParseReaction(s)
		if err != nil {
			return nil, err
		}
		reactions = append(reactions, r)
	}

	id, err := resolveIssue(ctx, uc.issues, in.IssueID)
	if err != nil {
		return nil, err
	}
	rev, err := uc.issues.React(ctx, uc.author, id, in.Index, reactions)
	if err != nil {
		return nil, fmt.Errorf("react to comment %d: %w", in.Index, err)
	}

	uc.logger.Info(id, "issue", fmt.Sprintf("%d reactions on comment %d by %s", len(reactions), in.Index, uc.author))
	return &ReactToCommentOutput{ID: id, Revision: rev}, nil
}
