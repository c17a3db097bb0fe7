package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// resolveIssue expands a user supplied id or id prefix.
func resolveIssue(ctx context.Context, issues *issue.Issues, ref string) (domain.ObjectID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty id", domain.ErrInvalidObjectID)
	}
	id, err := issues.Resolve(ctx, strings.ToLower(ref))
	if err != nil {
		return "", fmt.Errorf("resolve issue: %w", err)
	}
	return id, nil
}

// requireAuthor fails with domain.ErrNoIdentity when no identity is
// configured.
func requireAuthor(author domain.Identity) error {
	if author.IsZero() {
		return domain.ErrNoIdentity
	}
	return nil
}
