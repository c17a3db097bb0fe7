package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/issue"
)

// ListIssuesInput contains the filters for listing issues.
type ListIssuesInput struct {
	State string // "open", "closed" or empty for all
	Label string // Only issues carrying this label (optional)
}

// ListIssuesOutput contains the matching issues in id order.
type ListIssuesOutput struct {
	Issues []issue.Summary
}

// ListIssues is the use case for listing the project's issues.
type ListIssues struct {
	issues *issue.Issues
}

// NewListIssues creates a new ListIssues use case.
func NewListIssues(issues *issue.Issues) *ListIssues {
	return &ListIssues{issues: issues}
}

// Execute lists and filters issues.
func (uc *ListIssues) Execute(ctx context.Context, in ListIssuesInput) (*ListIssuesOutput, error) {
	var (
		state    domain.State
		byState  = in.State != ""
		label    domain.Label
		byLabel  = in.Label != ""
		parseErr error
	)
	if byState {
		if state, parseErr = domain.ParseState(in.State); parseErr != nil {
			return nil, parseErr
		}
	}
	if byLabel {
		if label, parseErr = domain.ParseLabel(in.Label); parseErr != nil {
			return nil, parseErr
		}
	}

	all, err := uc.issues.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}

	out := make([]issue.Summary, 0, len(all))
	for _, s := range all {
		if byState && s.Issue.State != state {
			continue
		}
		if byLabel && !s.Issue.HasLabel(label) {
			continue
		}
		out = append(out, s)
	}
	return &ListIssuesOutput{Issues: out}, nil
}
