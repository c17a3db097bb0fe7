package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
)

func TestLabelIssue_Execute(t *testing.T) {
	env := newTestEnv(t)
	id := env.createIssue(t, "Title")
	uc := NewLabelIssue(env.issues, testAuthor, env.logger)
	ctx := context.Background()

	out, err := uc.Execute(ctx, LabelIssueInput{IssueID: string(id), Labels: []string{"bug", "bug"}})
	require.NoError(t, err)
	assert.Len(t, out.Labels, 1)

	_, err = uc.Execute(ctx, LabelIssueInput{IssueID: string(id), Labels: []string{"wontfix", "bug"}})
	require.NoError(t, err)

	got, err := env.issues.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"bug", "wontfix"}, got.LabelNames())
}

func TestLabelIssue_Execute_Invalid(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		labels  []string
	}{
		{name: "none", labels: nil, wantErr: domain.ErrNoLabels},
		{name: "whitespace", labels: []string{"needs triage"}, wantErr: domain.ErrInvalidLabel},
		{name: "empty", labels: []string{""}, wantErr: domain.ErrInvalidLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.createIssue(t, "Title")
			uc := NewLabelIssue(env.issues, testAuthor, env.logger)

			_, err := uc.Execute(context.Background(), LabelIssueInput{IssueID: string(id), Labels: tt.labels})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, env.store.UpdateCalls)
		})
	}
}
