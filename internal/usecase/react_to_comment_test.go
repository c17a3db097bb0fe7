package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
)

func TestReactToComment_Execute(t *testing.T) {
	env := newTestEnv(t)
	id := env.createIssue(t, "Title")
	ctx := context.Background()
	bob := domain.MustParseIdentity("did:key:z6MkBob")

	_, err := NewReactToComment(env.issues, testAuthor, env.logger).Execute(ctx, ReactToCommentInput{
		IssueID:   string(id),
		Reactions: []string{"🚀"},
	})
	require.NoError(t, err)
	_, err = NewReactToComment(env.issues, bob, env.logger).Execute(ctx, ReactToCommentInput{
		IssueID:   string(id),
		Reactions: []string{"🚀", "👍🏽"},
	})
	require.NoError(t, err)

	got, err := env.issues.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[domain.Reaction]int{
		domain.MustParseReaction("🚀"): 2,
		domain.MustParseReaction("👍🏽"): 1,
	}, got.Reactions())
}

func TestReactToComment_Execute_Errors(t *testing.T) {
	tests := []struct {
		wantErr   error
		name      string
		reactions []string
		index     int
	}{
		{name: "no reactions", reactions: nil, wantErr: domain.ErrNoReactions},
		{name: "two graphemes", reactions: []string{"ab"}, wantErr: domain.ErrInvalidReaction},
		{name: "out of range", reactions: []string{"🚀"}, index: 1, wantErr: domain.ErrCommentIndexOutOfRange},
		{name: "negative index", reactions: []string{"🚀"}, index: -1, wantErr: domain.ErrCommentIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.createIssue(t, "Title")
			uc := NewReactToComment(env.issues, testAuthor, env.logger)

			_, err := uc.Execute(context.Background(), ReactToCommentInput{
				IssueID:   string(id),
				Reactions: tt.reactions,
				Index:     tt.index,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, env.store.UpdateCalls)
		})
	}
}
