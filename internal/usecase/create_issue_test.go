package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
)

func TestCreateIssue_Execute_Success(t *testing.T) {
	// Setup
	env := newTestEnv(t)
	uc := NewCreateIssue(env.issues, testAuthor, env.logger)

	// Execute
	out, err := uc.Execute(context.Background(), CreateIssueInput{
		Title:       "  Crash on start  ",
		Description: "Steps to reproduce.\n",
	})

	// Assert
	require.NoError(t, err)
	got, err := env.issues.Get(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "Crash on start", got.Title)
	assert.Equal(t, "Steps to reproduce.", got.Description())
	assert.Equal(t, testAuthor, got.Author)
	assert.True(t, got.IsOpen())

	require.Len(t, env.logger.Entries, 1)
	assert.Equal(t, out.ID, env.logger.Entries[0].ObjectID)
	assert.Equal(t, "INFO", env.logger.Entries[0].Level)
}

func TestCreateIssue_Execute_EmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	uc := NewCreateIssue(env.issues, testAuthor, env.logger)

	_, err := uc.Execute(context.Background(), CreateIssueInput{Title: "   "})

	assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	assert.Zero(t, env.store.CreateCalls)
}

func TestCreateIssue_Execute_NoIdentity(t *testing.T) {
	env := newTestEnv(t)
	uc := NewCreateIssue(env.issues, domain.Identity{}, env.logger)

	_, err := uc.Execute(context.Background(), CreateIssueInput{Title: "Title"})

	assert.ErrorIs(t, err, domain.ErrNoIdentity)
}

func TestCreateIssue_Execute_StoreError(t *testing.T) {
	env := newTestEnv(t)
	env.store.CreateErr = errors.New("refs locked")
	uc := NewCreateIssue(env.issues, testAuthor, env.logger)

	_, err := uc.Execute(context.Background(), CreateIssueInput{Title: "Title"})

	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "create issue")
	assert.Empty(t, env.logger.Entries)
}
