package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/testutil"
	"github.com/runoshun/git-cob/internal/usecase"
)

func TestIssueCreate(t *testing.T) {
	c, store := newTestContainer(t)

	id := createTestIssue(t, c, "Crash on start")

	_, err := domain.ParseObjectID(string(id))
	require.NoError(t, err)
	assert.Equal(t, 1, store.CreateCalls)
}

func TestIssueCreate_FromEditor(t *testing.T) {
	c, _ := newTestContainer(t)
	fakeEditor(t, "Crash on start\n\nSteps to reproduce\n")

	out, err := run(t, newIssueCommand(c), "create")
	require.NoError(t, err)
	id, ok := strings.CutPrefix(strings.TrimSpace(out), "Created issue ")
	require.True(t, ok)

	uc, err := c.ShowIssueUseCase()
	require.NoError(t, err)
	shown, err := uc.Execute(context.Background(), usecase.ShowIssueInput{IssueID: id})
	require.NoError(t, err)
	assert.Equal(t, "Crash on start", shown.Issue.Title)
	assert.Equal(t, "Steps to reproduce", shown.Issue.Description())
}

func TestIssueCreate_EmptyEditorAborts(t *testing.T) {
	c, store := newTestContainer(t)
	fakeEditor(t, "")

	_, err := run(t, newIssueCommand(c), "create", "--body", "no title")

	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	assert.Zero(t, store.CreateCalls)
}

func TestIssueComment_FromEditor(t *testing.T) {
	c, _ := newTestContainer(t)
	id := createTestIssue(t, c, "T")
	fakeEditor(t, "Written in the editor\n")

	_, err := run(t, newIssueCommand(c), "comment", string(id))
	require.NoError(t, err)

	out, err := run(t, newIssueCommand(c), "show", string(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Written in the editor")
}

func TestIssueCreate_NoIdentity(t *testing.T) {
	c, _ := newTestContainer(t)
	c.AppConfig.Identity.URN = ""

	_, err := run(t, newIssueCommand(c), "create", "--title", "T")

	assert.ErrorIs(t, err, domain.ErrNoIdentity)
}

func TestIssueCommands_Workflow(t *testing.T) {
	c, _ := newTestContainer(t)
	id := createTestIssue(t, c, "Crash on start")
	short := id.Short()

	out, err := run(t, newIssueCommand(c), "comment", string(id), "Can reproduce.")
	require.NoError(t, err)
	assert.Equal(t, "Commented on issue "+short+"\n", out)

	out, err = run(t, newIssueCommand(c), "label", string(id), "bug", "ui")
	require.NoError(t, err)
	assert.Contains(t, out, "Labeled issue")

	_, err = run(t, newIssueCommand(c), "react", string(id), "🚀")
	require.NoError(t, err)
	_, err = run(t, newIssueCommand(c), "react", string(id), "--comment", "1", "👀")
	require.NoError(t, err)

	out, err = run(t, newIssueCommand(c), "close", string(id))
	require.NoError(t, err)
	assert.Equal(t, "Closed issue "+short+"\n", out)

	uc, err := c.ShowIssueUseCase()
	require.NoError(t, err)
	shown, err := uc.Execute(context.Background(), usecase.ShowIssueInput{IssueID: string(id)})
	require.NoError(t, err)
	got := shown.Issue
	assert.Equal(t, domain.StateClosed, got.State)
	assert.Equal(t, []string{"bug", "ui"}, got.LabelNames())
	assert.Equal(t, map[domain.Reaction]int{domain.MustParseReaction("🚀"): 1}, got.Reactions())
	require.Len(t, got.Replies(), 1)
	assert.Equal(t, map[domain.Reaction]int{domain.MustParseReaction("👀"): 1}, got.Replies()[0].Reactions)

	out, err = run(t, newIssueCommand(c), "reopen", string(id))
	require.NoError(t, err)
	assert.Equal(t, "Reopened issue "+short+"\n", out)
}

func TestIssueReact_OutOfRange(t *testing.T) {
	c, store := newTestContainer(t)
	id := createTestIssue(t, c, "T")

	_, err := run(t, newIssueCommand(c), "react", string(id), "--comment", "4", "🚀")

	assert.ErrorIs(t, err, domain.ErrCommentIndexOutOfRange)
	assert.Zero(t, store.UpdateCalls)
}

func TestIssueShow(t *testing.T) {
	c, _ := newTestContainer(t)
	id := createTestIssue(t, c, "Crash on start")
	_, err := run(t, newIssueCommand(c), "comment", string(id), "Ho ho ho.")
	require.NoError(t, err)

	out, err := run(t, newIssueCommand(c), "show", string(id))

	require.NoError(t, err)
	assert.Contains(t, out, "Crash on start")
	assert.Contains(t, out, string(id))
	assert.Contains(t, out, testAuthor)
	assert.Contains(t, out, "Description")
	assert.Contains(t, out, "[1] "+testAuthor)
	assert.Contains(t, out, "Ho ho ho.")
}

func TestIssueShow_NotFound(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := run(t, newIssueCommand(c), "show", "abc")

	assert.ErrorIs(t, err, domain.ErrIssueNotFound)
}

func TestIssueList(t *testing.T) {
	c, _ := newTestContainer(t)
	createTestIssue(t, c, "Still open")
	closed := createTestIssue(t, c, "Already closed")
	_, err := run(t, newIssueCommand(c), "close", string(closed))
	require.NoError(t, err)
	labeled := createTestIssue(t, c, "Labeled one")
	_, err = run(t, newIssueCommand(c), "label", string(labeled), "bug")
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{name: "default shows open", want: []string{"Still open", "Labeled one"}, notWant: []string{"Already closed"}},
		{name: "all", args: []string{"--all"}, want: []string{"Still open", "Already closed", "Labeled one"}},
		{name: "closed", args: []string{"--state", "closed"}, want: []string{"Already closed"}, notWant: []string{"Still open"}},
		{name: "label", args: []string{"--label", "bug"}, want: []string{"Labeled one", "bug"}, notWant: []string{"Still open"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, newIssueCommand(c), append([]string{"list"}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, "ID")
			assert.Contains(t, out, "TITLE")
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestIssueList_InvalidState(t *testing.T) {
	c, _ := newTestContainer(t)

	_, err := run(t, newIssueCommand(c), "list", "--state", "pending")

	assert.Error(t, err)
}

func TestIssueLog(t *testing.T) {
	c, _ := newTestContainer(t)
	id := createTestIssue(t, c, "T")
	_, err := run(t, newIssueCommand(c), "close", string(id))
	require.NoError(t, err)

	out, err := run(t, newIssueCommand(c), "log", string(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Create issue")
	assert.Contains(t, out, "Close issue")
	assert.Contains(t, out, "Parents: ")

	diag, err := run(t, newIssueCommand(c), "log", "--diag", string(id))
	require.NoError(t, err)
	assert.Greater(t, len(diag), len(out))
	assert.Contains(t, diag, "\n    ")
}

func TestIssue_NotInitialized(t *testing.T) {
	c, _ := newTestContainer(t)
	c.StoreInitializer = &testutil.MockStoreInitializer{}

	_, err := run(t, newIssueCommand(c), "list")

	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestIssueLogs(t *testing.T) {
	c, _ := newTestContainer(t)
	id := createTestIssue(t, c, "T")
	require.NoError(t, os.MkdirAll(filepath.Join(c.Config.CobDir, domain.LogsDirName), 0o750))
	require.NoError(t, os.WriteFile(domain.ObjectLogPath(c.Config.CobDir, id), []byte("one\ntwo\nthree\n"), 0o600))

	out, err := run(t, newIssueCommand(c), "logs", string(id), "-n", "2")
	require.NoError(t, err)
	assert.Equal(t, "two\nthree\n", out)

	_, err = run(t, newIssueCommand(c), "logs", string(createTestIssue(t, c, "No log")))
	assert.ErrorIs(t, err, domain.ErrNoObjectLog)
}
