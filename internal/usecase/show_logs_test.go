package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
)

func writeObjectLog(t *testing.T, cobDir string, id domain.ObjectID, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(cobDir, domain.LogsDirName), 0o750))
	path := domain.ObjectLogPath(cobDir, id)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShowLogs_Execute_Success(t *testing.T) {
	env := newTestEnv(t)
	id := env.createIssue(t, "Title")
	cobDir := t.TempDir()
	logPath := writeObjectLog(t, cobDir, id, "line1\nline2\nline3\n")

	out, err := NewShowLogs(env.issues, cobDir).Execute(context.Background(), ShowLogsInput{IssueID: string(id)})

	require.NoError(t, err)
	assert.Equal(t, logPath, out.LogPath)
	assert.Equal(t, "line1\nline2\nline3", out.Content)
}

func TestShowLogs_Execute_LastLines(t *testing.T) {
	env := newTestEnv(t)
	id := env.createIssue(t, "Title")
	cobDir := t.TempDir()
	writeObjectLog(t, cobDir, id, "line1\nline2\nline3\nline4\n")

	out, err := NewShowLogs(env.issues, cobDir).Execute(context.Background(), ShowLogsInput{
		IssueID: string(id),
		Lines:   2,
	})

	require.NoError(t, err)
	assert.Equal(t, "line3\nline4", out.Content)
}

func TestShowLogs_Execute_NoLogFile(t *testing.T) {
	env := newTestEnv(t)
	id := env.createIssue(t, "Title")

	_, err := NewShowLogs(env.issues, t.TempDir()).Execute(context.Background(), ShowLogsInput{IssueID: string(id)})

	assert.ErrorIs(t, err, domain.ErrNoObjectLog)
}

func TestShowLogs_Execute_UnknownIssue(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewShowLogs(env.issues, t.TempDir()).Execute(context.Background(), ShowLogsInput{IssueID: "abc"})

	assert.ErrorIs(t, err, domain.ErrIssueNotFound)
}
