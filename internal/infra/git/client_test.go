package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/git-cob/internal/domain"
)

// setupGitRepo creates a temporary git repository for testing.
func setupGitRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "commit", "--allow-empty", "-m", "Initial commit")
	return dir
}

// runGit executes a git command and fails the test if it errors.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
}

func TestNewClient_Success(t *testing.T) {
	dir := setupGitRepo(t)

	client, err := NewClient(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, client.RepoRoot())
	assert.Equal(t, filepath.Join(dir, ".git"), client.GitDir())
	assert.Equal(t, filepath.Join(dir, ".git", "cob"), client.CobDir())
}

func TestNewClient_NotGitRepo(t *testing.T) {
	client, err := NewClient(t.TempDir())
	assert.ErrorIs(t, err, domain.ErrNotGitRepository)
	assert.Nil(t, client)
}

func TestNewClient_FromSubdirectory(t *testing.T) {
	dir := setupGitRepo(t)
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o750))

	client, err := NewClient(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, client.RepoRoot())
}

func TestNewClient_FromWorktree(t *testing.T) {
	mainRepo := setupGitRepo(t)
	worktreeDir := filepath.Join(t.TempDir(), "worktree")
	runGit(t, mainRepo, "worktree", "add", "-b", "feature", worktreeDir)

	// Objects live in the main repository's refs.
	client, err := NewClient(worktreeDir)
	require.NoError(t, err)
	assert.Equal(t, mainRepo, client.RepoRoot())
	assert.Equal(t, filepath.Join(mainRepo, ".git"), client.GitDir())
}

func TestClient_Remotes(t *testing.T) {
	dir := setupGitRepo(t)
	client, err := NewClient(dir)
	require.NoError(t, err)

	remotes, err := client.Remotes()
	require.NoError(t, err)
	assert.Empty(t, remotes)

	runGit(t, dir, "remote", "add", "upstream", "https://example.com/u.git")
	runGit(t, dir, "remote", "add", "origin", "https://example.com/o.git")

	remotes, err = client.Remotes()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin", "upstream"}, remotes)

	ok, err := client.HasRemote("origin")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = client.HasRemote("nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
