// Package git locates the repository git-cob works in.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/runoshun/git-cob/internal/domain"
)

// Client answers questions about the enclosing repository using the git
// command, so worktrees resolve to their main repository.
type Client struct {
	repoRoot string // Main repository root (parent of .git)
	gitDir   string // Common .git directory
}

// NewClient creates a new git client by detecting the repository root from the given directory.
// It handles both regular repositories and worktrees.
func NewClient(dir string) (*Client, error) {
	repoRoot, gitDir, err := findGitRoot(dir)
	if err != nil {
		return nil, err
	}
	return &Client{repoRoot: repoRoot, gitDir: gitDir}, nil
}

// RepoRoot returns the repository root directory.
func (c *Client) RepoRoot() string {
	return c.repoRoot
}

// GitDir returns the .git directory path.
func (c *Client) GitDir() string {
	return c.gitDir
}

// CobDir returns the directory holding git-cob's config and logs.
func (c *Client) CobDir() string {
	return filepath.Join(c.gitDir, domain.CobDirName)
}

// Remotes returns the configured remote names, sorted.
func (c *Client) Remotes() ([]string, error) {
	cmd := exec.Command("git", "remote")
	cmd.Dir = c.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	remotes := strings.Fields(string(out))
	slices.Sort(remotes)
	return remotes, nil
}

// HasRemote reports whether a remote is configured.
func (c *Client) HasRemote(name string) (bool, error) {
	remotes, err := c.Remotes()
	if err != nil {
		return false, err
	}
	return slices.Contains(remotes, name), nil
}

// findGitRoot finds the main repository root from dir.
func findGitRoot(dir string) (repoRoot, gitDir string, err error) {
	cmd := exec.Command("git", "rev-parse", "--git-common-dir")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", "", domain.ErrNotGitRepository
	}
	gitDir = strings.TrimSpace(string(out))

	// Make gitDir absolute if it's relative
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(dir, gitDir)
	}
	gitDir = filepath.Clean(gitDir)

	// repoRoot is the parent of .git directory
	return filepath.Dir(gitDir), gitDir, nil
}
