package gitstore

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// errNoRepoPath is returned by sync operations on a store created from an
// in-memory repository.
var errNoRepoPath = errors.New("sync requires a repository path")

// Push publishes the store's own namespace to a remote.
func (s *Store) Push(ctx context.Context, remote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// go-git push requires auth config, so use the git command.
	refspec := fmt.Sprintf("+%s*:%s*", cobsPrefix(s.namespace), cobsPrefix(s.namespace))
	return s.git(ctx, "push", remote, refspec)
}

// Fetch copies the peer namespaces from a remote. Peer refs are merged on
// the next read; the own namespace is never overwritten.
func (s *Store) Fetch(ctx context.Context, remote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.peers) == 0 {
		return nil
	}
	args := []string{"fetch", remote}
	for _, ns := range s.peers {
		args = append(args, fmt.Sprintf("+%s*:%s*", cobsPrefix(ns), cobsPrefix(ns)))
	}
	return s.git(ctx, args...)
}

func (s *Store) git(ctx context.Context, args ...string) error {
	if s.repoPath == "" {
		return errNoRepoPath
	}
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", s.repoPath}, args...)...) //nolint:gosec // refspecs are built from configured namespaces
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s failed: %s: %w", args[0], string(output), err)
	}
	return nil
}
