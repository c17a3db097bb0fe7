// Package cli provides the command-line interface for git-cob.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-cob/internal/app"
)

// Command group IDs.
const (
	groupSetup = "setup"
	groupIssue = "issue"
	groupSync  = "sync"
)

// NewRootCommand creates the root command for git-cob.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "cob",
		Short: "Collaborative objects stored in git",
		Long: `git-cob keeps issues as collaborative objects inside a git repository.

Each change to an issue is a commit under refs/<namespace>/cobs/. Peers
exchange those refs and every replica converges on the same issue state,
no matter the order changes arrive in.

Run 'cob init' once per repository, then set [identity] and [project] in
.git/cob/config.toml.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip if container is nil (e.g. in tests)
			if c == nil || c.AppConfig == nil {
				return nil
			}
			for _, w := range c.AppConfig.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			return nil
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
		&cobra.Group{ID: groupIssue, Title: "Issues:"},
		&cobra.Group{ID: groupSync, Title: "Collaboration:"},
	)

	initCmd := newInitCommand(c)
	initCmd.GroupID = groupSetup

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	issueCmd := newIssueCommand(c)
	issueCmd.GroupID = groupIssue

	syncCmd := newSyncCommand(c)
	syncCmd.GroupID = groupSync

	root.AddCommand(initCmd, configCmd, issueCmd, syncCmd)
	return root
}
