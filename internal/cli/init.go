package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-cob/internal/app"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/usecase"
)

// newInitCommand creates the init command.
func newInitCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize repository for git-cob",
		Long: `Initialize a repository for git-cob.

This command creates the .git/cob/ directory with:
- config.toml: repository configuration (kept if it exists)
- logs/: directory for log files

and marks the configured object store as initialized.

Preconditions:
- Current directory must be inside a git repository`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitRepoUseCase().Execute(cmd.Context(), usecase.InitRepoInput{
				CobDir: c.Config.CobDir,
			})
			if err != nil {
				return err
			}

			_, err = c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{Config: c.AppConfig})
			if err != nil && !errors.Is(err, domain.ErrConfigExists) {
				return err
			}

			if out.AlreadyInitialized {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "git-cob already initialized in %s\n", out.CobDir)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Initialized git-cob in %s\n", out.CobDir)
			return nil
		},
	}
}
