package cli

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/runoshun/git-cob/internal/app"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/usecase"
)

// newConfigCommand creates the config command.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage git-cob configuration files and settings.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newConfigShowCommand(c))
	cmd.AddCommand(newConfigTemplateCommand())
	cmd.AddCommand(newConfigInitCommand(c))
	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display effective configuration after merging the global and
repository config files. The encryption key is masked.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowConfigUseCase().Execute(cmd.Context(), usecase.ShowConfigInput{})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(w, "[Loaded from]")
			if out.RepoConfigExists {
				_, _ = fmt.Fprintf(w, "- %s\n", out.RepoConfigPath)
			} else {
				_, _ = fmt.Fprintf(w, "- %s (not found)\n", out.RepoConfigPath)
			}
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "[Effective Config]")
			if err := toml.NewEncoder(w).Encode(out.EffectiveConfig); err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			return nil
		},
	}
}

// newConfigTemplateCommand creates the config template subcommand.
func newConfigTemplateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Output configuration template",
		Long: `Output a configuration file template to stdout.

It does not depend on existing configuration files and works even if they
are broken.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := usecase.NewShowConfigTemplate().Execute(cmd.Context(), usecase.ShowConfigTemplateInput{})
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out.Template)
			return err
		},
	}
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Identity string
		Project  string
	}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the repository config file",
		Long: `Create .git/cob/config.toml from the template.

Examples:
  cob config init --identity did:key:z6MkAlice --project rad:git:hnrkyghsrokxzxpy9pqb`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := domain.NewDefaultConfig()
			cfg.Identity.URN = opts.Identity
			cfg.Project.URN = opts.Project
			if _, err := cfg.Author(); opts.Identity != "" && err != nil {
				return err
			}
			if _, err := cfg.ProjectID(); opts.Project != "" && err != nil {
				return err
			}

			out, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{Config: cfg})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Identity, "identity", "", "Identity urn of the local author")
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project urn objects belong to")
	return cmd
}
