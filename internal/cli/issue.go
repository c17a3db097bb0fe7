package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-cob/internal/app"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/usecase"
)

// newIssueCommand creates the issue command with its subcommands.
func newIssueCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue",
		Aliases: []string{"i"},
		Short:   "Manage issues",
		Long: `Create, discuss and inspect issues.

Issues are collaborative objects: every change is appended to the issue's
history and concurrent changes from peers merge without conflicts.

Issue ids may be abbreviated to any unambiguous prefix.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(
		newIssueCreateCommand(c),
		newIssueCommentCommand(c),
		newIssueStateCommand(c, domain.StateClosed),
		newIssueStateCommand(c, domain.StateOpen),
		newIssueLabelCommand(c),
		newIssueReactCommand(c),
		newIssueShowCommand(c),
		newIssueListCommand(c),
		newIssueLogCommand(c),
		newIssueLogsCommand(c),
	)
	return cmd
}

// newIssueCreateCommand creates the issue create subcommand.
func newIssueCreateCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Title       string
		Description string
	}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new issue",
		Long: `Open a new issue authored by the configured identity.

The description becomes the issue's first comment. Without --title, the
issue is composed in $EDITOR: the first line is the title and the rest is
the description.

Examples:
  cob issue create --title "Crash on start" --body "Steps to reproduce..."
  cob issue create`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, err := c.CreateIssueUseCase()
			if err != nil {
				return err
			}
			if opts.Title == "" {
				text, err := editText("Write the title on the first line and the description below it.")
				if err != nil {
					return err
				}
				opts.Title, opts.Description = splitTitle(text)
			}
			out, err := uc.Execute(cmd.Context(), usecase.CreateIssueInput{
				Title:       opts.Title,
				Description: opts.Description,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created issue %s\n", out.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Issue title (opens $EDITOR when omitted)")
	cmd.Flags().StringVarP(&opts.Description, "body", "b", "", "Issue description")
	return cmd
}

// newIssueCommentCommand creates the issue comment subcommand.
func newIssueCommentCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> [message]",
		Short: "Comment on an issue",
		Long: `Add a comment to an issue. Without a message, the comment is
composed in $EDITOR.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.AddCommentUseCase()
			if err != nil {
				return err
			}
			var body string
			if len(args) == 2 {
				body = args[1]
			} else if body, err = editText("Write your comment above."); err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.AddCommentInput{IssueID: args[0], Body: body})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commented on issue %s\n", out.ID.Short())
			return nil
		},
	}
}

// newIssueStateCommand creates the issue close or reopen subcommand.
func newIssueStateCommand(c *app.Container, state domain.State) *cobra.Command {
	use, short, verb := "close <id>", "Close an issue", "Closed"
	if state == domain.StateOpen {
		use, short, verb = "reopen <id>", "Reopen a closed issue", "Reopened"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Closing a closed issue or reopening an open one is allowed and still
recorded in the history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.SetIssueStateUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.SetIssueStateInput{IssueID: args[0], State: state})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s issue %s\n", verb, out.ID.Short())
			return nil
		},
	}
}

// newIssueLabelCommand creates the issue label subcommand.
func newIssueLabelCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "label <id> <label>...",
		Short: "Add labels to an issue",
		Long: `Add labels to an issue. Labels already present are kept once.

Examples:
  cob issue label 3f2a91c bug ui`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.LabelIssueUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.LabelIssueInput{IssueID: args[0], Labels: args[1:]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Labeled issue %s\n", out.ID.Short())
			return nil
		},
	}
}

// newIssueReactCommand creates the issue react subcommand.
func newIssueReactCommand(c *app.Container) *cobra.Command {
	var index int

	cmd := &cobra.Command{
		Use:   "react <id> <reaction>...",
		Short: "React to an issue or one of its comments",
		Long: `React to an issue's description or, with --comment, to a reply.

Each reaction is a single character such as an emoji. Comment indexes are
the numbers shown by 'cob issue show'; 0 is the description.

Examples:
  cob issue react 3f2a91c 🚀
  cob issue react 3f2a91c --comment 2 👀 🎉`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.ReactToCommentUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.ReactToCommentInput{
				IssueID:   args[0],
				Index:     index,
				Reactions: args[1:],
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reacted on issue %s\n", out.ID.Short())
			return nil
		},
	}

	cmd.Flags().IntVarP(&index, "comment", "c", 0, "Comment index (0 is the description)")
	return cmd
}

// newIssueShowCommand creates the issue show subcommand.
func newIssueShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.ShowIssueUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.ShowIssueInput{IssueID: args[0]})
			if err != nil {
				return err
			}
			printIssueDetails(cmd.OutOrStdout(), out.ID, out.Issue, DefaultStyles())
			return nil
		},
	}
}

// newIssueListCommand creates the issue list subcommand.
func newIssueListCommand(c *app.Container) *cobra.Command {
	var opts struct {
		State string
		Label string
		All   bool
	}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List issues",
		Long: `Display a list of issues.

By default only open issues are shown.

Output format is tab-separated with columns:
  ID, STATE, LABELS, TITLE

Examples:
  cob issue list
  cob issue list --all
  cob issue list --state closed --label bug`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state := opts.State
			if state == "" && !opts.All {
				state = domain.StateOpen.String()
			}
			uc, err := c.ListIssuesUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.ListIssuesInput{State: state, Label: opts.Label})
			if err != nil {
				return err
			}
			printIssueList(cmd.OutOrStdout(), out.Issues)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.State, "state", "s", "", "Filter by state (open, closed)")
	cmd.Flags().StringVarP(&opts.Label, "label", "l", "", "Filter by label")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Show issues in every state")
	return cmd
}

// newIssueLogCommand creates the issue log subcommand.
func newIssueLogCommand(c *app.Container) *cobra.Command {
	var diag bool

	cmd := &cobra.Command{
		Use:   "log <id>",
		Short: "Show the change history of an issue",
		Long: `Show every stored change of an issue in causal order.

With --diag, each change is also printed in CBOR diagnostic notation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.ShowHistoryUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.ShowHistoryInput{IssueID: args[0]})
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), out.Object, diag, DefaultStyles())
		},
	}

	cmd.Flags().BoolVar(&diag, "diag", false, "Print changes in CBOR diagnostic notation")
	return cmd
}

// newIssueLogsCommand creates the issue logs subcommand.
func newIssueLogsCommand(c *app.Container) *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs <id>",
		Short: "Show local log entries for an issue",
		Long: `Show what this repository logged while changing an issue.

Entries are read from .git/cob/logs/<id>.log.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, err := c.ShowLogsUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.ShowLogsInput{IssueID: args[0], Lines: lines})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Content)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 0, "Number of lines from the end (0 = all)")
	return cmd
}
