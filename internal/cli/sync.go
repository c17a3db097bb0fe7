package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/git-cob/internal/app"
	"github.com/runoshun/git-cob/internal/usecase"
)

// newSyncCommand creates the sync command.
func newSyncCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Fetch bool
		Push  bool
	}

	cmd := &cobra.Command{
		Use:   "sync [remote]",
		Short: "Exchange objects with a remote",
		Long: `Fetch peer namespaces from a remote and push your own.

Peers are the namespaces listed under [store] peers. Fetched changes are
merged the next time an object is read. Only the git backend can sync.

Examples:
  cob sync
  cob sync upstream --fetch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := usecase.SyncObjectsInput{Fetch: opts.Fetch, Push: opts.Push}
			if len(args) == 1 {
				in.Remote = args[0]
			}
			out, err := c.SyncObjectsUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}
			if out.Fetched {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Fetched from %s\n", out.Remote)
			}
			if out.Pushed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pushed to %s\n", out.Remote)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Fetch, "fetch", false, "Only fetch")
	cmd.Flags().BoolVar(&opts.Push, "push", false, "Only push")
	return cmd
}
