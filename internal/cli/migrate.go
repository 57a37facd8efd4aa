package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushhourgame/railnet/internal/app"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Create or update railway tables and indexes",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", a.DB.Driver())
				return nil
			})
		},
	}
}
