package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushhourgame/railnet/internal/app"
	"github.com/rushhourgame/railnet/internal/config"
)

// RootOptions holds global flags and the app factory shared by every command.
type RootOptions struct {
	ConfigPath string

	// Open builds the application for one command run. The returned func releases it.
	Open func(ctx context.Context, cfg *config.Config) (*app.App, func(), error)
}

func defaultOpen(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return a, a.Close, nil
}

// NewRootCommand creates the railnet command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Open: defaultOpen})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "railnet",
		Short: "railnet - railway network store",
		Long:  "Operate the railway network aggregate store: schema migration, sample data and inspection.",
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $RAILNET_CONFIG or ./railnet.yaml)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	return cmd
}

func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath != "" {
		cfg, _, err := config.LoadFromPath(o.ConfigPath)
		return cfg, err
	}
	cfg, _, err := config.Load()
	return cfg, err
}

// withApp loads config, opens the app and releases it once fn returns.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, release, err := o.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open railnet: %w", err)
	}
	defer release()
	return fn(ctx, a)
}
