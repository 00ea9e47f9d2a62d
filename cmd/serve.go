package cmd

import (
	"context"

	"msaf/internal/app"

	"github.com/spf13/cobra"
)

// configPath is the --config flag's destination, pointing at the YAML
// configuration document internal/config.Load reads.
var configPath string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the 5GMSd AF control-plane daemon",
		Long: `Loads the AF's configuration, binds every configured M1/M3/M5
endpoint, and runs the signaling event loop until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&configPath, "config", "/etc/msaf/config.yaml", "path to the YAML configuration file")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := app.New(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return application.Run(ctx)
}
