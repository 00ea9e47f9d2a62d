// Package cmd implements the msaf daemon's command-line entry point.
package cmd

import (
	"errors"
	"os"

	"msaf/internal/app"
	"msaf/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for the msaf command, per spec.md §6: 0 clean shutdown, 1
// configuration error, 2 bind failure.
const (
	ExitCodeSuccess      = 0
	ExitCodeConfigError  = 1
	ExitCodeBindFailure  = 2
)

var rootCmd = &cobra.Command{
	Use:   "msaf",
	Short: "5G Media Streaming Application Function control-plane daemon",
	Long: `msaf runs the 5GMSd Application Function's control plane: the M1
provisioning API, the M5 service-access API, M3 southbound reconciliation
against configured Application Servers, and the PCF/BSF network-assistance
client.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main with
// the build-time version string.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the CLI entry point called from main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "msaf version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error returned from a subcommand's RunE to the exit
// code spec.md §6 prescribes for it.
func getExitCode(err error) int {
	var configErr *app.ConfigError
	if errors.As(err, &configErr) {
		return ExitCodeConfigError
	}
	var bindErr *app.BindError
	if errors.As(err, &bindErr) {
		return ExitCodeBindFailure
	}
	return ExitCodeConfigError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())

	var debug bool
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug-level logging")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := logging.LevelInfo
		if debug {
			level = logging.LevelDebug
		}
		logging.Init(level, os.Stderr)
	}
}
