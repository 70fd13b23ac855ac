package commands

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dyluth/teamboard/internal/config"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath   string
	instanceName string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "teamboard",
	Short: "Teamboard - team directory and task board with optimistic updates",
	Long: `Teamboard keeps a team directory and a task board in a durable store.

Collections are fetched from their source on first use and cached, so later
commands start warm. Status moves are applied optimistically and confirmed
against a backend; a rejected move is rolled back and reported.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printer.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		if verbose {
			log.SetOutput(cmd.ErrOrStderr())
		} else {
			log.SetOutput(io.Discard)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	// Enable strict flag parsing - unknown flags will cause an error
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// Silence Cobra's default error and usage printing
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	log.SetOutput(os.Stderr)
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to teamboard.yml (defaults apply if it does not exist)")
	rootCmd.PersistentFlags().StringVarP(&instanceName, "name", "n", "", "Instance name (overrides config and TEAMBOARD_INSTANCE)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print component logs to stderr")
}
