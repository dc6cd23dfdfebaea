package main

import (
	"fmt"
	"os"

	"github.com/localnerve/aphrodite/internal/bootstrap"
	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/logging"
	"github.com/localnerve/aphrodite/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(types.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aphrodite",
		Short: "Serve a greeting backed by a mysql, postgres or sqlite connection pool",
		Example: `  aphrodite -t mysql -u app -p secret -h db:3306 -d props
  aphrodite -t sqlite -d ./props.db --listen 0.0.0.0:8000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	config.RegisterFlags(rootCmd.Flags())
	// -h is --host, so help is long-form only
	rootCmd.Flags().Bool("help", false, "help for aphrodite")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", types.ErrInvalidArgument, err)
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "aphrodite %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	closer, err := logging.Apply(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().
		Str("version", version).
		Str("backend", string(cfg.Backend)).
		Str("listen", cfg.Listen).
		Msg("Starting aphrodite")

	return bootstrap.Run(cfg)
}
