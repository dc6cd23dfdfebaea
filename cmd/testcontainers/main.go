package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/testsupport"
	"github.com/localnerve/aphrodite/internal/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run test container")
	}
}

func newRootCmd() *cobra.Command {
	var backend string
	var envFilename string

	cmd := &cobra.Command{
		Use:   "testcontainers",
		Short: "Run a throwaway mysql or postgres server for aphrodite",
		Long: `Run a database container with credentials from the environment (DB_USER,
DB_PASSWORD, DB_DATABASE, MYSQL_IMAGE, POSTGRES_IMAGE), optionally loaded from a .env file,
and print the aphrodite command line that connects to it. The container is removed on
SIGINT or SIGTERM.`,
		Example:       "  testcontainers --type postgres -f /path/to/something/.env",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch config.Backend(backend) {
			case config.MySQL, config.Postgres:
			default:
				return fmt.Errorf("%w: %s", types.ErrUnsupportedBackend, backend)
			}

			if envFilename != "" {
				log.Info().Str("file", envFilename).Msg("Loading environment variables")
				if err := godotenv.Load(envFilename); err != nil {
					return fmt.Errorf("failed to load environment variables: %w", err)
				}
			} else {
				log.Info().Msg("No environment file specified, using current environment variables")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			dbc, err := testsupport.StartDatabase(ctx, config.Backend(backend), testsupport.DefaultCredentials())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "aphrodite "+shellJoin(dbc.Args()))

			<-ctx.Done()
			log.Info().Msg("Received signal, terminating test container")
			return dbc.Terminate(context.Background())
		},
	}

	cmd.Flags().StringVar(&backend, "type", string(config.MySQL), "database backend: mysql or postgres")
	cmd.Flags().StringVarP(&envFilename, "env-file", "f", "", "path to the .env file")

	return cmd
}

// shellJoin quotes each argument for a POSIX shell.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
