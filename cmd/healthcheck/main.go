// main.go
//
// Out-of-process liveness probe for aphrodite
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of aphrodite.
// aphrodite is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// aphrodite is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with aphrodite.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/services"
	"github.com/localnerve/aphrodite/internal/types"
	"github.com/localnerve/aphrodite/internal/utils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	url     string
	backend string
	timeout time.Duration
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}

	cmd := &cobra.Command{
		Use:           "healthcheck",
		Short:         "Probe a running aphrodite listener",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch config.Backend(opts.backend) {
			case "", config.MySQL, config.Postgres, config.SQLite:
			default:
				return fmt.Errorf("%w: %s", types.ErrUnsupportedBackend, opts.backend)
			}

			// Perform health check
			result := services.HealthCheck(opts.url, config.Backend(opts.backend), opts.timeout)

			// Output result as JSON
			output, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal health check result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))

			if !result.Healthy() {
				return fmt.Errorf("service is %s", result.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "http://"+config.DefaultListen+"/", "URL of the service root")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "expect the greeting of this backend")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", utils.DefaultPingTimeout, "timeout for each probe")

	return cmd
}
