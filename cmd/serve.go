// File: cmd/serve.go
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/bridge"
	"github.com/xkilldash9x/pagepilot/internal/observability"
)

// newServeCmd creates the `serve` command: run the newline-delimited
// JSON command loop over stdin/stdout for a driving agent.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serves the automation command protocol over stdin/stdout",
		Long: `Serve reads one JSON command per line from stdin and writes one JSON
response per line to stdout. Sessions are opened with the open_session
command and addressed by the returned session_id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			router := bridge.NewRouter(cfg, logger)
			logger.Info("Serving automation protocol on stdin/stdout")

			err = router.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Serve loop terminated", zap.Error(err))
				return err
			}
			logger.Info("Serve loop finished")
			return nil
		},
	}
	return serveCmd
}
