package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8zdb/cmd/k8zdb/handlers"
)

// Serve returns the serve command.
func Serve() *cobra.Command {
	var configPath, addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve exposes workload operations, task progress, /metrics and /healthz
over HTTP until interrupted.

Example:
  k8zdb serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: serve.address from the config)")
	addConfigFlag(cmd, &configPath)

	return cmd
}
