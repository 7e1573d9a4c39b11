package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8zdb/cmd/k8zdb/handlers"
)

// Status returns the status command.
func Status() *cobra.Command {
	var configPath, output string

	cmd := &cobra.Command{
		Use:   "status [identity]",
		Short: "Show workload records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return handlers.Status(cmd.Context(), configPath, id, output)
		},
	}

	addConfigFlag(cmd, &configPath)
	addOutputFlag(cmd, &output)

	return cmd
}

// Usage returns the usage command.
func Usage() *cobra.Command {
	var configPath, output string

	cmd := &cobra.Command{
		Use:   "usage <identity>",
		Short: "Show CPU and memory usage of a running workload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Usage(cmd.Context(), configPath, args[0], output)
		},
	}

	addConfigFlag(cmd, &configPath)
	addOutputFlag(cmd, &output)

	return cmd
}
