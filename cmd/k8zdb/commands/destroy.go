package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8zdb/cmd/k8zdb/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "destroy <identity>",
		Short: "Remove a workload and its data",
		Long: `Destroy deletes the statefulset, service, secret and volume claim of a
workload, removes its files on the host and forgets its record.

Identities without a record are searched in the default namespace under
every database kind. Running destroy twice is safe.

Example:
  k8zdb destroy abcd1234 --yes

WARNING: This operation is irreversible. All data of the workload is lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Destroy(cmd.Context(), configPath, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	addConfigFlag(cmd, &configPath)

	return cmd
}
