package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8zdb/cmd/k8zdb/handlers"
)

// Scale returns the scale command.
func Scale() *cobra.Command {
	var (
		configPath string
		output     string
		replicas   int32
	)

	cmd := &cobra.Command{
		Use:   "scale <identity>",
		Short: "Change the replica count of a workload",
		Long: `Scale sets the statefulset replica count. Zero stops the workload,
any other count runs it.

Example:
  k8zdb scale abcd1234 --replicas 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Scale(cmd.Context(), configPath, args[0], replicas, output)
		},
	}

	cmd.Flags().Int32Var(&replicas, "replicas", 0, "Desired replica count")
	_ = cmd.MarkFlagRequired("replicas")
	addConfigFlag(cmd, &configPath)
	addOutputFlag(cmd, &output)

	return cmd
}

// Resize returns the resize command.
func Resize() *cobra.Command {
	var (
		configPath string
		output     string
		capacity   int
	)

	cmd := &cobra.Command{
		Use:   "resize <identity>",
		Short: "Grow the volume of a workload",
		Long: `Resize expands the volume claim of a workload. Volumes never shrink.

Example:
  k8zdb resize abcd1234 --capacity 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Resize(cmd.Context(), configPath, args[0], capacity, output)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "New volume size in GiB")
	_ = cmd.MarkFlagRequired("capacity")
	addConfigFlag(cmd, &configPath)
	addOutputFlag(cmd, &output)

	return cmd
}
