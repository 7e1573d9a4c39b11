package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/k8zdb/cmd/k8zdb/handlers"
	"github.com/imamik/k8zdb/internal/workload"
)

// Provision returns the provision command.
func Provision() *cobra.Command {
	var (
		opts handlers.ProvisionOptions
		kind string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a database workload",
		Long: `Provision deploys a PostgreSQL, MySQL or MongoDB statefulset on the
cluster host, waits until it is reachable and optionally imports a data file.

The password is read from --password, K8ZDB_PASSWORD or an interactive prompt.
Data files may be local paths or s3://bucket/key references.

Example:
  k8zdb provision --kind postgresql --namespace tenant-a \
    --database app --user app --capacity 5 --data-file dump.sql.gz`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.Spec.Kind = workload.Kind(kind)
			return handlers.Provision(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "Database kind: postgresql, mysql or mongodb")
	f.StringVarP(&opts.Spec.Namespace, "namespace", "n", "", "Target namespace")
	f.StringVar(&opts.Spec.Database, "database", "", "Database name")
	f.StringVar(&opts.Spec.User, "user", "", "Database user")
	f.StringVar(&opts.Spec.Password, "password", "", "Database password (prefer "+handlers.EnvPassword+")")
	f.IntVar(&opts.Spec.CapacityGi, "capacity", 0, "Volume size in GiB (default depends on kind)")
	f.StringVar(&opts.Spec.StorageClass, "storage-class", "", "Storage class of the volume claim")
	f.StringVar(&opts.Spec.DataFile, "data-file", "", "Data file to import (local path or s3://bucket/key)")
	addConfigFlag(cmd, &opts.ConfigPath)
	addOutputFlag(cmd, &opts.Output)

	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("namespace")
	_ = cmd.MarkFlagRequired("database")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
