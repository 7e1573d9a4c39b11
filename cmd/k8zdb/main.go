// Package main is the entry point for the k8zdb CLI.
//
// k8zdb provisions PostgreSQL, MySQL and MongoDB workloads on a Kubernetes
// cluster reached over SSH, scales and resizes them and tears them down.
//
// Commands: provision, scale, resize, destroy, status, usage, serve, version.
package main

import (
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/imamik/k8zdb/cmd/k8zdb/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
