package main

import (
	"context"

	"github.com/spf13/cobra"
)

var configPath string

// Execute builds and runs the riskgov CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{Use: "riskgov", Short: "Risk governance core: capital scaling and trust supervision"}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to governor.yaml (defaults apply when empty)")

	root.AddCommand(serveCmd(ctx))
	root.AddCommand(evalCmd())

	return root.ExecuteContext(ctx)
}
