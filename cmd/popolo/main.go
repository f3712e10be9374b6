package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"popolo/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:   "popolo",
		Short: "Load, store and query Popolo political data",
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "Project config file")
	root.AddCommand(importCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(snapshotsCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
