package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"popolo/internal/loader"
)

func exportCmd() *cobra.Command {
	var data dataFlags
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a dataset as popolo JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			return runExport(cmd, data, out)
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output file")
	return cmd
}

func runExport(cmd *cobra.Command, data dataFlags, out string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}
	if err := loader.WriteFile(out, p); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", out)
	return nil
}
