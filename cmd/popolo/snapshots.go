package main

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"popolo/internal/store"
)

func snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List stored datasets and their latest revision",
		Args:  cobra.NoArgs,
		RunE:  runSnapshots,
	}
	cmd.AddCommand(snapshotsDeleteCmd())
	return cmd
}

func snapshotsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <dataset>",
		Short: "Remove a dataset and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshotsDelete(cmd, args[0])
		},
	}
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	snapshots, err := s.ListSnapshots(ctx)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		pterm.Info.Println("No snapshots stored.")
		return nil
	}

	for _, snap := range snapshots {
		printSnapshot(snap)
	}
	return nil
}

func printSnapshot(snap store.Snapshot) {
	pterm.Printf("%s %s\n", pterm.LightGreen(snap.Dataset), pterm.Gray(snap.Revision))
	pterm.Printf("  saved:  %s\n", snap.SavedAt.Format("2006-01-02 15:04:05 MST"))
	if snap.Source != "" {
		pterm.Printf("  source: %s\n", snap.Source)
	}
	printCounts(snap.Counts)
}

func runSnapshotsDelete(cmd *cobra.Command, dataset string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	removed, err := s.DeleteDataset(ctx, dataset)
	if err != nil {
		return err
	}
	pterm.Success.Printf("Deleted %s (%d records)\n", dataset, removed)
	return nil
}
