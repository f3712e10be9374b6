package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"popolo/internal/popolo"
)

func summaryCmd() *cobra.Command {
	var data dataFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show collection sizes, terms and elections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd, data)
		},
	}
	data.register(cmd)
	return cmd
}

func runSummary(cmd *cobra.Command, data dataFlags) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}

	printCounts(p.Counts())
	pterm.Println()

	terms := p.LegislativePeriods()
	pterm.Info.Printf("Legislative periods: %d\n", len(terms))
	for _, term := range terms {
		if err := printEventLine(term); err != nil {
			return err
		}
	}
	if latest, err := p.LatestTerm(); err == nil {
		pterm.Printf("  latest: %s\n", pterm.Green(eventLabel(latest)))
	} else if !errors.Is(err, popolo.ErrNotFound) {
		return err
	}

	elections := p.Elections()
	pterm.Info.Printf("Elections: %d\n", len(elections))
	for _, election := range elections {
		if err := printEventLine(election); err != nil {
			return err
		}
	}
	return nil
}

func printCounts(counts map[string]int) {
	for _, key := range popolo.CollectionKeys {
		pterm.Printf("  %-14s %s\n", key, pterm.LightCyan(counts[key]))
	}
}

func printEventLine(e *popolo.Event) error {
	start, err := e.StartDate()
	if err != nil {
		return err
	}
	end, err := e.EndDate()
	if err != nil {
		return err
	}
	pterm.Printf("  %s %s\n", eventLabel(e), pterm.Gray(start.String()+" to "+end.String()))
	return nil
}

func eventLabel(e *popolo.Event) string {
	if e.Name() == "" {
		return e.ID()
	}
	return e.Name() + " (" + e.ID() + ")"
}
