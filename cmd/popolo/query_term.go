package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryTermCmd() *cobra.Command {
	var data dataFlags
	var all bool
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Show the latest legislative period and its memberships",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryTerm(cmd, data, all)
		},
	}
	data.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "List every legislative period instead")
	return cmd
}

func runQueryTerm(cmd *cobra.Command, data dataFlags, all bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}

	if all {
		terms := p.Terms()
		if len(terms) == 0 {
			fmt.Fprintln(os.Stdout, "No legislative periods found.")
			return nil
		}
		for _, term := range terms {
			if err := printEventLine(term); err != nil {
				return err
			}
		}
		return nil
	}

	term, err := p.LatestTerm()
	if err != nil {
		return err
	}
	if err := printEventLine(term); err != nil {
		return err
	}

	memberships := term.Memberships()
	fmt.Fprintf(os.Stdout, "Memberships (%d):\n", len(memberships))
	for _, m := range memberships {
		line, err := membershipLine(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "  %s\n", line)
	}
	return nil
}
