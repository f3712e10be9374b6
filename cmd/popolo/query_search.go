package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"popolo/internal/popolo"
)

func querySearchCmd() *cobra.Command {
	var data dataFlags
	var kind string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find entities whose name or other names contain text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(cmd, data, strings.Join(args, " "), kind)
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", "", "Collection or kind to search")
	return cmd
}

func runQuerySearch(cmd *cobra.Command, data dataFlags, text, kind string) error {
	ctx := context.Background()

	collections := popolo.CollectionKeys
	if kind != "" {
		collection, ok := collectionName(kind)
		if !ok {
			return errors.Newf("unknown kind %q", kind)
		}
		collections = []string{collection}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}

	needle := strings.ToLower(text)
	var found int
	for _, collection := range collections {
		for _, e := range p.Entities(collection) {
			if !nameContains(e.Data(), needle) {
				continue
			}
			found++
			fmt.Fprintln(os.Stdout, entityLine(e))
		}
	}
	if found == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
	}
	return nil
}

func nameContains(rec popolo.Record, needle string) bool {
	if name, ok := rec["name"].(string); ok && strings.Contains(strings.ToLower(name), needle) {
		return true
	}
	others, _ := rec["other_names"].([]any)
	for _, other := range others {
		sub, ok := other.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := sub["name"].(string); ok && strings.Contains(strings.ToLower(name), needle) {
			return true
		}
	}
	return false
}
