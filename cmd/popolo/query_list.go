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

func queryListCmd() *cobra.Command {
	var data dataFlags
	var kind string
	var where []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities of one kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryList(cmd, data, kind, where)
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&kind, "kind", popolo.KeyPersons, "Collection or kind to list")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Property filter as key=value (repeatable)")
	return cmd
}

func runQueryList(cmd *cobra.Command, data dataFlags, kind string, where []string) error {
	ctx := context.Background()

	collection, ok := collectionName(kind)
	if !ok {
		return errors.WithHint(
			errors.Newf("unknown kind %q", kind),
			"one of: "+strings.Join(popolo.CollectionKeys, ", "),
		)
	}
	conds, err := parseParamPairs(where)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}

	var q popolo.Query
	for property, value := range conds {
		q = q.And(property, value)
	}

	var found int
	for _, e := range p.Entities(collection) {
		if !q.Matches(e) {
			continue
		}
		found++
		fmt.Fprintln(os.Stdout, entityLine(e))
	}
	if found == 0 {
		fmt.Fprintln(os.Stdout, "No entities found.")
	}
	return nil
}

// collectionName accepts either a collection key or a kind name.
func collectionName(kind string) (string, bool) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, key := range popolo.CollectionKeys {
		if kind == key || kind+"s" == key {
			return key, true
		}
	}
	return "", false
}

func entityLine(e popolo.Entity) string {
	name := ""
	if v, err := e.Field("name"); err == nil {
		if s, ok := v.(string); ok {
			name = s
		}
	}
	if m, ok := e.(*popolo.Membership); ok {
		name = m.PersonID() + " in " + m.OrganizationID()
	}
	id := e.ID()
	if id == "" {
		id = "(no id)"
	}
	if name == "" {
		return fmt.Sprintf("%s (%s)", id, e.Kind())
	}
	return fmt.Sprintf("%s (%s) [%s]", name, e.Kind(), id)
}
