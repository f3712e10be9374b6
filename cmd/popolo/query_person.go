package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"popolo/internal/approxdate"
	"popolo/internal/popolo"
)

func queryPersonCmd() *cobra.Command {
	var data dataFlags
	var at string
	cmd := &cobra.Command{
		Use:   "person <id | name>",
		Short: "Display a person and their properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryPerson(cmd, data, args[0], at)
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "Show the name in use on this YYYY-MM-DD date")
	return cmd
}

func runQueryPerson(cmd *cobra.Command, data dataFlags, idOrName, at string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}

	person, err := findPerson(p, idOrName)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "ID: %s\n", person.ID())
	fmt.Fprintf(os.Stdout, "Name: %s\n", person.Name())
	if at != "" {
		day, err := parseDay(at)
		if err != nil {
			return err
		}
		name, err := person.NameAt(day)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Name on %s: %s\n", at, name)
	}
	if twitter := person.Twitter(); twitter != "" {
		fmt.Fprintf(os.Stdout, "Twitter: %s\n", twitter)
	}
	fmt.Fprintf(os.Stdout, "Memberships: %d\n", len(person.Memberships()))

	printPropertyBlock("Properties", person.Data())
	return nil
}

// findPerson tries the id first and falls back to an exact name.
func findPerson(p *popolo.Popolo, idOrName string) (*popolo.Person, error) {
	if person, ok := p.Persons.Lookup(idOrName); ok {
		return person, nil
	}
	return p.Persons.Get(popolo.Where("name", idOrName))
}

func parseDay(s string) (time.Time, error) {
	d, err := approxdate.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	if !d.Earliest().Equal(d.Latest()) {
		return time.Time{}, errors.Newf("date %q must be a full YYYY-MM-DD date", s)
	}
	return d.Earliest(), nil
}

func printPropertyBlock(title string, props map[string]any) {
	if len(props) == 0 {
		return
	}
	keys := make([]string, 0, len(props))
	for key := range props {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	fmt.Fprintf(os.Stdout, "%s:\n", title)
	for _, key := range keys {
		fmt.Fprintf(os.Stdout, "  %s: %v\n", key, props[key])
	}
}
