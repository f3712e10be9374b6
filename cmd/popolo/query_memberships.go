package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"popolo/internal/popolo"
)

func queryMembershipsCmd() *cobra.Command {
	var data dataFlags
	var at string
	var current bool
	var organization string
	cmd := &cobra.Command{
		Use:   "memberships [person id | name]",
		Short: "List memberships with their effective dates",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			person := ""
			if len(args) > 0 {
				person = args[0]
			}
			return runQueryMemberships(cmd, data, person, organization, at, current)
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&at, "at", "", "Only memberships current on this YYYY-MM-DD date")
	cmd.Flags().BoolVar(&current, "current", false, "Only memberships current today")
	cmd.Flags().StringVar(&organization, "organization", "", "Organization id to filter")
	cmd.MarkFlagsMutuallyExclusive("at", "current")
	return cmd
}

func runQueryMemberships(cmd *cobra.Command, data dataFlags, person, organization, at string, current bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := loadData(ctx, cfg, data)
	if err != nil {
		return err
	}

	memberships := p.Memberships.All()
	if person != "" {
		found, err := findPerson(p, person)
		if err != nil {
			return err
		}
		memberships = found.Memberships()
	}
	if organization != "" {
		var kept []*popolo.Membership
		for _, m := range memberships {
			if m.OrganizationID() == organization {
				kept = append(kept, m)
			}
		}
		memberships = kept
	}

	var day time.Time
	switch {
	case at != "":
		day, err = parseDay(at)
		if err != nil {
			return err
		}
	case current:
		day = time.Now().UTC()
	}
	if !day.IsZero() {
		var kept []*popolo.Membership
		for _, m := range memberships {
			ok, err := m.CurrentAt(day)
			if err != nil {
				return err
			}
			if ok {
				kept = append(kept, m)
			}
		}
		memberships = kept
	}

	if len(memberships) == 0 {
		fmt.Fprintln(os.Stdout, "No memberships found.")
		return nil
	}
	for _, m := range memberships {
		line, err := membershipLine(m)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

// membershipLine renders "person -> organization (role) [start to end]",
// using ids where a relation does not resolve.
func membershipLine(m *popolo.Membership) (string, error) {
	who := m.PersonID()
	if person, err := m.Person(); err == nil && person != nil {
		who = person.Name()
	}
	where := m.OrganizationID()
	if org, err := m.Organization(); err == nil && org != nil {
		where = org.Name()
	}

	start, err := m.EffectiveStartDate()
	if err != nil {
		return "", err
	}
	end, err := m.EffectiveEndDate()
	if err != nil {
		return "", err
	}

	line := fmt.Sprintf("%s -> %s", who, where)
	if role := m.Role(); role != "" {
		line += fmt.Sprintf(" (%s)", role)
	}
	if party := m.OnBehalfOfID(); party != "" {
		line += fmt.Sprintf(" for %s", party)
	}
	return line + fmt.Sprintf(" [%s to %s]", start, end), nil
}
