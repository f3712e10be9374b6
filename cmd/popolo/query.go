package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query popolo data from the CLI",
	}
	cmd.AddCommand(queryPersonCmd())
	cmd.AddCommand(queryMembershipsCmd())
	cmd.AddCommand(queryTermCmd())
	cmd.AddCommand(queryListCmd())
	cmd.AddCommand(querySearchCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}
