package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"popolo/internal/validate"
)

func validateCmd() *cobra.Command {
	var data dataFlags
	var rulesPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, data, rulesPath)
		},
	}
	data.register(cmd)
	cmd.Flags().StringVar(&rulesPath, "rules", defaultRulesPath, "Validation rules file")
	return cmd
}

func runValidate(cmd *cobra.Command, data dataFlags, rulesPath string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rules, err := loadRules(rulesPath)
	if err != nil {
		return err
	}

	src, release, err := dataSource(ctx, cfg, data)
	if err != nil {
		return err
	}
	defer release()

	report, err := validate.Run(ctx, rules, src)
	if err != nil {
		return err
	}

	if len(report.Issues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}
	printReport(report)

	if report.HasErrors() {
		return errors.New("validation found errors")
	}
	return nil
}

func printReport(report *validate.Report) {
	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}
}

func printIssues(out *os.File, issues []validate.Issue) {
	for _, issue := range issues {
		location := fmt.Sprintf("%s %s", issue.Kind, issue.Entity)
		if issue.Property != "" {
			location = fmt.Sprintf("%s.%s", location, issue.Property)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
