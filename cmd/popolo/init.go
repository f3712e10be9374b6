package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

const rulesTemplate = `version: 1
kinds:
  - kind: person
    properties:
      - name: name
        required: true
  - kind: organization
    properties:
      - name: classification
        type: enum
        values: [legislature, party, executive, committee]
  - kind: event
    properties:
      - name: classification
        type: enum
        values: [general election, legislative period]
`

func initCmd() *cobra.Command {
	var projectName string
	var location string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new popolo project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return errors.New("--name is required")
			}
			return runInit(projectName, location)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&location, "source", "./ep-popolo-v1.0.json", "Popolo file path or URL for the first source")
	return cmd
}

func runInit(projectName, location string) error {
	for _, path := range []string{configPath, defaultRulesPath} {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("%s already exists", path)
		}
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\ndatabase:\n  dsn: sqlite://./%s.db\n\nlog:\n  level: info\n\nsources:\n  - name: %s\n    location: %s\n\nclassifications:\n  election: [general election]\n  legislative_period: [legislative period]\n", projectName, projectName, projectName, location)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", configPath)
	}
	if err := os.WriteFile(defaultRulesPath, []byte(rulesTemplate), 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", defaultRulesPath)
	}

	return nil
}
