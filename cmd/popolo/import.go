package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"popolo/internal/config"
	"popolo/internal/loader"
	"popolo/internal/store"
	"popolo/internal/validate"
)

type importTarget struct {
	dataset  string
	location string
}

func importCmd() *cobra.Command {
	var datasetName string
	var rulesPath string
	var skipValidate bool
	cmd := &cobra.Command{
		Use:   "import [source | path | url]",
		Short: "Load popolo data and save it as a snapshot",
		Long: "Without arguments every configured source is imported. An argument naming a\n" +
			"configured source imports that source; anything else is read as a path or URL.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}
			return runImport(cmd, arg, datasetName, rulesPath, skipValidate)
		},
	}
	cmd.Flags().StringVar(&datasetName, "dataset", "", "Dataset name for a path or URL (defaults to the file name)")
	cmd.Flags().StringVar(&rulesPath, "rules", defaultRulesPath, "Validation rules file")
	cmd.Flags().BoolVar(&skipValidate, "no-validate", false, "Save without running validation")
	return cmd
}

func runImport(cmd *cobra.Command, arg, datasetName, rulesPath string, skipValidate bool) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	targets, err := importTargets(cfg, arg, datasetName)
	if err != nil {
		return err
	}

	var rules *config.Rules
	if !skipValidate {
		rules, err = loadRules(rulesPath)
		if err != nil {
			return err
		}
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close(ctx)

	var failures []error
	for _, target := range targets {
		snap, err := importOne(ctx, cfg, s, rules, target, skipValidate)
		if err != nil {
			failures = append(failures, errors.Wrapf(err, "importing %s", target.dataset))
			continue
		}
		pterm.Success.Printf("Imported %s (revision %s)\n", snap.Dataset, snap.Revision)
		printCounts(snap.Counts)
	}

	if len(failures) > 0 {
		fmt.Fprintf(os.Stdout, "\nErrors (%d):\n", len(failures))
		for _, item := range failures {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
		return errors.New("import completed with errors")
	}
	return nil
}

func importOne(ctx context.Context, cfg *config.ProjectConfig, s store.Store, rules *config.Rules, target importTarget, skipValidate bool) (store.Snapshot, error) {
	spinner, _ := pterm.DefaultSpinner.Start("Loading " + target.location)
	p, err := loader.Load(ctx, target.location)
	if err != nil {
		if spinner != nil {
			spinner.Fail(err.Error())
		}
		return store.Snapshot{}, err
	}
	if spinner != nil {
		spinner.Success("Loaded " + target.location)
	}
	p.Classifications = cfg.Classifications.PopoloClassifications()

	if !skipValidate {
		report, err := validate.Run(ctx, rules, validate.Loaded{Popolo: p})
		if err != nil {
			return store.Snapshot{}, err
		}
		if len(report.Issues) > 0 {
			printReport(report)
		}
		if report.HasErrors() {
			return store.Snapshot{}, errors.WithHint(
				errors.Newf("validation found %d errors", report.Errors()),
				"fix the data or pass --no-validate",
			)
		}
	}

	return store.Save(ctx, s, target.dataset, target.location, p)
}

func importTargets(cfg *config.ProjectConfig, arg, datasetName string) ([]importTarget, error) {
	if arg == "" {
		if datasetName != "" {
			return nil, errors.New("--dataset needs a path or URL argument")
		}
		targets := make([]importTarget, 0, len(cfg.Sources))
		for _, src := range cfg.Sources {
			targets = append(targets, importTarget{dataset: src.Name, location: src.Location})
		}
		return targets, nil
	}

	if src, ok := cfg.SourceByName(arg); ok {
		name := src.Name
		if datasetName != "" {
			name = datasetName
		}
		return []importTarget{{dataset: name, location: src.Location}}, nil
	}

	name := datasetName
	if name == "" {
		name = datasetFromLocation(arg)
	}
	if name == "" {
		return nil, errors.Newf("cannot derive a dataset name from %q, pass --dataset", arg)
	}
	return []importTarget{{dataset: name, location: arg}}, nil
}

// datasetFromLocation uses the file name without its extension.
func datasetFromLocation(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	base := filepath.Base(strings.TrimRight(location, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
