package main

import (
	"context"
	"io/fs"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"popolo/internal/config"
	"popolo/internal/logger"
	"popolo/internal/popolo"
	"popolo/internal/store"
	"popolo/internal/store/postgres"
	"popolo/internal/store/sqlite"
	"popolo/internal/validate"
)

const (
	defaultConfigPath = "popolo.yaml"
	defaultRulesPath  = "rules.yaml"
)

var configPath = defaultConfigPath

// loadConfig reads the project config and sets up logging from it.
func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, errors.WithHint(err, "run `popolo init --name <project>` to create one")
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.JSON); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	scheme, err := store.Scheme(cfg.Database.DSN)
	if err != nil {
		return nil, errors.WithHint(err, "database.dsn must start with sqlite:// or postgres://")
	}

	var s store.Store
	switch scheme {
	case store.SchemeSQLite:
		s, err = sqlite.New(ctx, cfg.Database.DSN)
	case store.SchemePostgres:
		s, err = postgres.New(ctx, cfg.Database.DSN)
	}
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// dataFlags selects the data a read command works on: a popolo file or the
// latest snapshot of a stored dataset.
type dataFlags struct {
	file    string
	dataset string
}

func (f *dataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "Popolo JSON file path or URL")
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "Stored dataset name")
	cmd.MarkFlagsMutuallyExclusive("file", "dataset")
}

// classified applies the configured event classifications to what src
// yields.
type classified struct {
	src             validate.Source
	classifications popolo.Classifications
}

func (c classified) Dataset(ctx context.Context) (*popolo.Popolo, error) {
	p, err := c.src.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	p.Classifications = c.classifications
	return p, nil
}

// dataSource resolves the flags to a source. The returned func releases the
// store when one was opened.
func dataSource(ctx context.Context, cfg *config.ProjectConfig, f dataFlags) (validate.Source, func(), error) {
	classifications := cfg.Classifications.PopoloClassifications()
	if f.file != "" {
		return classified{src: validate.LocationSource{Location: f.file}, classifications: classifications}, func() {}, nil
	}

	name := f.dataset
	if name == "" {
		if len(cfg.Sources) != 1 {
			return nil, nil, errors.WithHint(
				errors.New("--dataset or --file is required"),
				"configured datasets: "+strings.Join(sourceNames(cfg), ", "),
			)
		}
		name = cfg.Sources[0].Name
	}

	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	src := classified{src: validate.StoreSource{Store: s, Name: name}, classifications: classifications}
	return src, func() { _ = s.Close(ctx) }, nil
}

func loadData(ctx context.Context, cfg *config.ProjectConfig, f dataFlags) (*popolo.Popolo, error) {
	src, release, err := dataSource(ctx, cfg, f)
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := src.Dataset(ctx)
	if errors.Is(err, store.ErrDatasetNotFound) {
		return nil, errors.WithHint(err, "run `popolo import` first")
	}
	return p, err
}

func sourceNames(cfg *config.ProjectConfig) []string {
	names := make([]string, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		names = append(names, src.Name)
	}
	return names
}

// loadRules reads the rules file. A missing file at the default path means
// no rules.
func loadRules(path string) (*config.Rules, error) {
	if path == "" {
		return nil, nil
	}
	rules, err := config.LoadRules(path)
	if err != nil {
		if path == defaultRulesPath && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return rules, nil
}
