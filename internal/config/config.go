package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"popolo/internal/popolo"
)

const (
	DefaultDSN      = "sqlite://./popolo.db"
	DefaultLogLevel = "info"
	EnvPrefix       = "POPOLO"
)

type ProjectConfig struct {
	Project         string                `yaml:"project"`
	Version         int                   `yaml:"version"`
	Database        DatabaseConfig        `yaml:"database"`
	Log             LogConfig             `yaml:"log"`
	Sources         []Source              `yaml:"sources"`
	Classifications ClassificationsConfig `yaml:"classifications"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Source is a named popolo file, either a local path or a URL.
type Source struct {
	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

type ClassificationsConfig struct {
	Election          []string `yaml:"election"`
	LegislativePeriod []string `yaml:"legislative_period"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading project config")
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "loading project config")
	}

	applyEnv(&cfg)

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, errors.Wrap(err, "loading project config")
	}

	return &cfg, nil
}

// applyEnv fills defaults and lets POPOLO_* variables override the file,
// e.g. POPOLO_DATABASE_DSN or POPOLO_LOG_LEVEL.
func applyEnv(cfg *ProjectConfig) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.dsn", firstNonEmpty(cfg.Database.DSN, DefaultDSN))
	v.SetDefault("log.level", firstNonEmpty(cfg.Log.Level, DefaultLogLevel))
	v.SetDefault("log.json", cfg.Log.JSON)

	cfg.Database.DSN = v.GetString("database.dsn")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.JSON = v.GetBool("log.json")

	defaults := popolo.DefaultClassifications
	if len(cfg.Classifications.Election) == 0 {
		cfg.Classifications.Election = append([]string(nil), defaults.Election...)
	}
	if len(cfg.Classifications.LegislativePeriod) == 0 {
		cfg.Classifications.LegislativePeriod = append([]string(nil), defaults.LegislativePeriod...)
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return errors.New("project name is required")
	}
	if cfg.Version != 1 {
		return errors.Newf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Sources) == 0 {
		return errors.New("at least one source is required")
	}

	seen := make(map[string]struct{})
	for i, src := range cfg.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return errors.Newf("source %d name is required", i)
		}
		if strings.TrimSpace(src.Location) == "" {
			return errors.Newf("source %s location is required", src.Name)
		}
		key := strings.ToLower(src.Name)
		if _, exists := seen[key]; exists {
			return errors.Newf("duplicate source name: %s", src.Name)
		}
		seen[key] = struct{}{}
	}

	return nil
}

func (c *ProjectConfig) SourceByName(name string) (Source, bool) {
	if c == nil {
		return Source{}, false
	}
	for _, src := range c.Sources {
		if strings.EqualFold(src.Name, name) {
			return src, true
		}
	}
	return Source{}, false
}

// PopoloClassifications converts the configured lists for the core package.
func (c ClassificationsConfig) PopoloClassifications() popolo.Classifications {
	out := popolo.DefaultClassifications
	if len(c.Election) > 0 {
		out.Election = c.Election
	}
	if len(c.LegislativePeriod) > 0 {
		out.LegislativePeriod = c.LegislativePeriod
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
