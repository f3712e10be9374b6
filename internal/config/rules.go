package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"popolo/internal/popolo"
)

// Rules are dataset-specific checks layered over the built-in integrity
// checks of the validate package.
type Rules struct {
	Version int        `yaml:"version"`
	Kinds   []KindRule `yaml:"kinds"`

	kindIndex map[string]*KindRule
}

type KindRule struct {
	Kind       string     `yaml:"kind"`
	Properties []Property `yaml:"properties"`
}

type Property struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Values   []string `yaml:"values"`
	Required bool     `yaml:"required"`
}

var knownKinds = map[string]struct{}{
	popolo.KindPerson:       {},
	popolo.KindOrganization: {},
	popolo.KindMembership:   {},
	popolo.KindArea:         {},
	popolo.KindPost:         {},
	popolo.KindEvent:        {},
}

func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "loading rules")
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, errors.Wrap(err, "loading rules")
	}

	if err := validateRules(&rules); err != nil {
		return nil, errors.Wrap(err, "loading rules")
	}

	rules.index()
	return &rules, nil
}

func (r *Rules) index() {
	r.kindIndex = make(map[string]*KindRule, len(r.Kinds))
	for i := range r.Kinds {
		kind := &r.Kinds[i]
		r.kindIndex[strings.ToLower(kind.Kind)] = kind
	}
}

func validateRules(r *Rules) error {
	if r.Version != 1 {
		return errors.Newf("unsupported version: %d", r.Version)
	}

	kinds := make(map[string]struct{})
	for i, kind := range r.Kinds {
		key := strings.ToLower(strings.TrimSpace(kind.Kind))
		if key == "" {
			return errors.Newf("kind %d name is required", i)
		}
		if _, ok := knownKinds[key]; !ok {
			return errors.Newf("unknown kind: %s", kind.Kind)
		}
		if _, exists := kinds[key]; exists {
			return errors.Newf("duplicate kind: %s", kind.Kind)
		}
		kinds[key] = struct{}{}

		propNames := make(map[string]struct{})
		for _, prop := range kind.Properties {
			name := strings.ToLower(strings.TrimSpace(prop.Name))
			if name == "" {
				return errors.Newf("kind %s has property with empty name", kind.Kind)
			}
			if _, exists := propNames[name]; exists {
				return errors.Newf("kind %s has duplicate property: %s", kind.Kind, prop.Name)
			}
			propNames[name] = struct{}{}
			if strings.EqualFold(prop.Type, "enum") && len(prop.Values) == 0 {
				return errors.Newf("kind %s property %s enum has no values", kind.Kind, prop.Name)
			}
		}
	}

	return nil
}

// ForKind matches kind names case-insensitively. A nil Rules has no rules.
func (r *Rules) ForKind(kind string) (*KindRule, bool) {
	if r == nil {
		return nil, false
	}
	if r.kindIndex == nil {
		r.index()
	}
	rule, ok := r.kindIndex[strings.ToLower(kind)]
	return rule, ok
}

func (p Property) IsEnum() bool {
	return strings.EqualFold(p.Type, "enum")
}

// Allows reports whether value is one of the enum values. Non-enum
// properties allow anything.
func (p Property) Allows(value string) bool {
	if !p.IsEnum() {
		return true
	}
	for _, v := range p.Values {
		if v == value {
			return true
		}
	}
	return false
}
