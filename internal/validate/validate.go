package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"popolo/internal/approxdate"
	"popolo/internal/config"
	"popolo/internal/logger"
	"popolo/internal/popolo"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDanglingReference   = "dangling_reference"
	codeDuplicateID         = "duplicate_id"
	codeMissingID           = "missing_id"
	codeInvalidDate         = "invalid_date"
	codeInvertedDates       = "inverted_dates"
	codeAmbiguousIdentifier = "ambiguous_identifier"
	codeAmbiguousName       = "ambiguous_name"
	codeMissingRequired     = "missing_required_property"
	codeEnumInvalid         = "enum_value_invalid"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Kind     string
	Entity   string
	Property string
}

type Report struct {
	Issues []Issue
}

// Errors counts error-severity issues.
func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool { return r.Errors() > 0 }

// datePairs are start and end properties that must not be inverted.
var datePairs = map[string][2]string{
	popolo.KindPerson:       {"birth_date", "death_date"},
	popolo.KindOrganization: {"founding_date", "dissolution_date"},
	popolo.KindMembership:   {"start_date", "end_date"},
	popolo.KindEvent:        {"start_date", "end_date"},
}

// Run checks referential integrity, ids and dates of every entity, then
// applies rules when given.
func Run(ctx context.Context, rules *config.Rules, src Source) (*Report, error) {
	if src == nil {
		return nil, errors.New("dataset source is required")
	}

	start := time.Now()
	p, err := src.Dataset(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading dataset")
	}

	issues := make([]Issue, 0)
	for _, collection := range popolo.CollectionKeys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities := p.Entities(collection)
		if collection != popolo.KeyMemberships {
			issues = append(issues, validateIDs(entities)...)
		}
		for _, e := range entities {
			issues = append(issues, validateFields(e)...)
			issues = append(issues, validateDateOrder(e)...)
			issues = append(issues, validateIdentifiers(e)...)
			if rule, ok := rules.ForKind(e.Kind()); ok {
				issues = append(issues, validateEnumValues(e, rule)...)
				issues = append(issues, validateRequiredProperties(e, rule)...)
			}
		}
	}
	for _, person := range p.Persons.All() {
		issues = append(issues, validateHistoricNames(person)...)
	}

	logger.Logger.Debugw("validated dataset",
		logger.FieldCount, len(issues),
		logger.FieldDurationMS, time.Since(start).Milliseconds(),
	)
	return &Report{Issues: issues}, nil
}

func validateIDs(entities []popolo.Entity) []Issue {
	var issues []Issue
	seen := make(map[string]int)
	for i, e := range entities {
		id := e.ID()
		if id == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeMissingID,
				Message:  fmt.Sprintf("%s at position %d has no id", e.Kind(), i),
				Kind:     e.Kind(),
				Entity:   fmt.Sprintf("#%d", i),
			})
			continue
		}
		seen[id]++
		if seen[id] == 2 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeDuplicateID,
				Message:  fmt.Sprintf("duplicate %s id: %s", e.Kind(), id),
				Kind:     e.Kind(),
				Entity:   id,
			})
		}
	}
	return issues
}

// validateFields reads every date and related field through the schema so
// parse and relation errors surface.
func validateFields(e popolo.Entity) []Issue {
	var issues []Issue
	for _, f := range e.Schema().Fields() {
		if f.Kind != popolo.Date && f.Kind != popolo.Related {
			continue
		}
		_, err := e.Field(f.Property)
		switch {
		case err == nil:
		case errors.Is(err, approxdate.ErrParse):
			issues = append(issues, newIssue(e, SeverityError, codeInvalidDate, f.Property,
				fmt.Sprintf("invalid %s: %q", f.Property, fmt.Sprint(e.Data()[f.Key]))))
		case errors.Is(err, popolo.ErrInvalidRelation):
			issues = append(issues, newIssue(e, SeverityError, codeDanglingReference, f.Property,
				fmt.Sprintf("%s refers to missing id %q", f.Key, fmt.Sprint(e.Data()[f.Key]))))
		case f.Kind == popolo.Related:
			issues = append(issues, newIssue(e, SeverityError, codeDanglingReference, f.Property, err.Error()))
		default:
			issues = append(issues, newIssue(e, SeverityError, codeInvalidDate, f.Property, err.Error()))
		}
	}
	return issues
}

func validateDateOrder(e popolo.Entity) []Issue {
	pair, ok := datePairs[e.Kind()]
	if !ok {
		return nil
	}
	start, err := e.Field(pair[0])
	if err != nil {
		return nil
	}
	end, err := e.Field(pair[1])
	if err != nil {
		return nil
	}
	s, ok1 := start.(approxdate.ApproxDate)
	d, ok2 := end.(approxdate.ApproxDate)
	if !ok1 || !ok2 || !s.Earliest().After(d.Latest()) {
		return nil
	}
	return []Issue{newIssue(e, SeverityWarn, codeInvertedDates, pair[0],
		fmt.Sprintf("%s %s is after %s %s", pair[0], s, pair[1], d))}
}

func validateIdentifiers(e popolo.Entity) []Issue {
	v, err := e.Field("identifiers")
	if err != nil {
		return nil
	}
	ids, _ := v.([]popolo.Record)
	counts := make(map[string]int)
	for _, id := range ids {
		if scheme, ok := id["scheme"].(string); ok {
			counts[scheme]++
		}
	}

	schemes := make([]string, 0, len(counts))
	for scheme, n := range counts {
		if n > 1 {
			schemes = append(schemes, scheme)
		}
	}
	sort.Strings(schemes)

	var issues []Issue
	for _, scheme := range schemes {
		issues = append(issues, newIssue(e, SeverityWarn, codeAmbiguousIdentifier, "identifiers",
			fmt.Sprintf("%d identifiers for scheme %s", counts[scheme], scheme)))
	}
	return issues
}

// validateHistoricNames asks for the name at each boundary of every
// historic name; overlapping ranges make some boundary ambiguous.
func validateHistoricNames(p *popolo.Person) []Issue {
	var days []time.Time
	for _, name := range p.OtherNames() {
		if _, historic := name["end_date"]; !historic {
			continue
		}
		for _, key := range []string{"start_date", "end_date"} {
			text, _ := name[key].(string)
			if d, err := approxdate.Parse(text); err == nil && text != "" {
				days = append(days, d.Earliest(), d.Latest())
			}
		}
	}

	for _, day := range days {
		_, err := p.NameAt(day)
		if errors.Is(err, popolo.ErrAmbiguousName) {
			return []Issue{newIssue(p, SeverityWarn, codeAmbiguousName, "other_names", err.Error())}
		}
	}
	return nil
}

func validateEnumValues(e popolo.Entity, rule *config.KindRule) []Issue {
	var issues []Issue
	for _, prop := range rule.Properties {
		if !prop.IsEnum() || len(prop.Values) == 0 {
			continue
		}
		value, ok := e.Data()[prop.Name]
		if !ok {
			continue
		}
		valueStr, ok := value.(string)
		if !ok {
			continue
		}
		if !prop.Allows(valueStr) {
			issues = append(issues, newIssue(e, SeverityError, codeEnumInvalid, prop.Name,
				fmt.Sprintf("invalid enum value for %s: %s", prop.Name, valueStr)))
		}
	}
	return issues
}

func validateRequiredProperties(e popolo.Entity, rule *config.KindRule) []Issue {
	var issues []Issue
	for _, prop := range rule.Properties {
		if !prop.Required {
			continue
		}
		value, ok := e.Data()[prop.Name]
		missing := !ok || value == nil
		if s, isStr := value.(string); isStr && strings.TrimSpace(s) == "" {
			missing = true
		}
		if missing {
			issues = append(issues, newIssue(e, SeverityError, codeMissingRequired, prop.Name,
				fmt.Sprintf("missing required property: %s", prop.Name)))
		}
	}
	return issues
}

func newIssue(e popolo.Entity, severity Severity, code, property, message string) Issue {
	return Issue{
		Severity: severity,
		Code:     code,
		Message:  message,
		Kind:     e.Kind(),
		Entity:   label(e),
		Property: property,
	}
}

// label names an entity in a report. Memberships rarely have ids.
func label(e popolo.Entity) string {
	if id := e.ID(); id != "" {
		return id
	}
	if m, ok := e.(*popolo.Membership); ok {
		return fmt.Sprintf("%s in %s", m.PersonID(), m.OrganizationID())
	}
	return "(no id)"
}
