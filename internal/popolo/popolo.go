// Package popolo is a typed, cross-referenced view over Popolo political
// data: people, organizations, memberships, areas, posts and events.
package popolo

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Collection names as they appear in the root mapping.
const (
	KeyPersons       = "persons"
	KeyOrganizations = "organizations"
	KeyMemberships   = "memberships"
	KeyAreas         = "areas"
	KeyPosts         = "posts"
	KeyEvents        = "events"
)

// CollectionKeys lists the root keys in export order.
var CollectionKeys = []string{KeyPersons, KeyOrganizations, KeyMemberships, KeyAreas, KeyPosts, KeyEvents}

// Classifications decides which events count as elections and which as
// legislative periods.
type Classifications struct {
	Election          []string
	LegislativePeriod []string
}

var DefaultClassifications = Classifications{
	Election:          []string{"general election"},
	LegislativePeriod: []string{"legislative period"},
}

// Popolo owns one collection per entity kind. Relations between entities are
// ids resolved against these collections when read.
type Popolo struct {
	Persons       *Collection[*Person]
	Organizations *Collection[*Organization]
	Memberships   *Collection[*Membership]
	Areas         *Collection[*Area]
	Posts         *Collection[*Post]
	Events        *Collection[*Event]

	Classifications Classifications
}

// New returns an empty aggregate.
func New() *Popolo {
	p := &Popolo{Classifications: DefaultClassifications}
	p.Persons = newCollection[*Person](KeyPersons, KindPerson, p)
	p.Organizations = newCollection[*Organization](KeyOrganizations, KindOrganization, p)
	p.Memberships = newCollection[*Membership](KeyMemberships, KindMembership, p)
	p.Areas = newCollection[*Area](KeyAreas, KindArea, p)
	p.Posts = newCollection[*Post](KeyPosts, KindPost, p)
	p.Events = newCollection[*Event](KeyEvents, KindEvent, p)
	return p
}

// FromData builds the aggregate from a decoded root mapping. Missing keys
// give empty collections; unknown keys are ignored.
func FromData(data map[string]any) (*Popolo, error) {
	p := New()
	for _, key := range CollectionKeys {
		records, err := recordList(data[key])
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", key)
		}
		for _, rec := range records {
			switch key {
			case KeyPersons:
				p.Persons.Append(NewPerson(rec))
			case KeyOrganizations:
				p.Organizations.Append(NewOrganization(rec))
			case KeyMemberships:
				p.Memberships.Append(NewMembership(rec))
			case KeyAreas:
				p.Areas.Append(NewArea(rec))
			case KeyPosts:
				p.Posts.Append(NewPost(rec))
			case KeyEvents:
				p.Events.Append(NewEvent(rec))
			}
		}
	}
	return p, nil
}

func recordList(v any) ([]Record, error) {
	switch items := v.(type) {
	case nil:
		return nil, nil
	case []Record:
		return items, nil
	case []any:
		out := make([]Record, 0, len(items))
		for i, item := range items {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Newf("item %d is %T, not an object", i, item)
			}
			out = append(out, rec)
		}
		return out, nil
	}
	return nil, errors.Newf("expected a list of objects, got %T", v)
}

func (p *Popolo) collections() []entityCollection {
	return []entityCollection{p.Persons, p.Organizations, p.Memberships, p.Areas, p.Posts, p.Events}
}

func (p *Popolo) collection(name string) (entityCollection, bool) {
	for _, c := range p.collections() {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Entities returns the members of the named collection, or nil for an
// unknown name.
func (p *Popolo) Entities(collection string) []Entity {
	c, ok := p.collection(collection)
	if !ok {
		return nil
	}
	return c.entities()
}

// Counts returns the size of every collection keyed by root key.
func (p *Popolo) Counts() map[string]int {
	counts := make(map[string]int, len(CollectionKeys))
	for _, c := range p.collections() {
		counts[c.Name()] = c.Len()
	}
	return counts
}

// Add appends each entity to the collection for its type. Slices of
// entities are flattened. Nothing is added if any value is not an entity.
func (p *Popolo) Add(items ...any) error {
	var entities []Entity
	for _, item := range items {
		flat, err := flatten(item)
		if err != nil {
			return err
		}
		entities = append(entities, flat...)
	}
	targets := make([]entityCollection, len(entities))
	for i, e := range entities {
		c, ok := p.collectionFor(e)
		if !ok {
			return errors.Wrapf(ErrInvalidType, "%T", e)
		}
		targets[i] = c
	}
	for i, e := range entities {
		targets[i].appendEntity(e)
	}
	return nil
}

func flatten(item any) ([]Entity, error) {
	switch v := item.(type) {
	case Entity:
		return []Entity{v}, nil
	case []Entity:
		return v, nil
	case []*Person:
		return toEntities(v), nil
	case []*Organization:
		return toEntities(v), nil
	case []*Membership:
		return toEntities(v), nil
	case []*Area:
		return toEntities(v), nil
	case []*Post:
		return toEntities(v), nil
	case []*Event:
		return toEntities(v), nil
	case []any:
		var out []Entity
		for _, x := range v {
			flat, err := flatten(x)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInvalidType, "%T", item)
}

func toEntities[T Entity](items []T) []Entity {
	out := make([]Entity, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func (p *Popolo) collectionFor(e Entity) (entityCollection, bool) {
	switch e.(type) {
	case *Person:
		return p.Persons, true
	case *Organization:
		return p.Organizations, true
	case *Membership:
		return p.Memberships, true
	case *Area:
		return p.Areas, true
	case *Post:
		return p.Posts, true
	case *Event:
		return p.Events, true
	}
	return nil, false
}

func (p *Popolo) eventsClassified(classes []string) []*Event {
	return p.Events.Filter(func(e *Event) bool {
		c := e.Classification()
		for _, want := range classes {
			if c == want {
				return true
			}
		}
		return false
	})
}

func (p *Popolo) Elections() []*Event {
	return p.eventsClassified(p.Classifications.Election)
}

func (p *Popolo) LegislativePeriods() []*Event {
	return p.eventsClassified(p.Classifications.LegislativePeriod)
}

func (p *Popolo) Terms() []*Event { return p.LegislativePeriods() }

// LatestLegislativePeriod picks the period whose start date has the latest
// midpoint; on a tie the first one wins.
func (p *Popolo) LatestLegislativePeriod() (*Event, error) {
	var latest *Event
	for _, term := range p.LegislativePeriods() {
		start, err := term.StartDate()
		if err != nil {
			return nil, err
		}
		if latest == nil {
			latest = term
			continue
		}
		best, err := latest.StartDate()
		if err != nil {
			return nil, err
		}
		if start.Midpoint().After(best.Midpoint()) {
			latest = term
		}
	}
	if latest == nil {
		return nil, &NotFoundError{
			Kind:  KindEvent,
			Query: fmt.Sprintf("classification in %q", p.Classifications.LegislativePeriod),
		}
	}
	return latest, nil
}

func (p *Popolo) LatestTerm() (*Event, error) { return p.LatestLegislativePeriod() }

// Data rebuilds the root mapping from the current collections. Every key is
// present, and records are shared with the entities.
func (p *Popolo) Data() map[string]any {
	data := make(map[string]any, len(CollectionKeys))
	for _, c := range p.collections() {
		data[c.Name()] = c.rawItems()
	}
	return data
}

// ToJSON renders Data with sorted keys and four-space indentation.
func (p *Popolo) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(p.Data()); err != nil {
		return nil, errors.Wrap(err, "encoding popolo json")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
