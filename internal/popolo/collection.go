package popolo

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"popolo/internal/approxdate"
)

// Collection holds the entities of one kind in insertion order, indexed by
// Key.
type Collection[T Entity] struct {
	name   string
	kind   string
	root   *Popolo
	items  []T
	lookup map[string]T
}

func newCollection[T Entity](name, kind string, root *Popolo) *Collection[T] {
	return &Collection[T]{
		name:   name,
		kind:   kind,
		root:   root,
		lookup: make(map[string]T),
	}
}

// Name is the collection's key in the root mapping, e.g. "persons".
func (c *Collection[T]) Name() string { return c.name }

func (c *Collection[T]) Len() int { return len(c.items) }

func (c *Collection[T]) At(i int) T { return c.items[i] }

func (c *Collection[T]) All() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// First returns false when the collection is empty.
func (c *Collection[T]) First() (T, bool) {
	if len(c.items) == 0 {
		var zero T
		return zero, false
	}
	return c.items[0], true
}

func (c *Collection[T]) Filter(pred func(T) bool) []T {
	var matches []T
	for _, item := range c.items {
		if pred(item) {
			matches = append(matches, item)
		}
	}
	return matches
}

// Select returns every entity matching q.
func (c *Collection[T]) Select(q Query) []T {
	return c.Filter(func(item T) bool { return q.Matches(item) })
}

// Get returns the single entity matching q.
func (c *Collection[T]) Get(q Query) (T, error) {
	return c.get(q.String(), func(item T) bool { return q.Matches(item) })
}

// GetFunc is Get for an arbitrary predicate; desc names the predicate in
// errors.
func (c *Collection[T]) GetFunc(desc string, pred func(T) bool) (T, error) {
	return c.get(desc, pred)
}

func (c *Collection[T]) get(desc string, pred func(T) bool) (T, error) {
	var zero T
	matches := c.Filter(pred)
	switch len(matches) {
	case 0:
		return zero, &NotFoundError{Kind: c.kind, Query: desc}
	case 1:
		return matches[0], nil
	}
	return zero, &MultipleFoundError{Kind: c.kind, Query: desc, Count: len(matches)}
}

// Lookup finds an entity by its current Key. Keys can change after Append,
// through Set on the id or, for memberships, on any field, so an index hit
// is rechecked and a miss falls back to a scan from the newest entity.
func (c *Collection[T]) Lookup(key string) (T, bool) {
	if item, ok := c.lookup[key]; ok && item.Key() == key {
		return item, true
	}
	for i := len(c.items) - 1; i >= 0; i-- {
		if item := c.items[i]; item.Key() == key {
			c.lookup[key] = item
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Append binds each item to the collection's root and indexes it, replacing
// any earlier entity with the same key in the index.
func (c *Collection[T]) Append(items ...T) {
	for _, item := range items {
		item.bind(c.root)
		c.lookup[item.Key()] = item
		c.items = append(c.items, item)
	}
}

// RawData returns the underlying records in order.
func (c *Collection[T]) RawData() []Record {
	out := make([]Record, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.Data())
	}
	return out
}

func (c *Collection[T]) lookupEntity(key string) (Entity, bool) {
	item, ok := c.Lookup(key)
	if !ok {
		return nil, false
	}
	return item, true
}

func (c *Collection[T]) entityKind() string { return c.kind }

func (c *Collection[T]) entities() []Entity { return toEntities(c.items) }

func (c *Collection[T]) appendEntity(e Entity) bool {
	item, ok := e.(T)
	if !ok {
		return false
	}
	c.Append(item)
	return true
}

func (c *Collection[T]) rawItems() []any {
	out := make([]any, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.Data())
	}
	return out
}

// entityCollection is the untyped view the root uses to resolve relations.
type entityCollection interface {
	Name() string
	Len() int
	lookupEntity(key string) (Entity, bool)
	entityKind() string
	appendEntity(e Entity) bool
	rawItems() []any
	entities() []Entity
}

type condition struct {
	property string
	value    any
}

// Query is a described predicate over entity properties. The description
// appears in NotFound and MultipleFound errors.
type Query struct {
	conds []condition
	desc  string
	fn    func(Entity) bool
}

// Where matches entities whose property equals value. Dates compare by
// bounds, so a string value must have the same precision as the stored date.
// Related properties match an Entity or an id string.
func Where(property string, value any) Query {
	return Query{conds: []condition{{property: property, value: value}}}
}

// Match wraps an arbitrary predicate.
func Match(desc string, fn func(Entity) bool) Query {
	return Query{desc: desc, fn: fn}
}

func (q Query) And(property string, value any) Query {
	conds := make([]condition, len(q.conds), len(q.conds)+1)
	copy(conds, q.conds)
	q.conds = append(conds, condition{property: property, value: value})
	return q
}

func (q Query) Matches(e Entity) bool {
	if q.fn != nil && !q.fn(e) {
		return false
	}
	for _, c := range q.conds {
		got, err := e.Field(c.property)
		if err != nil {
			return false
		}
		if !valuesEqual(got, c.value) {
			return false
		}
	}
	return true
}

func (q Query) String() string {
	parts := make([]string, 0, len(q.conds)+1)
	if q.desc != "" {
		parts = append(parts, q.desc)
	}
	for _, c := range q.conds {
		parts = append(parts, c.property+"="+formatValue(c.value))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return strings.Join(parts, ", ")
}

func valuesEqual(got, want any) bool {
	switch w := want.(type) {
	case approxdate.ApproxDate:
		g, ok := got.(approxdate.ApproxDate)
		return ok && g.Equal(w)
	case time.Time:
		g, ok := got.(approxdate.ApproxDate)
		return ok && g.EqualDate(w)
	case Entity:
		g, ok := got.(Entity)
		return ok && Same(g, w)
	}
	switch g := got.(type) {
	case approxdate.ApproxDate:
		s, ok := want.(string)
		if !ok {
			return false
		}
		d, err := approxdate.Parse(s)
		return err == nil && g.Equal(d)
	case Entity:
		s, ok := want.(string)
		return ok && g.ID() == s
	}
	if gf, ok := number(got); ok {
		if wf, ok := number(want); ok {
			return gf == wf
		}
	}
	return reflect.DeepEqual(got, want)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return quote(x)
	case Entity:
		return x.Kind() + ":" + quote(x.ID())
	case approxdate.ApproxDate:
		return x.String()
	case time.Time:
		return x.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
