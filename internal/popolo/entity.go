package popolo

import (
	"time"

	"github.com/cockroachdb/errors"

	"popolo/internal/approxdate"
)

const (
	KindPerson       = "person"
	KindOrganization = "organization"
	KindMembership   = "membership"
	KindArea         = "area"
	KindPost         = "post"
	KindEvent        = "event"
)

// Entity is a typed view over one Record. Only the types in this package
// implement it.
type Entity interface {
	Kind() string
	ID() string
	// Key identifies the entity inside its collection.
	Key() string
	Data() Record
	Root() *Popolo
	Schema() *Schema
	Field(property string) (any, error)
	Set(property string, value any) error
	bind(root *Popolo)
}

// Same reports whether a and b are the same entity: same kind and same key.
func Same(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Kind() == b.Kind() && a.Key() == b.Key()
}

// now is replaced in tests.
var now = time.Now

type record struct {
	schema *Schema
	data   Record
	root   *Popolo
}

func newRecord(schema *Schema, data Record) record {
	if data == nil {
		data = Record{}
	}
	return record{schema: schema, data: data}
}

func (r *record) Kind() string          { return r.schema.kind }
func (r *record) ID() string            { return stringOf(r.data["id"]) }
func (r *record) Key() string           { return r.ID() }
func (r *record) Data() Record          { return r.data }
func (r *record) Root() *Popolo         { return r.root }
func (r *record) Schema() *Schema       { return r.schema }
func (r *record) bind(root *Popolo)     { r.root = root }
func (r *record) str(key string) string { return stringOf(r.data[key]) }

// Field reads property through the schema. Date fields come back as
// approxdate.ApproxDate, related fields as Entity (nil when the key is
// unset), tagged fields as string or []string.
func (r *record) Field(property string) (any, error) {
	f, ok := r.schema.Field(property)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProperty, "%s.%s", r.schema.kind, property)
	}
	switch f.Kind {
	case Date:
		d, present, err := r.dateValue(f)
		if err != nil {
			return nil, err
		}
		if !present && f.Null {
			return nil, nil
		}
		return d, nil
	case Related:
		return r.relatedValue(f)
	case Tagged:
		if f.All {
			return tagValues(r.data, f.Tag, f.Key), nil
		}
		return tagValue(r.data, r.schema.kind, f.Tag, f.Key)
	}
	if f.List {
		return subRecords(r.data, f.Key), nil
	}
	v, ok := r.data[f.Key]
	if !ok || v == nil {
		if f.Null {
			return nil, nil
		}
		return f.Default, nil
	}
	return v, nil
}

// Set writes property through the schema. Dates accept an ApproxDate or a
// partial ISO string, related fields accept an Entity or an id, and a nil
// value removes the field.
func (r *record) Set(property string, value any) error {
	f, ok := r.schema.Field(property)
	if !ok {
		return errors.Wrapf(ErrUnknownProperty, "%s.%s", r.schema.kind, property)
	}
	switch f.Kind {
	case Date:
		switch v := value.(type) {
		case nil:
			delete(r.data, f.Key)
		case approxdate.ApproxDate:
			text, err := v.ISOFormat()
			if err != nil {
				return errors.Wrapf(err, "setting %s.%s", r.schema.kind, property)
			}
			r.data[f.Key] = text
		case time.Time:
			text, _ := approxdate.Exact(v).ISOFormat()
			r.data[f.Key] = text
		case string:
			if _, err := approxdate.Parse(v); err != nil {
				return errors.Wrapf(err, "setting %s.%s", r.schema.kind, property)
			}
			r.data[f.Key] = v
		default:
			return errors.Newf("setting %s.%s: unsupported date value %T", r.schema.kind, property, value)
		}
	case Related:
		switch v := value.(type) {
		case nil:
			delete(r.data, f.Key)
		case Entity:
			r.data[f.Key] = v.ID()
		case string:
			r.data[f.Key] = v
		default:
			return errors.Newf("setting %s.%s: unsupported related value %T", r.schema.kind, property, value)
		}
	case Tagged:
		if f.All {
			return errors.Newf("setting %s.%s: multi-valued field is read-only", r.schema.kind, property)
		}
		switch v := value.(type) {
		case nil:
			deleteTagValue(r.data, f.Tag, f.Key)
		case string:
			setTagValue(r.data, f.Tag, f.Key, v)
		default:
			return errors.Newf("setting %s.%s: unsupported value %T", r.schema.kind, property, value)
		}
	default:
		if value == nil {
			delete(r.data, f.Key)
			return nil
		}
		r.data[f.Key] = value
	}
	return nil
}

func (r *record) date(property string) (approxdate.ApproxDate, error) {
	f, ok := r.schema.Field(property)
	if !ok || f.Kind != Date {
		return approxdate.ApproxDate{}, errors.Wrapf(ErrUnknownProperty, "%s.%s", r.schema.kind, property)
	}
	d, _, err := r.dateValue(f)
	return d, err
}

func (r *record) dateValue(f Field) (approxdate.ApproxDate, bool, error) {
	text := stringOf(r.data[f.Key])
	if text == "" {
		def, _ := f.Default.(approxdate.ApproxDate)
		return def, false, nil
	}
	d, err := approxdate.Parse(text)
	if err != nil {
		return approxdate.ApproxDate{}, true, errors.Wrapf(err, "reading %s.%s", r.schema.kind, f.Property)
	}
	return d, true, nil
}

func (r *record) related(property string) (Entity, error) {
	f, ok := r.schema.Field(property)
	if !ok || f.Kind != Related {
		return nil, errors.Wrapf(ErrUnknownProperty, "%s.%s", r.schema.kind, property)
	}
	return r.relatedValue(f)
}

func (r *record) relatedValue(f Field) (Entity, error) {
	id := stringOf(r.data[f.Key])
	if id == "" {
		return nil, nil
	}
	if r.root == nil {
		return nil, errors.Wrapf(ErrDetached, "resolving %s.%s", r.schema.kind, f.Property)
	}
	target, ok := r.root.collection(f.Collection)
	if !ok {
		return nil, errors.Newf("resolving %s.%s: unknown collection %s", r.schema.kind, f.Property, f.Collection)
	}
	e, ok := target.lookupEntity(id)
	if !ok {
		return nil, &RelationError{
			Kind:     r.schema.kind,
			Property: f.Property,
			ID:       id,
			Err:      &NotFoundError{Kind: target.entityKind(), Query: "id=" + quote(id)},
		}
	}
	return e, nil
}

func (r *record) records(key string) []Record {
	return subRecords(r.data, key)
}

// IdentifierValue returns the identifier for scheme, or "" when there is
// none. More than one identifier for the scheme is an error.
func (r *record) IdentifierValue(scheme string) (string, error) {
	return tagValue(r.data, r.schema.kind, Identifiers, scheme)
}

func (r *record) IdentifierValues(scheme string) []string {
	return tagValues(r.data, Identifiers, scheme)
}

func (r *record) SetIdentifierValue(scheme, value string) {
	setTagValue(r.data, Identifiers, scheme, value)
}

func (r *record) LinkValue(note string) (string, error) {
	return tagValue(r.data, r.schema.kind, Links, note)
}

func (r *record) LinkValues(note string) []string {
	return tagValues(r.data, Links, note)
}

func (r *record) SetLinkValue(note, url string) {
	setTagValue(r.data, Links, note, url)
}

func (r *record) DeleteLinkValue(note string) bool {
	return deleteTagValue(r.data, Links, note)
}

func (r *record) ContactDetailValue(contactType string) (string, error) {
	return tagValue(r.data, r.schema.kind, ContactDetails, contactType)
}

func (r *record) ContactDetailValues(contactType string) []string {
	return tagValues(r.data, ContactDetails, contactType)
}

func (r *record) SetContactDetailValue(contactType, value string) {
	setTagValue(r.data, ContactDetails, contactType, value)
}

func (r *record) DeleteContactDetailValue(contactType string) bool {
	return deleteTagValue(r.data, ContactDetails, contactType)
}

// currentAt is shared by memberships and events.
func (r *record) currentAt(when time.Time) (bool, error) {
	start, err := r.date("start_date")
	if err != nil {
		return false, err
	}
	end, err := r.date("end_date")
	if err != nil {
		return false, err
	}
	return approxdate.PossiblyBetween(start, when, end), nil
}

// filterMemberships returns the root's memberships whose key field equals
// the entity id.
func (r *record) filterMemberships(key string) []*Membership {
	if r.root == nil {
		return nil
	}
	id := r.ID()
	if id == "" {
		return nil
	}
	return r.root.Memberships.Filter(func(m *Membership) bool {
		return m.str(key) == id
	})
}
