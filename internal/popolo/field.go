package popolo

import (
	"strings"

	"github.com/cockroachdb/errors"

	"popolo/internal/approxdate"
)

// Record is one raw popolo object as decoded from JSON.
type Record = map[string]any

type FieldKind int

const (
	// Plain fields read and write a value stored directly under Key.
	Plain FieldKind = iota
	// Date fields hold partial ISO dates and read as approxdate.ApproxDate.
	Date
	// Related fields hold a foreign key under Key and resolve it against a
	// sibling collection.
	Related
	// Tagged fields read values out of a typed sub-document list such as
	// identifiers. Key is the tag (scheme, note or type) to match.
	Tagged
)

func (k FieldKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Date:
		return "date"
	case Related:
		return "related"
	case Tagged:
		return "tagged"
	}
	return "unknown"
}

// Tag describes a list of {TypeKey: tag, ValueKey: value} sub-documents.
type Tag struct {
	List     string
	TypeKey  string
	ValueKey string
}

var (
	Identifiers    = Tag{List: "identifiers", TypeKey: "scheme", ValueKey: "identifier"}
	Links          = Tag{List: "links", TypeKey: "note", ValueKey: "url"}
	ContactDetails = Tag{List: "contact_details", TypeKey: "type", ValueKey: "value"}
)

type Field struct {
	Property string
	Kind     FieldKind
	// Key defaults to Property, or Property+"_id" for Related fields.
	Key string
	// Default is returned when a Plain or Date field is absent.
	Default any
	// Null returns nil rather than Default when the field is absent.
	Null bool
	// List marks a Plain field holding a list of sub-records.
	List bool
	// Collection defaults to Property+"s".
	Collection string
	Tag        Tag
	// All returns every tagged value instead of requiring a single match.
	All bool
}

// Schema is the ordered field table for one entity kind.
type Schema struct {
	kind   string
	fields []Field
	index  map[string]int
}

var collectionNames = map[string]bool{
	"persons":       true,
	"organizations": true,
	"memberships":   true,
	"areas":         true,
	"posts":         true,
	"events":        true,
}

func NewSchema(kind string, fields ...Field) (*Schema, error) {
	if strings.TrimSpace(kind) == "" {
		return nil, errors.New("schema kind is required")
	}
	s := &Schema{kind: kind, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		if strings.TrimSpace(f.Property) == "" {
			return nil, errors.Newf("%s field %d property is required", kind, i)
		}
		if _, exists := s.index[f.Property]; exists {
			return nil, errors.Newf("%s: duplicate property %s", kind, f.Property)
		}
		switch f.Kind {
		case Plain:
			if f.Key == "" {
				f.Key = f.Property
			}
		case Date:
			if f.Key == "" {
				f.Key = f.Property
			}
			if f.Default != nil {
				if _, ok := f.Default.(approxdate.ApproxDate); !ok {
					return nil, errors.Newf("%s.%s: date default must be an ApproxDate", kind, f.Property)
				}
			}
		case Related:
			if f.Key == "" {
				f.Key = f.Property + "_id"
			}
			if f.Collection == "" {
				f.Collection = f.Property + "s"
			}
			if !collectionNames[f.Collection] {
				return nil, errors.Newf("%s.%s: unknown collection %s", kind, f.Property, f.Collection)
			}
		case Tagged:
			if f.Key == "" {
				f.Key = f.Property
			}
			if f.Tag.List == "" || f.Tag.TypeKey == "" || f.Tag.ValueKey == "" {
				return nil, errors.Newf("%s.%s: tagged field needs a sub-document list", kind, f.Property)
			}
		default:
			return nil, errors.Newf("%s.%s: unknown field kind %d", kind, f.Property, f.Kind)
		}
		s.index[f.Property] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s, nil
}

func mustSchema(kind string, fields ...Field) *Schema {
	s, err := NewSchema(kind, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Kind() string { return s.kind }

func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

func (s *Schema) Field(property string) (Field, bool) {
	i, ok := s.index[property]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func plainField(property string) Field {
	return Field{Property: property, Kind: Plain}
}

func listField(property string) Field {
	return Field{Property: property, Kind: Plain, List: true}
}

func dateField(property string, def approxdate.ApproxDate) Field {
	return Field{Property: property, Kind: Date, Default: def}
}

func relatedField(property string) Field {
	return Field{Property: property, Kind: Related}
}

func relatedFieldIn(property, collection string) Field {
	return Field{Property: property, Kind: Related, Collection: collection}
}

func identifierField(property string) Field {
	return Field{Property: property, Kind: Tagged, Tag: Identifiers}
}

func contactField(property string) Field {
	return Field{Property: property, Kind: Tagged, Tag: ContactDetails}
}

func linkField(property string) Field {
	return Field{Property: property, Kind: Tagged, Tag: Links}
}

func allValues(f Field, key string) Field {
	f.Key = key
	f.All = true
	return f
}
