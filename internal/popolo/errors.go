package popolo

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrMultipleFound   = errors.New("multiple found")
	ErrAmbiguousName   = errors.New("ambiguous historical name")
	ErrInvalidRelation = errors.New("invalid relation")
	ErrInvalidType     = errors.New("not a valid popolo type")
	ErrDetached        = errors.New("entity is not attached to a popolo aggregate")
	ErrUnknownProperty = errors.New("unknown property")
)

type NotFoundError struct {
	Kind  string
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found matching %s", e.Kind, e.Query)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// MultipleFoundError is returned by uniqueness-constrained lookups: collection
// Get and single-valued identifier, link or contact detail reads.
type MultipleFoundError struct {
	Kind  string
	Query string
	Count int
}

func (e *MultipleFoundError) Error() string {
	return fmt.Sprintf("multiple %s objects (%d) found matching %s", e.Kind, e.Count, e.Query)
}

func (e *MultipleFoundError) Is(target error) bool { return target == ErrMultipleFound }

type AmbiguousNameError struct {
	Person string
	Date   string
	Count  int
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("multiple names (%d) for %s found at date %s", e.Count, e.Person, e.Date)
}

func (e *AmbiguousNameError) Is(target error) bool { return target == ErrAmbiguousName }

// RelationError reports a foreign key whose target is missing. It unwraps to
// the NotFoundError from the target collection.
type RelationError struct {
	Kind     string
	Property string
	ID       string
	Err      error
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("%s.%s refers to missing id %q: %v", e.Kind, e.Property, e.ID, e.Err)
}

func (e *RelationError) Is(target error) bool { return target == ErrInvalidRelation }

func (e *RelationError) Unwrap() error { return e.Err }
