package popolo

import (
	"time"

	"popolo/internal/approxdate"
)

var eventSchema = mustSchema(KindEvent,
	plainField("id"),
	plainField("name"),
	plainField("classification"),
	dateField("start_date", approxdate.Past),
	dateField("end_date", approxdate.Future),
	plainField("organization_id"),
	relatedField("organization"),
	listField("identifiers"),
)

type Event struct {
	record
}

func NewEvent(data Record) *Event {
	return &Event{record: newRecord(eventSchema, data)}
}

func (e *Event) Name() string           { return e.str("name") }
func (e *Event) Classification() string { return e.str("classification") }
func (e *Event) OrganizationID() string { return e.str("organization_id") }

func (e *Event) StartDate() (approxdate.ApproxDate, error) { return e.date("start_date") }
func (e *Event) EndDate() (approxdate.ApproxDate, error)   { return e.date("end_date") }

func (e *Event) Identifiers() []Record { return e.records("identifiers") }

func (e *Event) Wikidata() (string, error) { return e.IdentifierValue("wikidata") }

func (e *Event) Organization() (*Organization, error) {
	related, err := e.related("organization")
	if related == nil || err != nil {
		return nil, err
	}
	return related.(*Organization), nil
}

func (e *Event) CurrentAt(when time.Time) (bool, error) { return e.currentAt(when) }
func (e *Event) Current() (bool, error)                 { return e.currentAt(now()) }

// Memberships held during this event, for legislative periods.
func (e *Event) Memberships() []*Membership {
	return e.filterMemberships("legislative_period_id")
}
