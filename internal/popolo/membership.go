package popolo

import (
	"encoding/json"
	"time"

	"popolo/internal/approxdate"
)

var membershipSchema = mustSchema(KindMembership,
	plainField("id"),
	plainField("role"),
	plainField("person_id"),
	plainField("organization_id"),
	plainField("area_id"),
	plainField("post_id"),
	plainField("legislative_period_id"),
	plainField("on_behalf_of_id"),
	relatedField("person"),
	relatedField("organization"),
	relatedField("area"),
	relatedField("post"),
	relatedFieldIn("legislative_period", "events"),
	relatedFieldIn("on_behalf_of", "organizations"),
	dateField("start_date", approxdate.Past),
	dateField("end_date", approxdate.Future),
)

// Membership identity is the whole record, since memberships rarely carry a
// stable id.
type Membership struct {
	record
}

func NewMembership(data Record) *Membership {
	return &Membership{record: newRecord(membershipSchema, data)}
}

// Key is the record encoded as JSON with sorted keys.
func (m *Membership) Key() string {
	b, err := json.Marshal(m.data)
	if err != nil {
		return ""
	}
	return string(b)
}

func (m *Membership) Role() string                { return m.str("role") }
func (m *Membership) PersonID() string            { return m.str("person_id") }
func (m *Membership) OrganizationID() string      { return m.str("organization_id") }
func (m *Membership) AreaID() string              { return m.str("area_id") }
func (m *Membership) PostID() string              { return m.str("post_id") }
func (m *Membership) LegislativePeriodID() string { return m.str("legislative_period_id") }
func (m *Membership) OnBehalfOfID() string        { return m.str("on_behalf_of_id") }

func (m *Membership) StartDate() (approxdate.ApproxDate, error) { return m.date("start_date") }
func (m *Membership) EndDate() (approxdate.ApproxDate, error)   { return m.date("end_date") }

func (m *Membership) Person() (*Person, error) {
	e, err := m.related("person")
	if e == nil || err != nil {
		return nil, err
	}
	return e.(*Person), nil
}

func (m *Membership) Organization() (*Organization, error) {
	return m.organizationVia("organization")
}

func (m *Membership) OnBehalfOf() (*Organization, error) {
	return m.organizationVia("on_behalf_of")
}

func (m *Membership) organizationVia(property string) (*Organization, error) {
	e, err := m.related(property)
	if e == nil || err != nil {
		return nil, err
	}
	return e.(*Organization), nil
}

func (m *Membership) Area() (*Area, error) {
	e, err := m.related("area")
	if e == nil || err != nil {
		return nil, err
	}
	return e.(*Area), nil
}

func (m *Membership) Post() (*Post, error) {
	e, err := m.related("post")
	if e == nil || err != nil {
		return nil, err
	}
	return e.(*Post), nil
}

func (m *Membership) LegislativePeriod() (*Event, error) {
	e, err := m.related("legislative_period")
	if e == nil || err != nil {
		return nil, err
	}
	return e.(*Event), nil
}

func (m *Membership) SetPerson(p *Person) error                  { return m.Set("person", p) }
func (m *Membership) SetOrganization(o *Organization) error      { return m.Set("organization", o) }
func (m *Membership) SetLegislativePeriod(e *Event) error        { return m.Set("legislative_period", e) }
func (m *Membership) SetStartDate(d approxdate.ApproxDate) error { return m.Set("start_date", d) }
func (m *Membership) SetEndDate(d approxdate.ApproxDate) error   { return m.Set("end_date", d) }

// EffectiveStartDate falls back to the legislative period's start when the
// membership has no start date of its own.
func (m *Membership) EffectiveStartDate() (approxdate.ApproxDate, error) {
	start, err := m.StartDate()
	if err != nil || !start.IsPast() {
		return start, err
	}
	term, err := m.LegislativePeriod()
	if err != nil {
		return approxdate.ApproxDate{}, err
	}
	if term == nil {
		return start, nil
	}
	return term.StartDate()
}

// EffectiveEndDate falls back to the legislative period's end when the
// membership has no end date of its own.
func (m *Membership) EffectiveEndDate() (approxdate.ApproxDate, error) {
	end, err := m.EndDate()
	if err != nil || !end.IsFuture() {
		return end, err
	}
	term, err := m.LegislativePeriod()
	if err != nil {
		return approxdate.ApproxDate{}, err
	}
	if term == nil {
		return end, nil
	}
	return term.EndDate()
}

func (m *Membership) CurrentAt(when time.Time) (bool, error) { return m.currentAt(when) }
func (m *Membership) Current() (bool, error)                 { return m.currentAt(now()) }
