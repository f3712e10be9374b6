package popolo

import (
	"popolo/internal/approxdate"
)

var organizationSchema = mustSchema(KindOrganization,
	plainField("id"),
	plainField("name"),
	identifierField("wikidata"),
	plainField("classification"),
	plainField("image"),
	dateField("founding_date", approxdate.Past),
	dateField("dissolution_date", approxdate.Future),
	plainField("seats"),
	listField("other_names"),
	listField("identifiers"),
	listField("links"),
)

type Organization struct {
	record
}

func NewOrganization(data Record) *Organization {
	return &Organization{record: newRecord(organizationSchema, data)}
}

func (o *Organization) Name() string           { return o.str("name") }
func (o *Organization) Classification() string { return o.str("classification") }
func (o *Organization) Image() string          { return o.str("image") }

// Seats returns false when the field is absent or not a number.
func (o *Organization) Seats() (int, bool) {
	n, ok := number(o.data["seats"])
	return int(n), ok
}

func (o *Organization) Wikidata() (string, error) { return o.IdentifierValue("wikidata") }

func (o *Organization) FoundingDate() (approxdate.ApproxDate, error) {
	return o.date("founding_date")
}

func (o *Organization) DissolutionDate() (approxdate.ApproxDate, error) {
	return o.date("dissolution_date")
}

func (o *Organization) OtherNames() []Record  { return o.records("other_names") }
func (o *Organization) Identifiers() []Record { return o.records("identifiers") }
func (o *Organization) Links() []Record       { return o.records("links") }

func (o *Organization) Memberships() []*Membership {
	return o.filterMemberships("organization_id")
}

// Posts are the root's posts whose organization_id is this organization.
func (o *Organization) Posts() []*Post {
	if o.root == nil || o.ID() == "" {
		return nil
	}
	return o.root.Posts.Filter(func(p *Post) bool {
		return p.OrganizationID() == o.ID()
	})
}
