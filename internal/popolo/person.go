package popolo

import (
	"net/url"
	"strings"
	"time"

	"popolo/internal/approxdate"
)

var personSchema = mustSchema(KindPerson,
	plainField("id"),
	plainField("email"),
	plainField("gender"),
	plainField("honorific_prefix"),
	plainField("honorific_suffix"),
	plainField("image"),
	plainField("name"),
	plainField("sort_name"),
	plainField("national_identity"),
	plainField("biography"),
	dateField("birth_date", approxdate.Past),
	dateField("death_date", approxdate.Future),
	plainField("family_name"),
	plainField("given_name"),
	plainField("summary"),
	identifierField("wikidata"),
	contactField("phone"),
	contactField("fax"),
	contactField("property"),
	linkField("facebook"),
	listField("links"),
	listField("contact_details"),
	listField("identifiers"),
	listField("images"),
	listField("other_names"),
	listField("sources"),
	allValues(contactField("phone_all"), "phone"),
	allValues(linkField("facebook_all"), "facebook"),
	allValues(contactField("fax_all"), "fax"),
)

type Person struct {
	record
}

func NewPerson(data Record) *Person {
	return &Person{record: newRecord(personSchema, data)}
}

func (p *Person) Email() string            { return p.str("email") }
func (p *Person) Gender() string           { return p.str("gender") }
func (p *Person) HonorificPrefix() string  { return p.str("honorific_prefix") }
func (p *Person) HonorificSuffix() string  { return p.str("honorific_suffix") }
func (p *Person) Image() string            { return p.str("image") }
func (p *Person) Name() string             { return p.str("name") }
func (p *Person) SortName() string         { return p.str("sort_name") }
func (p *Person) NationalIdentity() string { return p.str("national_identity") }
func (p *Person) Biography() string        { return p.str("biography") }
func (p *Person) FamilyName() string       { return p.str("family_name") }
func (p *Person) GivenName() string        { return p.str("given_name") }
func (p *Person) Summary() string          { return p.str("summary") }

func (p *Person) BirthDate() (approxdate.ApproxDate, error) { return p.date("birth_date") }
func (p *Person) DeathDate() (approxdate.ApproxDate, error) { return p.date("death_date") }

func (p *Person) Wikidata() (string, error) { return p.IdentifierValue("wikidata") }
func (p *Person) Phone() (string, error)    { return p.ContactDetailValue("phone") }
func (p *Person) Fax() (string, error)      { return p.ContactDetailValue("fax") }
func (p *Person) Property() (string, error) { return p.ContactDetailValue("property") }
func (p *Person) Facebook() (string, error) { return p.LinkValue("facebook") }

func (p *Person) PhoneAll() []string    { return p.ContactDetailValues("phone") }
func (p *Person) FaxAll() []string      { return p.ContactDetailValues("fax") }
func (p *Person) FacebookAll() []string { return p.LinkValues("facebook") }

func (p *Person) Links() []Record          { return p.records("links") }
func (p *Person) ContactDetails() []Record { return p.records("contact_details") }
func (p *Person) Identifiers() []Record    { return p.records("identifiers") }
func (p *Person) Images() []Record         { return p.records("images") }
func (p *Person) OtherNames() []Record     { return p.records("other_names") }
func (p *Person) Sources() []Record        { return p.records("sources") }

// Twitter prefers a contact detail over a link and returns the bare handle.
func (p *Person) Twitter() string {
	if values := p.ContactDetailValues("twitter"); len(values) > 0 && values[0] != "" {
		return TwitterUsername(values[0])
	}
	if values := p.LinkValues("twitter"); len(values) > 0 && values[0] != "" {
		return TwitterUsername(values[0])
	}
	return ""
}

// SetTwitter stores a twitter.com URL as a link and anything else as a
// contact detail, clearing the other location.
func (p *Person) SetTwitter(value string) {
	if strings.Contains(value, "twitter.com") {
		p.SetLinkValue("twitter", value)
		p.DeleteContactDetailValue("twitter")
		return
	}
	p.DeleteLinkValue("twitter")
	p.SetContactDetailValue("twitter", value)
}

// TwitterAll returns every distinct handle from contact details then links.
func (p *Person) TwitterAll() []string {
	values := append(p.ContactDetailValues("twitter"), p.LinkValues("twitter")...)
	seen := make(map[string]struct{}, len(values))
	var handles []string
	for _, v := range values {
		handle := TwitterUsername(v)
		if _, ok := seen[handle]; ok {
			continue
		}
		seen[handle] = struct{}{}
		handles = append(handles, handle)
	}
	return handles
}

// NameAt returns the name in use on the given day. Only other_names entries
// with an end_date count as historic.
func (p *Person) NameAt(when time.Time) (string, error) {
	var historic []Record
	for _, n := range p.OtherNames() {
		if stringOf(n["end_date"]) != "" {
			historic = append(historic, n)
		}
	}
	if len(historic) == 0 {
		return p.Name(), nil
	}

	day := when.Format("2006-01-02")
	var names []string
	for _, n := range historic {
		if nameCurrentAt(n, day) {
			names = append(names, stringOf(n["name"]))
		}
	}
	switch len(names) {
	case 0:
		return p.Name(), nil
	case 1:
		return names[0], nil
	}
	who := p.Name()
	if who == "" {
		who = p.ID()
	}
	return "", &AmbiguousNameError{Person: who, Date: day, Count: len(names)}
}

// Memberships is derived from the root's memberships on person_id.
func (p *Person) Memberships() []*Membership {
	return p.filterMemberships("person_id")
}

// nameCurrentAt compares ISO date strings, which sort like the dates they
// hold.
func nameCurrentAt(name Record, day string) bool {
	start := stringOf(name["start_date"])
	if start == "" {
		start = "0001-01-01"
	}
	end := stringOf(name["end_date"])
	if end == "" {
		end = "9999-12-31"
	}
	return day >= start && day <= end
}

// TwitterUsername reduces a handle or twitter.com URL to the bare handle.
// The scheme and a www. prefix are optional in the URL.
func TwitterUsername(usernameOrURL string) string {
	text := strings.TrimSpace(usernameOrURL)
	if strings.HasPrefix(text, "twitter.com/") || strings.HasPrefix(text, "www.twitter.com/") {
		text = "https://" + text
	}
	if u, err := url.Parse(text); err == nil && strings.TrimPrefix(u.Host, "www.") == "twitter.com" {
		path := strings.TrimPrefix(u.Path, "/")
		if i := strings.Index(path, "/"); i >= 0 {
			path = path[:i]
		}
		return path
	}
	return strings.TrimLeft(text, "@")
}
