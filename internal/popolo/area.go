package popolo

var areaSchema = mustSchema(KindArea,
	plainField("id"),
	plainField("name"),
	plainField("type"),
	listField("identifiers"),
	listField("other_names"),
	identifierField("wikidata"),
)

type Area struct {
	record
}

func NewArea(data Record) *Area {
	return &Area{record: newRecord(areaSchema, data)}
}

func (a *Area) Name() string { return a.str("name") }
func (a *Area) Type() string { return a.str("type") }

func (a *Area) Identifiers() []Record { return a.records("identifiers") }
func (a *Area) OtherNames() []Record  { return a.records("other_names") }

func (a *Area) Wikidata() (string, error) { return a.IdentifierValue("wikidata") }

func (a *Area) Memberships() []*Membership {
	return a.filterMemberships("area_id")
}
