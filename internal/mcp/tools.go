package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"popolo/internal/approxdate"
	"popolo/internal/logger"
	"popolo/internal/popolo"
)

type GetPersonInput struct {
	ID   string `json:"id,omitempty" jsonschema:"person id"`
	Name string `json:"name,omitempty" jsonschema:"exact person name, used when id is empty"`
	At   string `json:"at,omitempty" jsonschema:"YYYY-MM-DD date for the historic name"`
}

type ListEntitiesInput struct {
	Kind     string `json:"kind" jsonschema:"collection or kind, e.g. persons or organization"`
	Property string `json:"property,omitempty" jsonschema:"property to filter on"`
	Value    string `json:"value,omitempty" jsonschema:"value the property must equal"`
}

type PersonMembershipsInput struct {
	PersonID string `json:"person_id" jsonschema:"person id"`
	At       string `json:"at,omitempty" jsonschema:"only memberships current on this YYYY-MM-DD date"`
}

type LatestTermInput struct{}

type CurrentMembershipsInput struct {
	At             string `json:"at,omitempty" jsonschema:"YYYY-MM-DD date, defaults to today"`
	OrganizationID string `json:"organization_id,omitempty" jsonschema:"restrict to one organization"`
}

type GetSchemaInput struct{}

type PersonOutput struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	NameAt string         `json:"name_at,omitempty"`
	Data   map[string]any `json:"data"`
}

type EntityOutput struct {
	Kind string         `json:"kind"`
	ID   string         `json:"id,omitempty"`
	Data map[string]any `json:"data"`
}

type ListEntitiesOutput struct {
	Entities []EntityOutput `json:"entities"`
}

type MembershipOutput struct {
	PersonID            string `json:"person_id"`
	PersonName          string `json:"person_name,omitempty"`
	OrganizationID      string `json:"organization_id,omitempty"`
	OrganizationName    string `json:"organization_name,omitempty"`
	OnBehalfOfID        string `json:"on_behalf_of_id,omitempty"`
	Role                string `json:"role,omitempty"`
	LegislativePeriodID string `json:"legislative_period_id,omitempty"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
}

type MembershipsOutput struct {
	Memberships []MembershipOutput `json:"memberships"`
}

type TermOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type SchemaOutput struct {
	Kinds []KindOutput `json:"kinds"`
}

type KindOutput struct {
	Kind       string        `json:"kind"`
	Collection string        `json:"collection"`
	Fields     []FieldOutput `json:"fields"`
}

type FieldOutput struct {
	Property   string `json:"property"`
	Type       string `json:"type"`
	Key        string `json:"key"`
	Collection string `json:"collection,omitempty"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_person",
		Description: "Retrieve one person by id or exact name",
	}, s.handleGetPerson)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_entities",
		Description: "List entities of a kind with an optional property filter",
	}, s.handleListEntities)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "person_memberships",
		Description: "List a person's memberships, optionally only those current on a date",
	}, s.handlePersonMemberships)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "latest_term",
		Description: "Return the most recent legislative period",
	}, s.handleLatestTerm)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "current_memberships",
		Description: "List memberships current on a date",
	}, s.handleCurrentMemberships)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_schema",
		Description: "Return the fields known for each entity kind",
	}, s.handleGetSchema)
}

func (s *Server) handleGetPerson(ctx context.Context, req *sdk.CallToolRequest, input GetPersonInput) (*sdk.CallToolResult, PersonOutput, error) {
	var q popolo.Query
	switch {
	case input.ID != "":
		q = popolo.Where("id", input.ID)
	case input.Name != "":
		q = popolo.Where("name", input.Name)
	default:
		return nil, PersonOutput{}, errors.New("id or name is required")
	}

	p, err := s.dataset(ctx)
	if err != nil {
		return nil, PersonOutput{}, err
	}
	person, err := p.Persons.Get(q)
	if err != nil {
		return nil, PersonOutput{}, err
	}

	out := PersonOutput{ID: person.ID(), Name: person.Name(), Data: copyRecord(person.Data())}
	if input.At != "" {
		day, err := parseDay(input.At)
		if err != nil {
			return nil, PersonOutput{}, err
		}
		out.NameAt, err = person.NameAt(day)
		if err != nil {
			return nil, PersonOutput{}, err
		}
	}
	return nil, out, nil
}

func (s *Server) handleListEntities(ctx context.Context, req *sdk.CallToolRequest, input ListEntitiesInput) (*sdk.CallToolResult, ListEntitiesOutput, error) {
	collection, ok := collectionName(input.Kind)
	if !ok {
		return nil, ListEntitiesOutput{}, errors.Newf("unknown kind: %q", input.Kind)
	}
	if input.Value != "" && input.Property == "" {
		return nil, ListEntitiesOutput{}, errors.New("property is required with value")
	}

	p, err := s.dataset(ctx)
	if err != nil {
		return nil, ListEntitiesOutput{}, err
	}

	output := make([]EntityOutput, 0)
	for _, e := range p.Entities(collection) {
		if input.Property != "" && !popolo.Where(input.Property, input.Value).Matches(e) {
			continue
		}
		output = append(output, EntityOutput{Kind: e.Kind(), ID: e.ID(), Data: copyRecord(e.Data())})
	}
	return nil, ListEntitiesOutput{Entities: output}, nil
}

func (s *Server) handlePersonMemberships(ctx context.Context, req *sdk.CallToolRequest, input PersonMembershipsInput) (*sdk.CallToolResult, MembershipsOutput, error) {
	if input.PersonID == "" {
		return nil, MembershipsOutput{}, errors.New("person_id is required")
	}

	p, err := s.dataset(ctx)
	if err != nil {
		return nil, MembershipsOutput{}, err
	}
	person, err := p.Persons.Get(popolo.Where("id", input.PersonID))
	if err != nil {
		return nil, MembershipsOutput{}, err
	}

	memberships := person.Memberships()
	if input.At != "" {
		day, err := parseDay(input.At)
		if err != nil {
			return nil, MembershipsOutput{}, err
		}
		memberships, err = currentAt(memberships, day)
		if err != nil {
			return nil, MembershipsOutput{}, err
		}
	}
	return membershipsOutput(memberships)
}

func (s *Server) handleLatestTerm(ctx context.Context, req *sdk.CallToolRequest, input LatestTermInput) (*sdk.CallToolResult, TermOutput, error) {
	p, err := s.dataset(ctx)
	if err != nil {
		return nil, TermOutput{}, err
	}
	term, err := p.LatestTerm()
	if err != nil {
		return nil, TermOutput{}, err
	}
	start, err := term.StartDate()
	if err != nil {
		return nil, TermOutput{}, err
	}
	end, err := term.EndDate()
	if err != nil {
		return nil, TermOutput{}, err
	}
	return nil, TermOutput{ID: term.ID(), Name: term.Name(), StartDate: start.String(), EndDate: end.String()}, nil
}

func (s *Server) handleCurrentMemberships(ctx context.Context, req *sdk.CallToolRequest, input CurrentMembershipsInput) (*sdk.CallToolResult, MembershipsOutput, error) {
	day := time.Now().UTC()
	if input.At != "" {
		var err error
		day, err = parseDay(input.At)
		if err != nil {
			return nil, MembershipsOutput{}, err
		}
	}

	p, err := s.dataset(ctx)
	if err != nil {
		return nil, MembershipsOutput{}, err
	}

	memberships := p.Memberships.All()
	if input.OrganizationID != "" {
		memberships = p.Memberships.Filter(func(m *popolo.Membership) bool {
			return m.OrganizationID() == input.OrganizationID
		})
	}
	current, err := currentAt(memberships, day)
	if err != nil {
		return nil, MembershipsOutput{}, err
	}
	logger.Logger.Debugw("current memberships",
		logger.FieldTool, "current_memberships",
		logger.FieldCount, len(current),
	)
	return membershipsOutput(current)
}

func (s *Server) handleGetSchema(ctx context.Context, req *sdk.CallToolRequest, input GetSchemaInput) (*sdk.CallToolResult, SchemaOutput, error) {
	out := SchemaOutput{Kinds: make([]KindOutput, 0, len(popolo.CollectionKeys))}
	samples := map[string]popolo.Entity{
		popolo.KeyPersons:       popolo.NewPerson(nil),
		popolo.KeyOrganizations: popolo.NewOrganization(nil),
		popolo.KeyMemberships:   popolo.NewMembership(nil),
		popolo.KeyAreas:         popolo.NewArea(nil),
		popolo.KeyPosts:         popolo.NewPost(nil),
		popolo.KeyEvents:        popolo.NewEvent(nil),
	}
	for _, collection := range popolo.CollectionKeys {
		schema := samples[collection].Schema()
		kindOut := KindOutput{Kind: schema.Kind(), Collection: collection}
		for _, f := range schema.Fields() {
			kindOut.Fields = append(kindOut.Fields, FieldOutput{
				Property:   f.Property,
				Type:       f.Kind.String(),
				Key:        f.Key,
				Collection: f.Collection,
			})
		}
		out.Kinds = append(out.Kinds, kindOut)
	}
	return nil, out, nil
}

func currentAt(memberships []*popolo.Membership, day time.Time) ([]*popolo.Membership, error) {
	var current []*popolo.Membership
	for _, m := range memberships {
		ok, err := m.CurrentAt(day)
		if err != nil {
			return nil, err
		}
		if ok {
			current = append(current, m)
		}
	}
	return current, nil
}

func membershipsOutput(memberships []*popolo.Membership) (*sdk.CallToolResult, MembershipsOutput, error) {
	output := make([]MembershipOutput, 0, len(memberships))
	for _, m := range memberships {
		out, err := membershipOutput(m)
		if err != nil {
			return nil, MembershipsOutput{}, err
		}
		output = append(output, out)
	}
	return nil, MembershipsOutput{Memberships: output}, nil
}

// membershipOutput resolves names where the targets exist and reports
// effective dates.
func membershipOutput(m *popolo.Membership) (MembershipOutput, error) {
	out := MembershipOutput{
		PersonID:            m.PersonID(),
		OrganizationID:      m.OrganizationID(),
		OnBehalfOfID:        m.OnBehalfOfID(),
		Role:                m.Role(),
		LegislativePeriodID: m.LegislativePeriodID(),
	}
	if person, err := m.Person(); err == nil && person != nil {
		out.PersonName = person.Name()
	}
	if org, err := m.Organization(); err == nil && org != nil {
		out.OrganizationName = org.Name()
	}

	start, err := m.EffectiveStartDate()
	if err != nil {
		return MembershipOutput{}, err
	}
	end, err := m.EffectiveEndDate()
	if err != nil {
		return MembershipOutput{}, err
	}
	out.StartDate = start.String()
	out.EndDate = end.String()
	return out, nil
}

func parseDay(s string) (time.Time, error) {
	d, err := approxdate.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	if !d.Earliest().Equal(d.Latest()) {
		return time.Time{}, errors.Newf("date %q must be a full YYYY-MM-DD date", s)
	}
	return d.Earliest(), nil
}

// collectionName accepts either a collection key or a kind name.
func collectionName(kind string) (string, bool) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, key := range popolo.CollectionKeys {
		if kind == key || kind+"s" == key {
			return key, true
		}
	}
	return "", false
}

func copyRecord(rec popolo.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
