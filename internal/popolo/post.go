package popolo

var postSchema = mustSchema(KindPost,
	plainField("id"),
	plainField("label"),
	plainField("organization_id"),
	relatedField("organization"),
)

type Post struct {
	record
}

func NewPost(data Record) *Post {
	return &Post{record: newRecord(postSchema, data)}
}

func (p *Post) Label() string          { return p.str("label") }
func (p *Post) OrganizationID() string { return p.str("organization_id") }

func (p *Post) Organization() (*Organization, error) {
	e, err := p.related("organization")
	if e == nil || err != nil {
		return nil, err
	}
	return e.(*Organization), nil
}

func (p *Post) Memberships() []*Membership {
	return p.filterMemberships("post_id")
}
