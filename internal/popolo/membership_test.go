package popolo

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popolo/internal/approxdate"
)

const starfleet = `{
	"persons": [{"id": "SP-937-215", "name": "Jean-Luc Picard"}],
	"organizations": [{"id": "starfleet", "name": "Starfleet"}],
	"memberships": [{"person_id": "SP-937-215", "organization_id": "starfleet", "start_date": "2327-12-01"}]
}`

func TestMembershipDates(t *testing.T) {
	p := fromJSON(t, []byte(starfleet))
	require.Equal(t, 1, p.Memberships.Len())
	m := p.Memberships.At(0)

	start, err := m.StartDate()
	require.NoError(t, err)
	assert.True(t, start.EqualDate(day(2327, 12, 1)))

	end, err := m.EndDate()
	require.NoError(t, err)
	assert.True(t, end.IsFuture())
	assert.True(t, end.Earliest().After(day(2500, 1, 1)))
}

func TestMembershipRelations(t *testing.T) {
	p := fromJSON(t, []byte(starfleet))
	m := p.Memberships.At(0)

	person, err := m.Person()
	require.NoError(t, err)
	assert.Equal(t, "Jean-Luc Picard", person.Name())

	org, err := m.Organization()
	require.NoError(t, err)
	assert.Equal(t, "Starfleet", org.Name())

	area, err := m.Area()
	require.NoError(t, err)
	assert.Nil(t, area)

	term, err := m.LegislativePeriod()
	require.NoError(t, err)
	assert.Nil(t, term)
}

func TestMembershipDanglingRelation(t *testing.T) {
	p := loadFixture(t, "estonia.json")
	m := p.Memberships.At(2)

	_, err := m.Area()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRelation))
	assert.True(t, errors.Is(err, ErrNotFound))

	var relErr *RelationError
	require.True(t, errors.As(err, &relErr))
	assert.Equal(t, "area", relErr.Property)
	assert.Equal(t, "area/harju-_ja_raplamaa", relErr.ID)
}

func TestMembershipDetached(t *testing.T) {
	m := NewMembership(Record{"person_id": "x"})
	_, err := m.Person()
	assert.True(t, errors.Is(err, ErrDetached))
}

func TestMembershipSetRelations(t *testing.T) {
	p := fromJSON(t, []byte(starfleet))
	borg := NewOrganization(Record{"id": "borg", "name": "Borg Collective"})
	require.NoError(t, p.Add(borg))

	m := p.Memberships.At(0)
	require.NoError(t, m.SetOrganization(borg))
	assert.Equal(t, "borg", m.OrganizationID())

	org, err := m.Organization()
	require.NoError(t, err)
	assert.Equal(t, "Borg Collective", org.Name())

	require.NoError(t, m.SetStartDate(approxdate.MustParse("2366")))
	assert.Equal(t, "2366", m.Data()["start_date"])
}

func TestMembershipSetDateKeepsBothBounds(t *testing.T) {
	m := NewMembership(Record{"person_id": "x", "start_date": "1999"})

	span, err := approxdate.New(approxdate.Day(2000, time.January, 5), approxdate.Day(2000, time.March, 10))
	require.NoError(t, err)
	err = m.SetStartDate(span)
	assert.True(t, errors.Is(err, approxdate.ErrUnrepresentable), "%v", err)
	assert.Equal(t, "1999", m.Data()["start_date"])

	month, err := approxdate.New(approxdate.Day(2000, time.February, 1), approxdate.Day(2000, time.February, 29))
	require.NoError(t, err)
	require.NoError(t, m.SetStartDate(month))
	assert.Equal(t, "2000-02", m.Data()["start_date"])

	start, err := m.StartDate()
	require.NoError(t, err)
	assert.True(t, start.Equal(month))
}

func TestMembershipEffectiveDates(t *testing.T) {
	p := loadFixture(t, "estonia.json")

	t.Run("own start date", func(t *testing.T) {
		start, err := p.Memberships.At(0).EffectiveStartDate()
		require.NoError(t, err)
		assert.Equal(t, "2015-04-09", start.String())
	})

	t.Run("falls back to term", func(t *testing.T) {
		m := p.Memberships.At(1)
		start, err := m.EffectiveStartDate()
		require.NoError(t, err)
		assert.Equal(t, "2011-03-27", start.String())

		end, err := m.EffectiveEndDate()
		require.NoError(t, err)
		assert.Equal(t, "2015-03-23", end.String())
	})

	t.Run("open term stays open", func(t *testing.T) {
		end, err := p.Memberships.At(0).EffectiveEndDate()
		require.NoError(t, err)
		assert.True(t, end.IsFuture())
	})

	t.Run("no term", func(t *testing.T) {
		m := NewMembership(Record{"person_id": "x"})
		require.NoError(t, New().Add(m))
		start, err := m.EffectiveStartDate()
		require.NoError(t, err)
		assert.True(t, start.IsPast())
	})
}

func TestMembershipCurrentAt(t *testing.T) {
	open := NewMembership(Record{"person_id": "x"})
	for _, when := range []int{1, 1066, 2024, 9999} {
		current, err := open.CurrentAt(day(when, 6, 1))
		require.NoError(t, err)
		assert.True(t, current, "year %d", when)
	}

	bounded := NewMembership(Record{"start_date": "2000", "end_date": "2005"})
	current, err := bounded.CurrentAt(day(2000, 7, 1))
	require.NoError(t, err)
	assert.True(t, current)

	current, err = bounded.CurrentAt(day(1980, 1, 1))
	require.NoError(t, err)
	assert.False(t, current)

	freezeNow(t, day(2003, 3, 3))
	current, err = bounded.Current()
	require.NoError(t, err)
	assert.True(t, current)

	_, err = NewMembership(Record{"start_date": "soon"}).CurrentAt(day(2000, 1, 1))
	assert.Error(t, err)
}

func TestMembershipIdentityIsStructural(t *testing.T) {
	a := NewMembership(Record{"person_id": "1", "organization_id": "o", "role": "member"})
	b := NewMembership(Record{"role": "member", "organization_id": "o", "person_id": "1"})
	c := NewMembership(Record{"person_id": "1", "organization_id": "o", "role": "chair"})

	assert.True(t, Same(a, b))
	assert.False(t, Same(a, c))
	assert.Equal(t, `{"organization_id":"o","person_id":"1","role":"member"}`, a.Key())

	p := New()
	require.NoError(t, p.Add(a, c))
	found, ok := p.Memberships.Lookup(b.Key())
	require.True(t, ok)
	assert.Same(t, a, found)
}
