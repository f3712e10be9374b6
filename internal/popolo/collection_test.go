package popolo

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyCollection(t *testing.T) {
	p := New()
	assert.Equal(t, 0, p.Persons.Len())
	_, ok := p.Persons.First()
	assert.False(t, ok)
	assert.Empty(t, p.Persons.Filter(func(*Person) bool { return true }))
}

func TestCollectionFirst(t *testing.T) {
	p := loadFixture(t, "two_people.json")
	require.Equal(t, 2, p.Persons.Len())

	first, ok := p.Persons.First()
	require.True(t, ok)
	assert.Equal(t, "Norma Jennings", first.Name())
	assert.Equal(t, "1", first.ID())
	assert.Equal(t, "Harry Truman", p.Persons.At(1).Name())
}

func TestCollectionFilter(t *testing.T) {
	p := loadFixture(t, "two_people.json")

	none := p.Persons.Filter(func(person *Person) bool { return person.Name() == "Dale Cooper" })
	assert.Empty(t, none)

	one := p.Persons.Filter(func(person *Person) bool { return person.Name() == "Harry Truman" })
	require.Len(t, one, 1)
	assert.Equal(t, "2", one[0].ID())

	both := p.Persons.Select(Where("national_identity", "American"))
	assert.Len(t, both, 2)
}

func TestCollectionGet(t *testing.T) {
	p := loadFixture(t, "two_people.json")

	t.Run("one match", func(t *testing.T) {
		person, err := p.Persons.Get(Where("name", "Harry Truman"))
		require.NoError(t, err)
		assert.Equal(t, "2", person.ID())
	})

	t.Run("no match", func(t *testing.T) {
		_, err := p.Persons.Get(Where("name", "Dale Cooper"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))

		var notFound *NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, KindPerson, notFound.Kind)
		assert.Equal(t, `name="Dale Cooper"`, notFound.Query)
	})

	t.Run("multiple matches", func(t *testing.T) {
		_, err := p.Persons.Get(Where("national_identity", "American"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMultipleFound))

		var multiple *MultipleFoundError
		require.True(t, errors.As(err, &multiple))
		assert.Equal(t, 2, multiple.Count)
		assert.Contains(t, err.Error(), "person")
		assert.Contains(t, err.Error(), "national_identity")
		assert.Contains(t, err.Error(), "(2)")
	})

	t.Run("combined conditions", func(t *testing.T) {
		person, err := p.Persons.Get(Where("national_identity", "American").And("id", "1"))
		require.NoError(t, err)
		assert.Equal(t, "Norma Jennings", person.Name())
	})

	t.Run("predicate", func(t *testing.T) {
		person, err := p.Persons.GetFunc("short id", func(person *Person) bool { return person.ID() == "1" })
		require.NoError(t, err)
		assert.Equal(t, "Norma Jennings", person.Name())

		_, err = p.Persons.GetFunc("no id", func(person *Person) bool { return person.ID() == "" })
		var notFound *NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "no id", notFound.Query)
	})

	t.Run("unknown property never matches", func(t *testing.T) {
		_, err := p.Persons.Get(Where("shoe_size", "42"))
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestWhereDates(t *testing.T) {
	p := fromJSON(t, []byte(`{"memberships": [
		{"person_id": "a", "start_date": "2015"},
		{"person_id": "b", "start_date": "2015-04"},
		{"person_id": "c", "start_date": "2015-04-09"}
	]}`))

	m, err := p.Memberships.Get(Where("start_date", "2015-04"))
	require.NoError(t, err)
	assert.Equal(t, "b", m.PersonID())

	m, err = p.Memberships.Get(Where("start_date", day(2015, 4, 9)))
	require.NoError(t, err)
	assert.Equal(t, "c", m.PersonID())

	m, err = p.Memberships.Get(Where("end_date", "9999-12-31").And("person_id", "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", m.PersonID())
}

func TestWhereRelated(t *testing.T) {
	p := loadFixture(t, "estonia.json")
	irl, ok := p.Organizations.Lookup("IRL")
	require.True(t, ok)

	byEntity := p.Memberships.Select(Where("on_behalf_of", irl))
	byID := p.Memberships.Select(Where("on_behalf_of", "IRL"))
	assert.Len(t, byEntity, 2)
	assert.Len(t, byID, 2)
}

func TestWhereNumbers(t *testing.T) {
	p := loadFixture(t, "estonia.json")
	org, err := p.Organizations.Get(Where("seats", 101))
	require.NoError(t, err)
	assert.Equal(t, "Riigikogu", org.Name())
}

func TestCollectionAppend(t *testing.T) {
	p := loadFixture(t, "two_people.json")
	dale := NewPerson(Record{"id": "3", "name": "Dale Cooper"})
	p.Persons.Append(dale)

	assert.Equal(t, 3, p.Persons.Len())
	assert.Same(t, p, dale.Root())
	found, ok := p.Persons.Lookup("3")
	require.True(t, ok)
	assert.Same(t, dale, found)

	got, err := p.Persons.Get(Where("name", "Dale Cooper"))
	require.NoError(t, err)
	assert.Same(t, dale, got)
}

func TestCollectionAppendReplacesIndexEntry(t *testing.T) {
	p := loadFixture(t, "two_people.json")
	impostor := NewPerson(Record{"id": "2", "name": "Not Harry"})
	p.Persons.Append(impostor)

	assert.Equal(t, 3, p.Persons.Len())
	found, ok := p.Persons.Lookup("2")
	require.True(t, ok)
	assert.Equal(t, "Not Harry", found.Name())
}

func TestLookupFollowsKeyChanges(t *testing.T) {
	p := New()
	m := NewMembership(Record{"person_id": "1", "organization_id": "o"})
	p.Memberships.Append(m)
	before := m.Key()

	require.NoError(t, m.Set("role", "chair"))
	found, ok := p.Memberships.Lookup(m.Key())
	require.True(t, ok)
	assert.Same(t, m, found)
	_, ok = p.Memberships.Lookup(before)
	assert.False(t, ok)

	person := NewPerson(Record{"id": "old"})
	p.Persons.Append(person)
	require.NoError(t, person.Set("id", "new"))
	found2, ok := p.Persons.Lookup("new")
	require.True(t, ok)
	assert.Same(t, person, found2)
	_, ok = p.Persons.Lookup("old")
	assert.False(t, ok)
}

func TestAppendIsVisibleToRelations(t *testing.T) {
	p := fromJSON(t, []byte(`{"memberships": [{"person_id": "late", "organization_id": "o"}]}`))
	m := p.Memberships.At(0)

	_, err := m.Person()
	require.Error(t, err)

	p.Persons.Append(NewPerson(Record{"id": "late", "name": "Late Arrival"}))
	person, err := m.Person()
	require.NoError(t, err)
	assert.Equal(t, "Late Arrival", person.Name())
}

func TestRawData(t *testing.T) {
	p := loadFixture(t, "two_people.json")
	raw := p.Persons.RawData()
	require.Len(t, raw, 2)
	assert.Equal(t, "Norma Jennings", raw[0]["name"])
}

func TestQueryString(t *testing.T) {
	assert.Equal(t, `name="Harry Truman", id="2"`, Where("name", "Harry Truman").And("id", "2").String())
	assert.Equal(t, "custom", Match("custom", func(Entity) bool { return true }).String())
	assert.Equal(t, "seats=101", Where("seats", 101).String())
}
