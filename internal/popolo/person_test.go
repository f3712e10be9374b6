package popolo

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"popolo/internal/approxdate"
)

func TestPersonSimpleFields(t *testing.T) {
	p := fromJSON(t, []byte(`{"persons": [{
		"id": "harry",
		"name": "Harry Truman",
		"sort_name": "Truman",
		"email": "harry@example.org",
		"image": "http://twin-peaks.example.org/harry.jpg",
		"gender": "male",
		"honorific_prefix": "Sheriff",
		"honorific_suffix": "Bookhouse Boy",
		"biography": "Harry S. Truman is the sheriff of Twin Peaks",
		"summary": "He assists Dale Cooper in the Laura Palmer case",
		"given_name": "Harry",
		"family_name": "Truman",
		"national_identity": "American"
	}]}`))
	person := p.Persons.At(0)

	assert.Equal(t, "harry", person.ID())
	assert.Equal(t, "Harry Truman", person.Name())
	assert.Equal(t, "Truman", person.SortName())
	assert.Equal(t, "harry@example.org", person.Email())
	assert.Equal(t, "http://twin-peaks.example.org/harry.jpg", person.Image())
	assert.Equal(t, "male", person.Gender())
	assert.Equal(t, "Sheriff", person.HonorificPrefix())
	assert.Equal(t, "Bookhouse Boy", person.HonorificSuffix())
	assert.Equal(t, "Harry S. Truman is the sheriff of Twin Peaks", person.Biography())
	assert.Equal(t, "He assists Dale Cooper in the Laura Palmer case", person.Summary())
	assert.Equal(t, "Harry", person.GivenName())
	assert.Equal(t, "Truman", person.FamilyName())
	assert.Equal(t, "American", person.NationalIdentity())
}

func TestPersonDates(t *testing.T) {
	t.Run("missing dates use sentinels", func(t *testing.T) {
		person := NewPerson(Record{"name": "Harry Truman"})
		birth, err := person.BirthDate()
		require.NoError(t, err)
		death, err := person.DeathDate()
		require.NoError(t, err)
		assert.True(t, birth.IsPast())
		assert.True(t, death.IsFuture())
	})

	t.Run("full dates", func(t *testing.T) {
		person := NewPerson(Record{"birth_date": "1946-01-24", "death_date": "2099-12-31"})
		birth, err := person.BirthDate()
		require.NoError(t, err)
		death, err := person.DeathDate()
		require.NoError(t, err)
		assert.True(t, birth.EqualDate(day(1946, 1, 24)))
		assert.True(t, death.EqualDate(day(2099, 12, 31)))
	})

	t.Run("malformed date", func(t *testing.T) {
		person := NewPerson(Record{"birth_date": "24/01/1946"})
		_, err := person.BirthDate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, approxdate.ErrParse))
	})

	t.Run("set keeps precision", func(t *testing.T) {
		person := NewPerson(nil)
		require.NoError(t, person.Set("birth_date", approxdate.MustParse("1946-01")))
		assert.Equal(t, "1946-01", person.Data()["birth_date"])

		require.NoError(t, person.Set("birth_date", "1946"))
		assert.Equal(t, "1946", person.Data()["birth_date"])

		require.Error(t, person.Set("birth_date", "January 1946"))
		assert.Equal(t, "1946", person.Data()["birth_date"])

		require.NoError(t, person.Set("birth_date", nil))
		_, ok := person.Data()["birth_date"]
		assert.False(t, ok)
	})
}

func TestPersonTaggedFields(t *testing.T) {
	person := NewPerson(Record{
		"identifiers": []any{
			map[string]any{"scheme": "wikidata", "identifier": "Q1343162"},
		},
		"contact_details": []any{
			map[string]any{"type": "phone", "value": "9304832"},
			map[string]any{"type": "fax", "value": "9304833"},
			map[string]any{"type": "phone", "value": "9304834"},
		},
		"links": []any{
			map[string]any{"note": "facebook", "url": "https://facebook.example.com/harry-s-truman"},
		},
	})

	wikidata, err := person.Wikidata()
	require.NoError(t, err)
	assert.Equal(t, "Q1343162", wikidata)

	fax, err := person.Fax()
	require.NoError(t, err)
	assert.Equal(t, "9304833", fax)

	facebook, err := person.Facebook()
	require.NoError(t, err)
	assert.Equal(t, "https://facebook.example.com/harry-s-truman", facebook)

	_, err = person.Phone()
	require.Error(t, err)
	var multiple *MultipleFoundError
	require.True(t, errors.As(err, &multiple))
	assert.Equal(t, 2, multiple.Count)

	assert.Equal(t, []string{"9304832", "9304834"}, person.PhoneAll())
	assert.Equal(t, []string{"9304833"}, person.FaxAll())
	assert.Equal(t, []string{"https://facebook.example.com/harry-s-truman"}, person.FacebookAll())

	property, err := person.Property()
	require.NoError(t, err)
	assert.Equal(t, "", property)

	all, err := person.Field("phone_all")
	require.NoError(t, err)
	assert.Equal(t, []string{"9304832", "9304834"}, all)
}

func TestPersonSetTaggedFields(t *testing.T) {
	person := NewPerson(Record{"name": "Harry Truman"})

	require.NoError(t, person.Set("wikidata", "Q1"))
	require.NoError(t, person.Set("wikidata", "Q2"))
	assert.Equal(t, []string{"Q2"}, person.IdentifierValues("wikidata"))

	require.NoError(t, person.Set("facebook", "https://facebook.example.com/harry"))
	assert.Len(t, person.Links(), 1)

	require.NoError(t, person.Set("facebook", nil))
	assert.Empty(t, person.Links())

	require.Error(t, person.Set("phone_all", "123"))
}

func TestPersonTwitter(t *testing.T) {
	t.Run("from link", func(t *testing.T) {
		person := NewPerson(Record{"links": []any{
			map[string]any{"note": "twitter", "url": "https://twitter.com/notarealtwitteraccountforharry"},
		}})
		assert.Equal(t, "notarealtwitteraccountforharry", person.Twitter())
	})

	t.Run("from contact detail", func(t *testing.T) {
		person := NewPerson(Record{"contact_details": []any{
			map[string]any{"type": "twitter", "value": "@notarealtwitteraccountforharry"},
		}})
		assert.Equal(t, "notarealtwitteraccountforharry", person.Twitter())
	})

	t.Run("none", func(t *testing.T) {
		assert.Equal(t, "", NewPerson(nil).Twitter())
	})

	t.Run("all without duplicates", func(t *testing.T) {
		person := NewPerson(Record{
			"contact_details": []any{
				map[string]any{"type": "twitter", "value": "@harry"},
				map[string]any{"type": "twitter", "value": "sheriff"},
			},
			"links": []any{
				map[string]any{"note": "twitter", "url": "https://twitter.com/harry"},
			},
		})
		assert.Equal(t, []string{"harry", "sheriff"}, person.TwitterAll())
	})

	t.Run("set url clears contact detail", func(t *testing.T) {
		person := NewPerson(Record{"contact_details": []any{
			map[string]any{"type": "twitter", "value": "old"},
		}})
		person.SetTwitter("https://twitter.com/harry")
		assert.Empty(t, person.ContactDetailValues("twitter"))
		assert.Equal(t, []string{"https://twitter.com/harry"}, person.LinkValues("twitter"))
		assert.Equal(t, "harry", person.Twitter())
	})

	t.Run("set url without scheme", func(t *testing.T) {
		person := NewPerson(nil)
		person.SetTwitter("twitter.com/harry")
		assert.Equal(t, []string{"twitter.com/harry"}, person.LinkValues("twitter"))
		assert.Equal(t, "harry", person.Twitter())
	})

	t.Run("set handle clears link", func(t *testing.T) {
		person := NewPerson(Record{"links": []any{
			map[string]any{"note": "twitter", "url": "https://twitter.com/old"},
		}})
		person.SetTwitter("@harry")
		assert.Empty(t, person.LinkValues("twitter"))
		assert.Equal(t, "harry", person.Twitter())
	})
}

func TestTwitterUsername(t *testing.T) {
	tests := map[string]string{
		"  everypolitbot  ":                     "everypolitbot",
		"@everypolitbot":                        "everypolitbot",
		"https://twitter.com/everypolitbot":     "everypolitbot",
		"https://twitter.com/everypolitbot/":    "everypolitbot",
		"https://twitter.com/everypolitbot/x/":  "everypolitbot",
		"twitter.com/everypolitbot":             "everypolitbot",
		"www.twitter.com/everypolitbot":         "everypolitbot",
		"https://www.twitter.com/everypolitbot": "everypolitbot",
		"http://twitter.com/everypolitbot?s=1":  "everypolitbot",
	}
	for input, want := range tests {
		assert.Equal(t, want, TwitterUsername(input), input)
	}
}

func TestPersonNameAt(t *testing.T) {
	person := NewPerson(Record{
		"name": "Bob Smith",
		"other_names": []any{
			map[string]any{"name": "Robert Jones", "start_date": "1990-01-01", "end_date": "1999-12-31"},
			map[string]any{"name": "Bobby Jones", "start_date": "1995-01-01", "end_date": "2000-12-31"},
			map[string]any{"name": "Bob the Builder"},
		},
	})

	t.Run("no matching window", func(t *testing.T) {
		name, err := person.NameAt(day(1980, 6, 1))
		require.NoError(t, err)
		assert.Equal(t, "Bob Smith", name)
	})

	t.Run("single window", func(t *testing.T) {
		name, err := person.NameAt(day(1992, 6, 1))
		require.NoError(t, err)
		assert.Equal(t, "Robert Jones", name)

		name, err = person.NameAt(day(2000, 12, 31))
		require.NoError(t, err)
		assert.Equal(t, "Bobby Jones", name)
	})

	t.Run("overlapping windows", func(t *testing.T) {
		_, err := person.NameAt(day(1996, 6, 1))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAmbiguousName))
		assert.Contains(t, err.Error(), "Bob Smith")
		assert.Contains(t, err.Error(), "1996-06-01")
	})

	t.Run("no historic names", func(t *testing.T) {
		current := NewPerson(Record{"name": "Bob", "other_names": []any{map[string]any{"name": "Bobby"}}})
		name, err := current.NameAt(day(1996, 6, 1))
		require.NoError(t, err)
		assert.Equal(t, "Bob", name)
	})

	t.Run("open start", func(t *testing.T) {
		early := NewPerson(Record{"name": "Now", "other_names": []any{
			map[string]any{"name": "Before", "end_date": "1950"},
		}})
		name, err := early.NameAt(day(1901, 1, 1))
		require.NoError(t, err)
		assert.Equal(t, "Before", name)
	})
}

func TestPersonMemberships(t *testing.T) {
	p := loadFixture(t, "estonia.json")
	person, ok := p.Persons.Lookup("014f1aac-a694-4538-8b4f-a533233acb60")
	require.True(t, ok)

	memberships := person.Memberships()
	require.Len(t, memberships, 1)
	assert.Equal(t, "term/13", memberships[0].LegislativePeriodID())

	assert.Nil(t, NewPerson(Record{"id": "loose"}).Memberships())
}

func TestPersonField(t *testing.T) {
	person := NewPerson(Record{"name": "Harry"})

	name, err := person.Field("name")
	require.NoError(t, err)
	assert.Equal(t, "Harry", name)

	missing, err := person.Field("email")
	require.NoError(t, err)
	assert.Nil(t, missing)

	birth, err := person.Field("birth_date")
	require.NoError(t, err)
	assert.True(t, birth.(approxdate.ApproxDate).IsPast())

	_, err = person.Field("shoe_size")
	assert.True(t, errors.Is(err, ErrUnknownProperty))
	assert.True(t, errors.Is(person.Set("shoe_size", 42), ErrUnknownProperty))
}

func TestEntityEquality(t *testing.T) {
	a := loadFixture(t, "two_people.json")
	b := loadFixture(t, "two_people.json")

	assert.True(t, Same(a.Persons.At(0), b.Persons.At(0)))
	assert.False(t, Same(a.Persons.At(0), a.Persons.At(1)))
	assert.False(t, Same(NewPerson(Record{"id": "1"}), NewOrganization(Record{"id": "1"})))
}
