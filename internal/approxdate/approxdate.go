// Package approxdate models dates known to year, month or day precision as
// the closed interval of exact days they could refer to.
package approxdate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

const dayLayout = "2006-01-02"

var (
	reYearMonthDay = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reYearMonth    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	reYear         = regexp.MustCompile(`^(\d{4})$`)
)

var (
	minDate = Day(1, time.January, 1)
	maxDate = Day(9999, time.December, 31)
)

// Past and Future stand in for an unrecorded start or end date.
var (
	Past   = ApproxDate{earliest: minDate, latest: minDate}
	Future = ApproxDate{earliest: maxDate, latest: maxDate}
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("invalid partial date")

// ErrUnrepresentable means an interval is not a single year, month or day.
var ErrUnrepresentable = errors.New("interval has no partial date form")

type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("couldn't parse the ISO 8601 partial date %q", e.Text)
	}
	return fmt.Sprintf("couldn't parse the ISO 8601 partial date %q: %s", e.Text, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// ApproxDate is immutable; the zero value is not meaningful, use Parse, New
// or Exact.
type ApproxDate struct {
	earliest time.Time
	latest   time.Time
	source   string
}

// Day returns midnight UTC of the given calendar day.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// New builds an ApproxDate from explicit bounds. Times are truncated to their
// calendar day.
func New(earliest, latest time.Time) (ApproxDate, error) {
	e, l := truncate(earliest), truncate(latest)
	if l.Before(e) {
		return ApproxDate{}, errors.Newf("earliest %s is after latest %s", e.Format(dayLayout), l.Format(dayLayout))
	}
	return ApproxDate{earliest: e, latest: l}, nil
}

// Exact returns the single-day interval containing d.
func Exact(d time.Time) ApproxDate {
	t := truncate(d)
	return ApproxDate{earliest: t, latest: t}
}

// Parse accepts YYYY-MM-DD, YYYY-MM and YYYY.
func Parse(text string) (ApproxDate, error) {
	if m := reYearMonthDay.FindStringSubmatch(text); m != nil {
		year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if month < 1 || month > 12 {
			return ApproxDate{}, &ParseError{Text: text, Reason: "month out of range"}
		}
		if year < 1 || day < 1 || day > daysIn(year, time.Month(month)) {
			return ApproxDate{}, &ParseError{Text: text, Reason: "day out of range"}
		}
		d := Day(year, time.Month(month), day)
		return ApproxDate{earliest: d, latest: d, source: text}, nil
	}
	if m := reYearMonth.FindStringSubmatch(text); m != nil {
		year, month := atoi(m[1]), atoi(m[2])
		if month < 1 || month > 12 {
			return ApproxDate{}, &ParseError{Text: text, Reason: "month out of range"}
		}
		if year < 1 {
			return ApproxDate{}, &ParseError{Text: text, Reason: "year out of range"}
		}
		return ApproxDate{
			earliest: Day(year, time.Month(month), 1),
			latest:   Day(year, time.Month(month), daysIn(year, time.Month(month))),
			source:   text,
		}, nil
	}
	if m := reYear.FindStringSubmatch(text); m != nil {
		year := atoi(m[1])
		if year < 1 {
			return ApproxDate{}, &ParseError{Text: text, Reason: "year out of range"}
		}
		return ApproxDate{
			earliest: Day(year, time.January, 1),
			latest:   Day(year, time.December, 31),
			source:   text,
		}, nil
	}
	return ApproxDate{}, &ParseError{Text: text}
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) ApproxDate {
	a, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return a
}

func (a ApproxDate) Earliest() time.Time { return a.earliest }
func (a ApproxDate) Latest() time.Time   { return a.latest }

// Source is the text the date was parsed from, empty for constructed dates.
func (a ApproxDate) Source() string { return a.source }

// Midpoint rounds toward the earliest bound.
func (a ApproxDate) Midpoint() time.Time {
	return a.earliest.AddDate(0, 0, int(daysBetween(a.earliest, a.latest)/2))
}

func (a ApproxDate) IsPast() bool {
	return a.earliest.Equal(minDate) && a.latest.Equal(minDate)
}

func (a ApproxDate) IsFuture() bool {
	return a.earliest.Equal(maxDate) && a.latest.Equal(maxDate)
}

func (a ApproxDate) String() string {
	switch {
	case a.source != "":
		return a.source
	case a.IsFuture():
		return "future"
	case a.IsPast():
		return "past"
	}
	return a.earliest.Format(dayLayout) + " to " + a.latest.Format(dayLayout)
}

// Equal compares bounds only, so a year never equals a day inside it.
func (a ApproxDate) Equal(b ApproxDate) bool {
	return a.earliest.Equal(b.earliest) && a.latest.Equal(b.latest)
}

// EqualDate reports whether a is exactly the single day d.
func (a ApproxDate) EqualDate(d time.Time) bool {
	t := truncate(d)
	return a.earliest.Equal(t) && a.latest.Equal(t)
}

// Contains reports whether d falls inside the interval.
func (a ApproxDate) Contains(d time.Time) bool {
	t := truncate(d)
	return !t.Before(a.earliest) && !t.After(a.latest)
}

// ISOFormat renders the date for storage. The source text wins; otherwise
// the narrowest of YYYY, YYYY-MM or YYYY-MM-DD that covers exactly the
// bounds is used. Other intervals have no text form and fail with
// ErrUnrepresentable.
func (a ApproxDate) ISOFormat() (string, error) {
	if a.source != "" {
		return a.source, nil
	}
	e, l := a.earliest, a.latest
	if e.Equal(l) {
		return e.Format(dayLayout), nil
	}
	if e.Year() == l.Year() && e.YearDay() == 1 && l.Month() == time.December && l.Day() == 31 {
		return fmt.Sprintf("%04d", e.Year()), nil
	}
	if e.Year() == l.Year() && e.Month() == l.Month() && e.Day() == 1 && l.Day() == daysIn(l.Year(), l.Month()) {
		return fmt.Sprintf("%04d-%02d", e.Year(), int(e.Month())), nil
	}
	return "", errors.Wrapf(ErrUnrepresentable, "%s to %s", e.Format(dayLayout), l.Format(dayLayout))
}

// Bound is either a time.Time or an ApproxDate.
type Bound interface {
	lower() time.Time
	upper() time.Time
}

func (a ApproxDate) lower() time.Time { return a.earliest }
func (a ApproxDate) upper() time.Time { return a.latest }

// At wraps an exact day so it can be used as a Bound.
type At time.Time

func (t At) lower() time.Time { return truncate(time.Time(t)) }
func (t At) upper() time.Time { return truncate(time.Time(t)) }

// PossiblyBetween takes the widest reading of both bounds: d may be anywhere
// from the earliest day of start to the latest day of end, inclusive.
func PossiblyBetween(start Bound, d time.Time, end Bound) bool {
	t := truncate(d)
	return !t.Before(start.lower()) && !t.After(end.upper())
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d)
}

func daysIn(year int, month time.Month) int {
	return Day(year, month+1, 0).Day()
}

// daysBetween uses unix seconds; time.Duration cannot span the full year
// range.
func daysBetween(from, to time.Time) int64 {
	return (to.Unix() - from.Unix()) / 86400
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
