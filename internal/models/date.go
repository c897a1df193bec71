package models

import (
	"encoding/json"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a point in time stored in a Document.
//
// It is read from either a "2006-01-02" date or an RFC 3339 timestamp.
// Values that carry no time of day are written back as "2006-01-02".
// Unparseable values decode to the zero Date.
type Date struct {
	t time.Time
}

// NewDate wraps a time.
func NewDate(t time.Time) Date {
	return Date{t: t}
}

// DateOf returns the date-only value for the given calendar day in UTC.
func DateOf(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" or RFC 3339 string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(dateLayout) {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Date{}, err
		}
		return Date{t: t}, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t}, nil
}

// MustParseDate is ParseDate for literals that are known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns the underlying time.
func (d Date) Time() time.Time {
	return d.t
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDate adds years, months and days the way time.Time.AddDate does.
func (d Date) AddDate(years, months, days int) Date {
	return Date{t: d.t.AddDate(years, months, days)}
}

// Before reports whether d is before e.
func (d Date) Before(e Date) bool {
	return d.t.Before(e.t)
}

// Equal reports whether d and e are the same instant.
func (d Date) Equal(e Date) bool {
	return d.t.Equal(e.t)
}

// SameMonth reports whether d falls in the calendar month of t, seen from t's location.
func (d Date) SameMonth(t time.Time) bool {
	local := d.t.In(t.Location())
	return local.Year() == t.Year() && local.Month() == t.Month()
}

func (d Date) dateOnly() bool {
	h, m, s := d.t.Clock()
	return h == 0 && m == 0 && s == 0 && d.t.Nanosecond() == 0 && d.t.Location() == time.UTC
}

// String formats the date the same way it is stored.
func (d Date) String() string {
	if d.t.IsZero() {
		return ""
	}
	if d.dateOnly() {
		return d.t.Format(dateLayout)
	}
	return d.t.Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		*d = Date{}
		return nil
	}
	*d = parsed
	return nil
}
