package eventstore

import (
	"errors"
	"fmt"
	"time"
)

// DefaultColor is the color assigned to events created without one.
const DefaultColor = "blue"

// Sentinel errors surfaced by the store. Callers map these onto their own
// error taxonomy (HTTP status, duplex error payloads).
var (
	ErrNotFound   = errors.New("eventstore: event not found")
	ErrValidation = errors.New("eventstore: invalid event")
)

// Event is a single calendar entry. Date is the canonical YYYY-MM-DD form;
// Time is an optional opaque clock string that only participates in ordering.
type Event struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Day returns the event's parsed calendar date.
func (e *Event) Day() (Date, error) { return ParseDate(e.Date) }

// Clone returns a shallow copy.
func (e *Event) Clone() *Event {
	cp := *e
	return &cp
}

const dateLayout = "2006-01-02"

// Date is a calendar date with field-wise comparison. Using a concrete type
// here keeps window matching independent of how date strings are formatted.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String renders the canonical zero-padded YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

// Compare returns -1, 0, or 1 ordering d against other.
func (d Date) Compare(other Date) int {
	if d.Year != other.Year {
		return cmpInt(d.Year, other.Year)
	}
	if d.Month != other.Month {
		return cmpInt(int(d.Month), int(other.Month))
	}
	return cmpInt(d.Day, other.Day)
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
