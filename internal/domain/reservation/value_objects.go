package reservation

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDateRange = errors.New("check-in date must be before check-out date")
	ErrStartDateInPast  = errors.New("check-in date cannot be in the past")
)

const dateLayout = "2006-01-02"

// DateRange is a half-open stay [start, end): the guest occupies the room on
// the night of start and checks out on the morning of end. Two stays that
// merely abut (A.end == B.start) do not conflict, which is what allows a
// same-day checkout/check-in on one room.
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if !start.Before(end) {
		return DateRange{}, ErrInvalidDateRange
	}
	return DateRange{start: start, end: end}, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (r DateRange) Start() time.Time {
	return r.start
}

func (r DateRange) End() time.Time {
	return r.end
}

// Overlaps reports whether two half-open ranges share at least one night.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.start.Before(other.end) && other.start.Before(r.end)
}

// Abuts reports whether one range ends exactly where the other begins.
func (r DateRange) Abuts(other DateRange) bool {
	return r.end.Equal(other.start) || other.end.Equal(r.start)
}

// ValidateNotPast rejects ranges starting before today. Runs before any
// store access so invalid requests never reach persistence.
func (r DateRange) ValidateNotPast(today time.Time) error {
	if r.start.Before(truncateToDate(today)) {
		return ErrStartDateInPast
	}
	return nil
}

// Nights is the length of the stay in whole nights, always >= 1 for a valid
// range.
func (r DateRange) Nights() int {
	return int(r.end.Sub(r.start).Hours() / 24)
}

// ToDaterange renders the range as a Postgres daterange literal, preserving
// the half-open bound.
func (r DateRange) ToDaterange() string {
	return fmt.Sprintf("[%s,%s)", r.start.Format(dateLayout), r.end.Format(dateLayout))
}

func (r DateRange) String() string {
	return r.ToDaterange()
}
