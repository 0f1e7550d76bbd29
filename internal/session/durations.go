package session

import (
	"errors"
	"time"

	"github.com/lowaak/cardiosplit/internal/interval"
)

// ErrMissingFields is returned by ParseDurations when a field is empty
var ErrMissingFields = errors.New(MissingFieldsMessage)

// ParseDurations reads the three minute fields the user typed. Empty
// fields yield ErrMissingFields and unparsable ones a ValidationError
// naming the field. Range checks are left to Validate.
func ParseDurations(total, run, walk string) (Durations, error) {
	fields := []struct {
		name string
		raw  string
	}{{"total", total}, {"run", run}, {"walk", walk}}

	values := make([]time.Duration, len(fields))
	for i, f := range fields {
		v, ok, err := interval.ParseMinutes(f.raw)
		if !ok {
			return Durations{}, ErrMissingFields
		}
		if err != nil {
			return Durations{}, &ValidationError{Field: f.name, Reason: "must be a number of minutes"}
		}
		d, err := interval.MinutesToDuration(v)
		if err != nil {
			return Durations{}, &ValidationError{Field: f.name, Reason: "is too large"}
		}
		values[i] = d
	}

	return Durations{Total: values[0], Run: values[1], Walk: values[2]}, nil
}
