package reefer

import (
	"fmt"
	"time"
)

// Timestamps returns n instants starting at start and spaced by Step.
func Timestamps(n int, start time.Time) ([]time.Time, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative row count %d", ErrInvalidConfiguration, n)
	}
	ts := make([]time.Time, n)
	for i := range ts {
		ts[i] = start.Add(time.Duration(i) * Step)
	}
	return ts, nil
}

// ParseStartTime parses an RFC 3339 start instant. An empty string means
// "no start time" and returns nil.
func ParseStartTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: start time %q: %v", ErrInvalidConfiguration, s, err)
	}
	return &t, nil
}
