package series

import (
	"fmt"
	"time"
)

// Observation is one historical temperature reading for a city.
type Observation struct {
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperature"`
	Season      string    `json:"season"`
}

// Series holds the observations of a single city ordered by timestamp ascending.
type Series struct {
	City         string
	Observations []Observation
}

// Len returns the number of observations in the series.
func (s Series) Len() int {
	return len(s.Observations)
}

// Row is a raw input record before validation. Line is the 1-based line of the
// record in its source (0 when the row did not come from a file).
type Row struct {
	Line        int
	City        string
	Timestamp   string
	Temperature string
	Season      string
}

// MalformedInputError reports input that cannot be turned into observations:
// a missing required column or a row with an unusable value.
type MalformedInputError struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Column == "" {
		if e.Line == 0 {
			return "malformed input: " + e.Reason
		}
		return fmt.Sprintf("malformed input: line %d: %s", e.Line, e.Reason)
	}
	if e.Line == 0 {
		return fmt.Sprintf("malformed input: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed input: line %d, column %q (value %q): %s", e.Line, e.Column, e.Value, e.Reason)
}
