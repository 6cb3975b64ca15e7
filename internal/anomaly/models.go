package anomaly

import (
	"fmt"
	"sort"

	"github.com/i474232898/weather-anomaly/internal/series"
)

const (
	// WindowSize is the number of trailing observations in the rolling mean.
	WindowSize = 30
	// BoundWidth is the distance from the seasonal mean, in standard
	// deviations, beyond which a reading is anomalous.
	BoundWidth = 2.0
)

// Key identifies a seasonal baseline.
type Key struct {
	City   string `json:"city"`
	Season string `json:"season"`
}

// Baseline holds the sample statistics of every temperature observed for a
// (city, season) pair.
type Baseline struct {
	City   string  `json:"city"`
	Season string  `json:"season"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"` // sample std; 0 for single-observation groups
	Count  int     `json:"count"`
}

// Bounds returns the inclusive normal range mean ∓ BoundWidth·std.
func (b Baseline) Bounds() (lower, upper float64) {
	return b.Mean - BoundWidth*b.Std, b.Mean + BoundWidth*b.Std
}

// Classify applies the bound rule to a single temperature. A value exactly on
// a bound is normal.
func (b Baseline) Classify(temperature float64) Classification {
	lower, upper := b.Bounds()
	return Classification{
		IsAnomaly:  temperature < lower || temperature > upper,
		LowerBound: lower,
		UpperBound: upper,
		Baseline:   b,
	}
}

// Classification is the outcome of checking one temperature against a baseline.
type Classification struct {
	IsAnomaly  bool     `json:"isAnomaly"`
	LowerBound float64  `json:"lowerBound"`
	UpperBound float64  `json:"upperBound"`
	Baseline   Baseline `json:"baseline"`
}

// Baselines indexes seasonal baselines by (city, season).
type Baselines map[Key]Baseline

// Baseline implements BaselineLookup.
func (bs Baselines) Baseline(city, season string) (Baseline, bool) {
	b, ok := bs[Key{City: city, Season: season}]
	return b, ok
}

// ForCity returns the baselines of one city ordered by season name.
func (bs Baselines) ForCity(city string) []Baseline {
	var out []Baseline
	for k, b := range bs {
		if k.City == city {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out
}

// List returns every baseline ordered by city, then season.
func (bs Baselines) List() []Baseline {
	out := make([]Baseline, 0, len(bs))
	for _, b := range bs {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Season < out[j].Season
	})
	return out
}

// BaselineLookup resolves the baseline of a (city, season) pair.
type BaselineLookup interface {
	Baseline(city, season string) (Baseline, bool)
}

// EnrichedObservation is an observation annotated with its rolling mean,
// seasonal baseline, normal range and anomaly flag.
type EnrichedObservation struct {
	series.Observation
	RollingMean  float64 `json:"rollingMean"`
	BaselineMean float64 `json:"baselineMean"`
	BaselineStd  float64 `json:"baselineStd"`
	LowerBound   float64 `json:"lowerBound"`
	UpperBound   float64 `json:"upperBound"`
	IsAnomaly    bool    `json:"isAnomaly"`
}

// Result is the output of a full analysis run.
type Result struct {
	Observations []EnrichedObservation `json:"observations"`
	Baselines    Baselines             `json:"-"`
}

// Cities returns the distinct cities of the result in output order.
func (r Result) Cities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range r.Observations {
		if !seen[o.City] {
			seen[o.City] = true
			out = append(out, o.City)
		}
	}
	return out
}

// Anomalies counts flagged observations.
func (r Result) Anomalies() int {
	n := 0
	for _, o := range r.Observations {
		if o.IsAnomaly {
			n++
		}
	}
	return n
}

// BaselineNotFoundError is returned when a reading is classified for a
// (city, season) pair that has no historical observations.
type BaselineNotFoundError struct {
	City   string
	Season string
}

func (e *BaselineNotFoundError) Error() string {
	return fmt.Sprintf("no baseline for city %q in season %q", e.City, e.Season)
}
