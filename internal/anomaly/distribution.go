package anomaly

import (
	"sort"
	"time"
)

// SeasonSummary is the five-number summary of one season's temperatures,
// the data a box plot is drawn from.
type SeasonSummary struct {
	Season string  `json:"season"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Distribution summarises the temperatures of city per season, ordered by
// season name.
func Distribution(obs []EnrichedObservation, city string) []SeasonSummary {
	groups := make(map[string][]float64)
	for _, o := range obs {
		if o.City == city {
			groups[o.Season] = append(groups[o.Season], o.Temperature)
		}
	}

	out := make([]SeasonSummary, 0, len(groups))
	for season, temps := range groups {
		sort.Float64s(temps)
		out = append(out, SeasonSummary{
			Season: season,
			Count:  len(temps),
			Min:    temps[0],
			Q1:     quantile(temps, 0.25),
			Median: quantile(temps, 0.5),
			Q3:     quantile(temps, 0.75),
			Max:    temps[len(temps)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Season < out[j].Season })
	return out
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Season names produced by SeasonOf.
const (
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
)

// SeasonOf maps t to its meteorological season in the northern hemisphere.
func SeasonOf(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}
