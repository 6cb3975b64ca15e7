package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-anomaly/internal/series"
)

func TestDistribution(t *testing.T) {
	s := makeSeries("Kazan", "winter", -20, -5, -10, -15)
	s.Observations = append(s.Observations, series.Observation{
		City: "Kazan", Timestamp: day0.AddDate(0, 5, 0), Temperature: 22, Season: "summer",
	})
	obs, _ := AnalyzeSeries(s)
	other, _ := AnalyzeSeries(makeSeries("Sochi", "winter", 100))
	obs = append(obs, other...)

	got := Distribution(obs, "Kazan")
	require.Len(t, got, 2)

	assert.Equal(t, SeasonSummary{Season: "summer", Count: 1, Min: 22, Q1: 22, Median: 22, Q3: 22, Max: 22}, got[0])
	assert.Equal(t, SeasonSummary{
		Season: "winter",
		Count:  4,
		Min:    -20,
		Q1:     -16.25,
		Median: -12.5,
		Q3:     -8.75,
		Max:    -5,
	}, got[1])

	assert.Empty(t, Distribution(obs, "Nowhere"))
}

func TestSeasonOf(t *testing.T) {
	cases := map[time.Month]string{
		time.January:   SeasonWinter,
		time.February:  SeasonWinter,
		time.March:     SeasonSpring,
		time.May:       SeasonSpring,
		time.June:      SeasonSummer,
		time.August:    SeasonSummer,
		time.September: SeasonAutumn,
		time.November:  SeasonAutumn,
		time.December:  SeasonWinter,
	}
	for month, want := range cases {
		assert.Equal(t, want, SeasonOf(time.Date(2024, month, 15, 0, 0, 0, 0, time.UTC)), month.String())
	}
}
