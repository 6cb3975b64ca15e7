package anomaly

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-anomaly/internal/series"
)

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func makeSeries(city, season string, temps ...float64) series.Series {
	s := series.Series{City: city}
	for i, t := range temps {
		s.Observations = append(s.Observations, series.Observation{
			City:        city,
			Timestamp:   day0.AddDate(0, 0, i),
			Temperature: t,
			Season:      season,
		})
	}
	return s
}

func TestAnalyzeAll_OneOutputPerObservation(t *testing.T) {
	in := []series.Series{
		makeSeries("Berlin", "winter", 1, 2, 3, 4),
		makeSeries("Cairo", "summer", 30, 31),
		makeSeries("Empty", "winter"),
	}

	res := NewEngine(3).AnalyzeAll(in)
	require.Len(t, res.Observations, 6)

	i := 0
	for _, s := range in {
		for _, o := range s.Observations {
			assert.Equal(t, o, res.Observations[i].Observation)
			i++
		}
	}
	assert.Equal(t, []string{"Berlin", "Cairo"}, res.Cities())
}

func TestAnalyzeAll_EmptyInput(t *testing.T) {
	res := NewEngine(4).AnalyzeAll(nil)
	assert.Empty(t, res.Observations)
	assert.Empty(t, res.Baselines)
}

func TestAnalyzeAll_MergesSeriesOfTheSameCity(t *testing.T) {
	first := makeSeries("Oslo", "winter", 10, 12)
	second := makeSeries("Oslo", "winter", 14)
	second.Observations[0].Timestamp = day0.AddDate(0, 0, 2)

	res := NewEngine(2).AnalyzeAll([]series.Series{second, first})
	require.Len(t, res.Observations, 3)

	b, ok := res.Baselines.Baseline("Oslo", "winter")
	require.True(t, ok)
	assert.InDelta(t, 12.0, b.Mean, 1e-9)
	assert.InDelta(t, 2.0, b.Std, 1e-9)
	assert.Equal(t, 3, b.Count)

	for i, want := range []float64{10, 12, 14} {
		o := res.Observations[i]
		assert.Equal(t, want, o.Temperature)
		assert.InDelta(t, 8.0, o.LowerBound, 1e-9)
		assert.InDelta(t, 16.0, o.UpperBound, 1e-9)
	}
	assert.InDelta(t, 12.0, res.Observations[2].RollingMean, 1e-9)
	assert.Equal(t, []string{"Oslo"}, res.Cities())
}

func TestAnalyzeSeries_RollingMean(t *testing.T) {
	temps := make([]float64, 45)
	for i := range temps {
		temps[i] = float64(i*i%17) - 4.5
	}

	obs, _ := AnalyzeSeries(makeSeries("Oslo", "winter", temps...))
	require.Len(t, obs, len(temps))

	assert.Equal(t, temps[0], obs[0].RollingMean)

	for i := range temps {
		start := i - (WindowSize - 1)
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, v := range temps[start : i+1] {
			sum += v
		}
		want := sum / float64(i+1-start)
		assert.InDelta(t, want, obs[i].RollingMean, 1e-9, "position %d", i)
	}
}

func TestAnalyzeSeries_BaselineAndBounds(t *testing.T) {
	obs, baselines := AnalyzeSeries(makeSeries("Paris", "spring", 10, 12, 14))

	b, ok := baselines.Baseline("Paris", "spring")
	require.True(t, ok)
	assert.Equal(t, 12.0, b.Mean)
	assert.Equal(t, 2.0, b.Std)
	assert.Equal(t, 3, b.Count)

	lower, upper := b.Bounds()
	assert.Equal(t, 8.0, lower)
	assert.Equal(t, 16.0, upper)

	for _, o := range obs {
		assert.Equal(t, 12.0, o.BaselineMean)
		assert.Equal(t, 2.0, o.BaselineStd)
		assert.Equal(t, 8.0, o.LowerBound)
		assert.Equal(t, 16.0, o.UpperBound)
		assert.False(t, o.IsAnomaly)
	}
}

func TestAnalyzeSeries_BaselinesArePerSeason(t *testing.T) {
	s := makeSeries("Rome", "winter", 5, 6, 7)
	summer := makeSeries("Rome", "summer", 28, 30, 32)
	for i := range summer.Observations {
		summer.Observations[i].Timestamp = day0.AddDate(0, 6, i)
	}
	s.Observations = append(s.Observations, summer.Observations...)

	obs, baselines := AnalyzeSeries(s)
	require.Len(t, baselines, 2)
	assert.Equal(t, 6.0, baselines[Key{City: "Rome", Season: "winter"}].Mean)
	assert.Equal(t, 30.0, baselines[Key{City: "Rome", Season: "summer"}].Mean)
	assert.Equal(t, 6.0, obs[0].BaselineMean)
	assert.Equal(t, 30.0, obs[5].BaselineMean)
}

func TestAnalyzeSeries_SingleObservationGroup(t *testing.T) {
	obs, baselines := AnalyzeSeries(makeSeries("Lima", "autumn", 17.3))

	b := baselines[Key{City: "Lima", Season: "autumn"}]
	assert.Equal(t, 0.0, b.Std)
	assert.Equal(t, 17.3, b.Mean)

	require.Len(t, obs, 1)
	assert.Equal(t, 17.3, obs[0].LowerBound)
	assert.Equal(t, 17.3, obs[0].UpperBound)
	assert.False(t, obs[0].IsAnomaly)
}

func TestAnalyzeSeries_FlagsOutlier(t *testing.T) {
	temps := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 40}
	obs, _ := AnalyzeSeries(makeSeries("Kyiv", "winter", temps...))

	for i, o := range obs[:len(obs)-1] {
		assert.False(t, o.IsAnomaly, "position %d", i)
	}
	assert.True(t, obs[len(obs)-1].IsAnomaly)
}

func TestClassifyReading_InclusiveBounds(t *testing.T) {
	_, baselines := AnalyzeSeries(makeSeries("Paris", "winter", 10, 12, 14))

	c, err := ClassifyReading("Paris", "winter", 16.0, baselines)
	require.NoError(t, err)
	assert.False(t, c.IsAnomaly)
	assert.Equal(t, 8.0, c.LowerBound)
	assert.Equal(t, 16.0, c.UpperBound)

	c, err = ClassifyReading("Paris", "winter", 8.0, baselines)
	require.NoError(t, err)
	assert.False(t, c.IsAnomaly)

	c, err = ClassifyReading("Paris", "winter", 16.0001, baselines)
	require.NoError(t, err)
	assert.True(t, c.IsAnomaly)

	c, err = ClassifyReading("Paris", "winter", 7.9999, baselines)
	require.NoError(t, err)
	assert.True(t, c.IsAnomaly)
}

func TestClassifyReading_BaselineNotFound(t *testing.T) {
	_, baselines := AnalyzeSeries(makeSeries("Paris", "winter", 10, 12, 14))

	for _, tc := range []struct{ city, season string }{
		{"Madrid", "winter"},
		{"Paris", "summer"},
	} {
		c, err := ClassifyReading(tc.city, tc.season, 10, baselines)
		require.Error(t, err)
		assert.Equal(t, Classification{}, c)

		var nf *BaselineNotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, tc.city, nf.City)
		assert.Equal(t, tc.season, nf.Season)
	}

	_, err := ClassifyReading("Paris", "winter", 10, nil)
	var nf *BaselineNotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestClassifyReading_MatchesBulkFlags(t *testing.T) {
	s := makeSeries("Tokyo", "summer", 25, 26, 27, 24, 35, 26, 25, 13)
	res := NewEngine(1).AnalyzeAll([]series.Series{s})

	for _, o := range res.Observations {
		c, err := ClassifyReading(o.City, o.Season, o.Temperature, res.Baselines)
		require.NoError(t, err)
		assert.Equal(t, o.IsAnomaly, c.IsAnomaly)
		assert.Equal(t, o.LowerBound, c.LowerBound)
		assert.Equal(t, o.UpperBound, c.UpperBound)
	}
}

func TestAnalyzeAll_Idempotent(t *testing.T) {
	in := []series.Series{
		makeSeries("A", "winter", 1, 5, 2, 8, 3),
		makeSeries("B", "summer", 20, 22, 21, 35),
	}
	e := NewEngine(2)

	first := e.AnalyzeAll(in)
	second := e.AnalyzeAll(in)
	assert.Equal(t, first, second)
}

func TestAnalyzeAll_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var in []series.Series
	for c := 0; c < 12; c++ {
		temps := make([]float64, 50+c)
		for i := range temps {
			temps[i] = rng.NormFloat64()*5 + float64(c)
		}
		in = append(in, makeSeries(string(rune('A'+c)), "winter", temps...))
	}

	assert.Equal(t, NewEngine(1).AnalyzeAll(in), NewEngine(8).AnalyzeAll(in))
}

func TestAnalyzeAll_InputRowOrderDoesNotChangeClassification(t *testing.T) {
	rows := []series.Row{
		{City: "X", Timestamp: "2020-01-01", Temperature: "1", Season: "winter"},
		{City: "Y", Timestamp: "2020-01-01", Temperature: "10", Season: "summer"},
		{City: "X", Timestamp: "2020-01-02", Temperature: "2", Season: "winter"},
		{City: "X", Timestamp: "2020-01-03", Temperature: "9", Season: "winter"},
		{City: "Y", Timestamp: "2020-01-02", Temperature: "11", Season: "summer"},
		{City: "X", Timestamp: "2020-01-04", Temperature: "1.5", Season: "winter"},
	}
	shuffled := []series.Row{rows[5], rows[4], rows[3], rows[1], rows[0], rows[2]}

	a, err := series.Preprocess(rows)
	require.NoError(t, err)
	b, err := series.Preprocess(shuffled)
	require.NoError(t, err)

	e := NewEngine(2)
	index := func(r Result) map[string]EnrichedObservation {
		m := make(map[string]EnrichedObservation)
		for _, o := range r.Observations {
			m[o.City+o.Timestamp.String()] = o
		}
		return m
	}

	assert.Equal(t, index(e.AnalyzeAll(a)), index(e.AnalyzeAll(b)))
}

func TestRollingWindow(t *testing.T) {
	w := newRollingWindow(3)
	assert.Equal(t, 3.0, w.Push(3))
	assert.Equal(t, 4.0, w.Push(5))
	assert.Equal(t, 5.0, w.Push(7))
	assert.Equal(t, 7.0, w.Push(9))
	assert.Equal(t, 9.0, w.Push(11))
}

func TestSampleStats(t *testing.T) {
	mean, std := sampleStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, mean)
	assert.InDelta(t, 2.138089935, std, 1e-9)

	mean, std = sampleStats(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}
