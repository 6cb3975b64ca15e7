package anomaly

import (
	"math"
	"sync"

	"github.com/i474232898/weather-anomaly/internal/series"
)

// Engine computes rolling means, seasonal baselines and anomaly flags.
// It keeps no data between calls; the only state is its parallelism.
type Engine struct {
	workers int
}

// NewEngine returns an Engine that analyses up to workers cities concurrently.
// Values below 1 mean sequential processing.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers}
}

// AnalyzeAll splits the input by city, analyses every city independently and
// concatenates the results in order of first appearance. Observations of one
// city spread over several series are merged and re-sorted by timestamp first.
// Baselines are recomputed from the complete input on every call.
func (e *Engine) AnalyzeAll(input []series.Series) Result {
	var all []series.Observation
	for _, s := range input {
		all = append(all, s.Observations...)
	}
	in := series.GroupByCity(all)

	type cityResult struct {
		observations []EnrichedObservation
		baselines    Baselines
	}

	results := make([]cityResult, len(in))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < e.workers && w < len(in); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				obs, bs := AnalyzeSeries(in[i])
				results[i] = cityResult{observations: obs, baselines: bs}
			}
		}()
	}
	for i := range in {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r.observations)
	}

	out := Result{
		Observations: make([]EnrichedObservation, 0, total),
		Baselines:    make(Baselines),
	}
	for _, r := range results {
		out.Observations = append(out.Observations, r.observations...)
		for k, b := range r.baselines {
			out.Baselines[k] = b
		}
	}
	return out
}

// AnalyzeSeries analyses the observations of a single city. The series must
// already be ordered by timestamp.
func AnalyzeSeries(s series.Series) ([]EnrichedObservation, Baselines) {
	if len(s.Observations) == 0 {
		return nil, Baselines{}
	}

	baselines := computeBaselines(s.Observations)
	window := newRollingWindow(WindowSize)

	out := make([]EnrichedObservation, len(s.Observations))
	for i, obs := range s.Observations {
		b := baselines[Key{City: obs.City, Season: obs.Season}]
		c := b.Classify(obs.Temperature)

		out[i] = EnrichedObservation{
			Observation:  obs,
			RollingMean:  window.Push(obs.Temperature),
			BaselineMean: b.Mean,
			BaselineStd:  b.Std,
			LowerBound:   c.LowerBound,
			UpperBound:   c.UpperBound,
			IsAnomaly:    c.IsAnomaly,
		}
	}
	return out, baselines
}

// ClassifyReading checks a single temperature against the baseline of
// (city, season) found in lookup.
func ClassifyReading(city, season string, temperature float64, lookup BaselineLookup) (Classification, error) {
	if lookup == nil {
		return Classification{}, &BaselineNotFoundError{City: city, Season: season}
	}
	b, ok := lookup.Baseline(city, season)
	if !ok {
		return Classification{}, &BaselineNotFoundError{City: city, Season: season}
	}
	return b.Classify(temperature), nil
}

func computeBaselines(obs []series.Observation) Baselines {
	groups := make(map[Key][]float64)
	for _, o := range obs {
		k := Key{City: o.City, Season: o.Season}
		groups[k] = append(groups[k], o.Temperature)
	}

	out := make(Baselines, len(groups))
	for k, temps := range groups {
		mean, std := sampleStats(temps)
		out[k] = Baseline{
			City:   k.City,
			Season: k.Season,
			Mean:   mean,
			Std:    std,
			Count:  len(temps),
		}
	}
	return out
}

// sampleStats returns the mean and the N-1 standard deviation of values.
// A single value has a standard deviation of 0.
func sampleStats(values []float64) (mean, std float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)
	if n == 1 {
		return mean, 0
	}

	ss := 0.0
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(n-1))
}
