package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-anomaly/internal/anomaly"
	"github.com/i474232898/weather-anomaly/internal/logging"
	"github.com/i474232898/weather-anomaly/internal/metrics"
	"github.com/i474232898/weather-anomaly/internal/series"
)

// SeasonAuto asks CheckCurrent to use the calendar season of the check time.
const SeasonAuto = "auto"

// ErrNoProviders is returned when a live reading is requested but no provider is configured.
var ErrNoProviders = errors.New("no weather providers configured")

// ErrProvidersFailed wraps the joined provider errors when no provider answered.
var ErrProvidersFailed = errors.New("all weather providers failed")

// Service orchestrates dataset analysis, live provider fetches and classification.
type Service struct {
	store         Store
	providers     []Provider
	engine        *anomaly.Engine
	cache         ReadingCache
	logger        *logrus.Logger
	defaultSeason string
	now           func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithReadingCache enables caching of live readings.
func WithReadingCache(c ReadingCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the service logger.
func WithLogger(l *logrus.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithDefaultSeason sets the season used by CheckCurrent when none is given.
func WithDefaultSeason(season string) ServiceOption {
	return func(s *Service) { s.defaultSeason = season }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(store Store, providers []Provider, engine *anomaly.Engine, opts ...ServiceOption) *Service {
	s := &Service{
		store:         store,
		providers:     providers,
		engine:        engine,
		logger:        logging.Discard(),
		defaultSeason: anomaly.SeasonWinter,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = anomaly.NewEngine(1)
	}
	return s
}

// ImportCSV parses and analyses an uploaded dataset and keeps the result.
func (s *Service) ImportCSV(source string, r io.Reader) (Dataset, error) {
	start := time.Now()

	in, err := series.Load(r)
	if err != nil {
		metrics.DatasetsImported.WithLabelValues("rejected").Inc()
		s.logger.WithFields(logrus.Fields{"source": source}).WithError(err).Warn("dataset rejected")
		return Dataset{}, err
	}

	result := s.engine.AnalyzeAll(in)
	metrics.AnalysisLatency.Observe(time.Since(start).Seconds())

	ds := Dataset{
		ID:         uuid.NewString(),
		Source:     source,
		ImportedAt: s.now(),
		Result:     result,
	}
	s.store.SaveDataset(ds)

	metrics.DatasetsImported.WithLabelValues("ok").Inc()
	metrics.ObservationsAnalyzed.Add(float64(len(result.Observations)))
	metrics.HistoricalAnomalies.Add(float64(result.Anomalies()))

	s.logger.WithFields(logrus.Fields{
		"dataset_id":   ds.ID,
		"source":       source,
		"cities":       len(in),
		"observations": len(result.Observations),
		"anomalies":    result.Anomalies(),
	}).Info("dataset analyzed")

	return ds, nil
}

// Dataset returns a stored dataset; an empty id selects the most recent one.
func (s *Service) Dataset(id string) (Dataset, error) {
	if id == "" {
		return s.store.LatestDataset()
	}
	return s.store.GetDataset(id)
}

// Datasets lists stored datasets, newest first.
func (s *Service) Datasets() []Dataset {
	return s.store.ListDatasets()
}

// Classify checks an ad-hoc temperature against the baselines of a dataset.
func (s *Service) Classify(datasetID, city, season string, temperature float64) (anomaly.Classification, error) {
	ds, err := s.Dataset(datasetID)
	if err != nil {
		return anomaly.Classification{}, err
	}
	return anomaly.ClassifyReading(city, season, temperature, ds.Result.Baselines)
}

// FetchCurrent fetches data from all providers concurrently for the given
// location and averages the successful readings. When every provider fails
// their errors are joined under ErrProvidersFailed.
func (s *Service) FetchCurrent(ctx context.Context, loc Location) (CurrentReading, error) {
	if s.cache != nil {
		if r, ok := s.cache.Get(ctx, loc); ok {
			metrics.ReadingCacheLookups.WithLabelValues("hit").Inc()
			return r, nil
		}
		metrics.ReadingCacheLookups.WithLabelValues("miss").Inc()
	}

	if len(s.providers) == 0 {
		s.logger.WithFields(logrus.Fields{"location": loc.Key()}).Error("no providers available to fetch weather data")
		return CurrentReading{}, ErrNoProviders
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []ProviderReading
		errs     = make([]error, len(s.providers))
	)

	for i, p := range s.providers {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			r, err := p.Fetch(ctx, loc)
			metrics.ProviderLatency.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.ProviderRequests.WithLabelValues(p.Name(), "error").Inc()
				// Log and continue; partial success is enough.
				s.logger.WithFields(logrus.Fields{
					"provider": p.Name(),
					"location": loc.Key(),
				}).WithError(err).Warn("provider fetch failed")
				errs[i] = fmt.Errorf("%s: %w", p.Name(), err)
				return
			}
			metrics.ProviderRequests.WithLabelValues(p.Name(), "ok").Inc()

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		return CurrentReading{}, fmt.Errorf("%w: %w", ErrProvidersFailed, errors.Join(errs...))
	}

	reading := AggregateReadings(loc, readings)
	if city := metrics.CityLabel(loc.City); city != metrics.OtherCity {
		metrics.CurrentTemperature.WithLabelValues(city).Set(reading.TemperatureC)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, loc, reading); err != nil {
			s.logger.WithFields(logrus.Fields{"location": loc.Key()}).WithError(err).Warn("failed to cache reading")
		}
	}
	return reading, nil
}

// ResolveSeason returns the season a live check uses: the default for an
// empty value, the calendar season for SeasonAuto, otherwise season itself.
func (s *Service) ResolveSeason(season string) string {
	if strings.TrimSpace(season) == "" {
		season = s.defaultSeason
	}
	if strings.EqualFold(season, SeasonAuto) {
		return anomaly.SeasonOf(s.now())
	}
	return season
}

// CheckCurrent fetches the live temperature for loc and classifies it against
// the dataset's baseline for season. The check is recorded in the store.
func (s *Service) CheckCurrent(ctx context.Context, datasetID string, loc Location, season string) (LiveCheck, error) {
	ds, err := s.Dataset(datasetID)
	if err != nil {
		return LiveCheck{}, err
	}

	season = s.ResolveSeason(season)

	// Fail before any network call when there is nothing to compare against.
	if _, ok := ds.Result.Baselines.Baseline(loc.City, season); !ok {
		return LiveCheck{}, &anomaly.BaselineNotFoundError{City: loc.City, Season: season}
	}

	reading, err := s.FetchCurrent(ctx, loc)
	if err != nil {
		return LiveCheck{}, err
	}

	c, err := anomaly.ClassifyReading(loc.City, season, reading.TemperatureC, ds.Result.Baselines)
	if err != nil {
		return LiveCheck{}, err
	}

	check := LiveCheck{
		DatasetID:      ds.ID,
		Season:         season,
		Reading:        reading,
		Classification: c,
		CheckedAt:      s.now(),
	}
	s.store.SaveCheck(loc, check)

	result := "normal"
	if c.IsAnomaly {
		result = "anomaly"
	}
	metrics.LiveChecks.WithLabelValues(metrics.CityLabel(loc.City), result).Inc()

	fields := logrus.Fields{
		"dataset_id":  ds.ID,
		"location":    loc.Key(),
		"season":      season,
		"temperature": reading.TemperatureC,
		"lower_bound": c.LowerBound,
		"upper_bound": c.UpperBound,
	}
	if c.IsAnomaly {
		s.logger.WithFields(fields).Warn("live temperature is anomalous")
	} else {
		s.logger.WithFields(fields).Info("live temperature is normal")
	}

	return check, nil
}

// Checks returns the recorded live checks of loc between from and to (inclusive).
func (s *Service) Checks(loc Location, from, to time.Time) ([]LiveCheck, error) {
	return s.store.GetChecks(loc, from, to)
}
