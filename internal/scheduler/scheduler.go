package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-anomaly/internal/store"
	"github.com/i474232898/weather-anomaly/internal/weather"
)

// Checker is the part of weather.Service the scheduler drives.
type Checker interface {
	CheckCurrent(ctx context.Context, datasetID string, loc weather.Location, season string) (weather.LiveCheck, error)
}

// Scheduler periodically checks the live temperature of configured locations
// against the most recent dataset.
type Scheduler struct {
	scheduler *gocron.Scheduler
	checker   Checker
	locations []weather.Location
	interval  time.Duration
	season    string
	timeout   time.Duration
	logger    *logrus.Logger
}

// New creates a new Scheduler. An empty season lets the checker pick its default.
func New(locations []weather.Location, interval time.Duration, season string, checker Checker, logger *logrus.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		checker:   checker,
		locations: locations,
		interval:  interval,
		season:    season,
		timeout:   30 * time.Second,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce checks every location concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	s.logger.Debug("scheduler: running live check job")

	var wg sync.WaitGroup
	for _, loc := range s.locations {
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			_, err := s.checker.CheckCurrent(ctx, "", loc, s.season)
			switch {
			case err == nil:
			case errors.Is(err, store.ErrNotFound):
				s.logger.WithFields(logrus.Fields{"location": loc.Key()}).Debug("scheduler: no dataset uploaded yet")
			default:
				s.logger.WithFields(logrus.Fields{"location": loc.Key()}).WithError(err).Warn("scheduler: live check failed")
			}
		}()
	}
	wg.Wait()
	s.logger.Debug("scheduler: completed live check job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
