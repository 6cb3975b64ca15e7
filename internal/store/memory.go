package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-anomaly/internal/weather"
)

var (
	// ErrNotFound is returned when the requested dataset or check history does not exist.
	ErrNotFound = errors.New("not found")
)

// CheckHistory holds a time-ordered list of live checks for a location.
type CheckHistory struct {
	Checks []weather.LiveCheck
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// Nothing survives a restart.
type MemoryStore struct {
	mu sync.RWMutex

	// datasets in import order, oldest first
	datasets    []weather.Dataset
	maxDatasets int

	// key: location key, value: history
	checks map[string]*CheckHistory

	// check retention configuration
	maxHistory int           // max number of checks per location
	maxAge     time.Duration // optional max age for checks

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// Limits <= 0 are treated as unlimited.
func NewMemoryStore(maxDatasets, maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxDatasets: maxDatasets,
		checks:      make(map[string]*CheckHistory),
		maxHistory:  maxHistory,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// SaveDataset keeps ds, evicting the oldest datasets beyond the limit.
func (s *MemoryStore) SaveDataset(ds weather.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets = append(s.datasets, ds)
	if s.maxDatasets > 0 && len(s.datasets) > s.maxDatasets {
		over := len(s.datasets) - s.maxDatasets
		s.datasets = append([]weather.Dataset(nil), s.datasets[over:]...)
	}
}

// GetDataset returns the dataset with the given id.
func (s *MemoryStore) GetDataset(id string) (weather.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ds := range s.datasets {
		if ds.ID == id {
			return ds, nil
		}
	}
	return weather.Dataset{}, ErrNotFound
}

// LatestDataset returns the most recently saved dataset.
func (s *MemoryStore) LatestDataset() (weather.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.datasets) == 0 {
		return weather.Dataset{}, ErrNotFound
	}
	return s.datasets[len(s.datasets)-1], nil
}

// ListDatasets returns all datasets, newest first.
func (s *MemoryStore) ListDatasets() []weather.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Dataset, 0, len(s.datasets))
	for i := len(s.datasets) - 1; i >= 0; i-- {
		out = append(out, s.datasets[i])
	}
	return out
}

// SaveCheck appends a live check for a location and enforces retention.
func (s *MemoryStore) SaveCheck(loc weather.Location, check weather.LiveCheck) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.checks[key]
	if !ok {
		history = &CheckHistory{}
		s.checks[key] = history
	}

	history.Checks = append(history.Checks, check)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Checks) > s.maxHistory {
		over := len(history.Checks) - s.maxHistory
		history.Checks = history.Checks[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Checks); i++ {
			if !history.Checks[i].CheckedAt.Before(cutoff) {
				break
			}
		}
		history.Checks = history.Checks[i:]
	}
}

// GetChecks returns all checks for a location between from and to (inclusive).
func (s *MemoryStore) GetChecks(loc weather.Location, from, to time.Time) ([]weather.LiveCheck, error) {
	key := loc.Key()

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.checks[key]
	if !ok || len(history.Checks) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.LiveCheck
	for _, c := range history.Checks {
		if !c.CheckedAt.Before(from) && !c.CheckedAt.After(to) {
			result = append(result, c)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
