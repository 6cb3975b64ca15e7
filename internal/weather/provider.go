package weather

import (
	"context"
	"time"
)

// ProviderReading represents a single provider's normalized reading
// that can be aggregated into a CurrentReading.
type ProviderReading struct {
	ProviderName string
	Timestamp    time.Time
	TemperatureC float64
}

// Provider abstracts a live weather source (e.g. OpenWeatherMap, WeatherAPI).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (ProviderReading, error)
}

// Store is the contract the in-memory store must satisfy.
type Store interface {
	SaveDataset(ds Dataset)
	GetDataset(id string) (Dataset, error)
	LatestDataset() (Dataset, error)
	ListDatasets() []Dataset

	SaveCheck(loc Location, check LiveCheck)
	GetChecks(loc Location, from, to time.Time) ([]LiveCheck, error)
}

// ReadingCache keeps recent live readings so repeated checks do not hit the
// providers every time. Get reports false on a miss or any cache failure.
type ReadingCache interface {
	Get(ctx context.Context, loc Location) (CurrentReading, bool)
	Set(ctx context.Context, loc Location, reading CurrentReading) error
}
