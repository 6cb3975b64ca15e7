package weather

import (
	"time"

	"github.com/i474232898/weather-anomaly/internal/anomaly"
)

// Location represents a logical place for which we check live weather.
// City must match the city name used in uploaded datasets.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// CurrentReading is the live temperature for a location, averaged over the
// providers that answered.
type CurrentReading struct {
	Location     Location  `json:"location"`
	Timestamp    time.Time `json:"timestamp"` // always UTC
	TemperatureC float64   `json:"temperatureC"`

	// Providers contributing to this reading.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperatureC"`
}

// Dataset is an analysed upload.
type Dataset struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	ImportedAt time.Time      `json:"importedAt"`
	Result     anomaly.Result `json:"-"`
}

// DatasetSummary is the listing view of a Dataset.
type DatasetSummary struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	ImportedAt   time.Time `json:"importedAt"`
	Cities       []string  `json:"cities"`
	Observations int       `json:"observations"`
	Anomalies    int       `json:"anomalies"`
}

// Summary describes the dataset without its observations.
func (d Dataset) Summary() DatasetSummary {
	return DatasetSummary{
		ID:           d.ID,
		Source:       d.Source,
		ImportedAt:   d.ImportedAt,
		Cities:       d.Result.Cities(),
		Observations: len(d.Result.Observations),
		Anomalies:    d.Result.Anomalies(),
	}
}

// LiveCheck records one classification of a live reading.
type LiveCheck struct {
	DatasetID      string                 `json:"datasetId"`
	Season         string                 `json:"season"`
	Reading        CurrentReading         `json:"reading"`
	Classification anomaly.Classification `json:"classification"`
	CheckedAt      time.Time              `json:"checkedAt"`
}
