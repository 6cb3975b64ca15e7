package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OtherCity is the city label of every city that is not tracked.
const OtherCity = "other"

var (
	trackedMu     sync.RWMutex
	trackedCities = map[string]string{}
)

// TrackCities sets the cities that get their own label value. Cities come from
// uploads and queries, so labelling all of them would grow series without bound.
func TrackCities(cities []string) {
	m := make(map[string]string, len(cities))
	for _, c := range cities {
		if c = strings.TrimSpace(c); c != "" {
			m[strings.ToLower(c)] = c
		}
	}
	trackedMu.Lock()
	trackedCities = m
	trackedMu.Unlock()
}

// CityLabel returns the label value for city: its configured name when
// tracked, OtherCity otherwise.
func CityLabel(city string) string {
	trackedMu.RLock()
	defer trackedMu.RUnlock()
	if name, ok := trackedCities[strings.ToLower(strings.TrimSpace(city))]; ok {
		return name
	}
	return OtherCity
}

var (
	// DatasetsImported counts CSV uploads by outcome.
	DatasetsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datasets_imported_total",
			Help: "Total number of uploaded datasets",
		},
		[]string{"status"},
	)

	// ObservationsAnalyzed counts observations passed through the engine.
	ObservationsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "observations_analyzed_total",
			Help: "Total number of historical observations analyzed",
		},
	)

	// HistoricalAnomalies counts observations flagged in uploaded datasets.
	HistoricalAnomalies = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "historical_anomalies_total",
			Help: "Total number of anomalous historical observations",
		},
	)

	// AnalysisLatency measures a full dataset analysis.
	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_seconds",
			Help:    "Dataset analysis latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// LiveChecks counts live-reading classifications by result.
	LiveChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_checks_total",
			Help: "Total number of live temperature checks",
		},
		[]string{"city", "result"},
	)

	// CurrentTemperature is the last live temperature fetched per tracked city.
	CurrentTemperature = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "current_temperature_celsius",
			Help: "Last fetched live temperature",
		},
		[]string{"city"},
	)

	// ProviderRequests counts outbound weather provider calls.
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of weather provider requests",
		},
		[]string{"provider", "status"},
	)

	// ProviderLatency measures weather provider calls.
	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Weather provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// ReadingCacheLookups counts live reading cache lookups.
	ReadingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reading_cache_lookups_total",
			Help: "Total number of live reading cache lookups",
		},
		[]string{"result"},
	)
)
