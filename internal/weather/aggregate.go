package weather

import "time"

// AggregateReadings combines multiple provider readings into a single CurrentReading.
// Temperatures are averaged; the newest provider timestamp wins.
func AggregateReadings(loc Location, readings []ProviderReading) CurrentReading {
	if len(readings) == 0 {
		return CurrentReading{
			Location:  loc,
			Timestamp: time.Now().UTC(),
		}
	}

	var sumTemp float64
	providers := make([]ProviderContribution, 0, len(readings))
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureC

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
			TemperatureC: r.TemperatureC,
		})
	}

	if newestTS.IsZero() {
		newestTS = time.Now().UTC()
	}

	return CurrentReading{
		Location:     loc,
		Timestamp:    newestTS,
		TemperatureC: sumTemp / float64(len(readings)),
		Providers:    providers,
	}
}
