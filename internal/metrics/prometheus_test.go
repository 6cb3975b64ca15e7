package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCityLabel(t *testing.T) {
	t.Cleanup(func() { TrackCities(nil) })

	assert.Equal(t, OtherCity, CityLabel("Berlin"))

	TrackCities([]string{"Berlin", " Oslo ", ""})
	assert.Equal(t, "Berlin", CityLabel("Berlin"))
	assert.Equal(t, "Berlin", CityLabel("berlin"))
	assert.Equal(t, "Oslo", CityLabel("OSLO"))
	assert.Equal(t, OtherCity, CityLabel("Atlantis"))
	assert.Equal(t, OtherCity, CityLabel(""))

	TrackCities(nil)
	assert.Equal(t, OtherCity, CityLabel("Berlin"))
}
