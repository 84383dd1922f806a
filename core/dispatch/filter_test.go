package dispatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/ridedispatch/core/model"
)

func TestRadiusFilter(t *testing.T) {
	rider := model.Position{Lat: 48.85, Lon: 2.35}
	near := model.Driver{ID: "near", Position: model.Position{Lat: 48.851, Lon: 2.35}}
	far := model.Driver{ID: "far", Position: model.Position{Lat: 48.95, Lon: 2.35}}

	f := RadiusFilter{MaxMeters: 1000}
	assert.NoError(t, f.Allow(near, rider))
	assert.Error(t, f.Allow(far, rider))
	assert.NoError(t, RadiusFilter{}.Allow(far, rider), "zero radius disables the filter")
}

func TestChainFilter_StopsAtFirstRejection(t *testing.T) {
	rider := model.Position{}
	bad := model.Driver{ID: "x", Position: model.Position{Lat: math.NaN()}}
	chain := DefaultFilter(Config{MaxPickupRadiusM: 10})
	err := chain.Allow(bad, rider)
	assert.ErrorContains(t, err, "not finite")

	assert.NoError(t, DefaultFilter(Config{}).Allow(model.Driver{Position: model.Position{Lat: 80}}, rider))
}
