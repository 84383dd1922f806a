package dispatch

import (
	"fmt"

	"github.com/kilianp07/ridedispatch/core/geo"
	"github.com/kilianp07/ridedispatch/core/model"
)

// DriverFilter decides whether a driver is considered for a request. A non-nil
// error excludes the driver and is kept as the reason in the candidate log.
type DriverFilter interface {
	Allow(d model.Driver, rider model.Position) error
}

// ValidPositionFilter rejects drivers whose position is not a valid coordinate.
type ValidPositionFilter struct{}

func (ValidPositionFilter) Allow(d model.Driver, _ model.Position) error {
	return d.Position.Validate()
}

// RadiusFilter rejects drivers farther than MaxMeters from the rider.
type RadiusFilter struct {
	MaxMeters float64
}

func (f RadiusFilter) Allow(d model.Driver, rider model.Position) error {
	if f.MaxMeters <= 0 {
		return nil
	}
	if dist := geo.Haversine(d.Position, rider); dist > f.MaxMeters {
		return fmt.Errorf("%.0fm from rider exceeds %.0fm", dist, f.MaxMeters)
	}
	return nil
}

// ChainFilter applies filters in order and stops at the first rejection.
type ChainFilter []DriverFilter

func (c ChainFilter) Allow(d model.Driver, rider model.Position) error {
	for _, f := range c {
		if err := f.Allow(d, rider); err != nil {
			return err
		}
	}
	return nil
}

// DefaultFilter builds the filter chain described by cfg.
func DefaultFilter(cfg Config) DriverFilter {
	chain := ChainFilter{ValidPositionFilter{}}
	if cfg.MaxPickupRadiusM > 0 {
		chain = append(chain, RadiusFilter{MaxMeters: cfg.MaxPickupRadiusM})
	}
	return chain
}
