package dispatch

import "fmt"

// TieBreak selects the winner among drivers with equal pickup cost.
type TieBreak string

const (
	// TieBreakFirst keeps the first driver in input order.
	TieBreakFirst TieBreak = "first"
	// TieBreakLast keeps the last driver in input order.
	TieBreakLast TieBreak = "last"
)

// DefaultAverageSpeedMPS is roughly 40 km/h.
const DefaultAverageSpeedMPS = 11.11

// Config defines dispatch-related settings.
type Config struct {
	// AverageSpeedMPS converts path costs in meters to seconds.
	AverageSpeedMPS float64 `json:"average_speed_mps"`
	// TieBreak is "first" (default) or "last".
	TieBreak TieBreak `json:"tie_break"`
	// MaxPickupRadiusM ignores drivers farther than this great-circle
	// distance from the rider. Zero disables the filter.
	MaxPickupRadiusM float64 `json:"max_pickup_radius_m"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.AverageSpeedMPS == 0 {
		c.AverageSpeedMPS = DefaultAverageSpeedMPS
	}
	if c.TieBreak == "" {
		c.TieBreak = TieBreakFirst
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.AverageSpeedMPS <= 0 {
		return fmt.Errorf("average_speed_mps must be positive, got %v", c.AverageSpeedMPS)
	}
	if c.TieBreak != TieBreakFirst && c.TieBreak != TieBreakLast {
		return fmt.Errorf("unknown tie_break %q", c.TieBreak)
	}
	if c.MaxPickupRadiusM < 0 {
		return fmt.Errorf("max_pickup_radius_m must not be negative")
	}
	return nil
}
