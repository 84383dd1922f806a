package dispatch

import (
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Request is a snapshot of one ride request and the drivers to consider.
type Request struct {
	ID          string         `json:"id,omitempty"`
	Rider       model.Position `json:"rider"`
	Destination model.Position `json:"destination"`
	Drivers     []model.Driver `json:"drivers"`
}

// Candidate records how one driver was evaluated.
type Candidate struct {
	DriverID string       `json:"driver_id"`
	Index    int          `json:"index"`
	Node     model.NodeID `json:"node,omitempty"`
	Routable bool         `json:"routable"`
	Distance float64      `json:"distance_m,omitempty"`
	Settled  int          `json:"settled,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// Result is the outcome of a dispatch. Times are in seconds and distances in
// meters.
type Result struct {
	RequestID       string       `json:"request_id"`
	Driver          model.Driver `json:"driver"`
	DriverIndex     int          `json:"driver_index"`
	RiderNode       model.NodeID `json:"rider_node"`
	DestinationNode model.NodeID `json:"destination_node"`

	PickupPath     model.Path `json:"pickup_path"`
	PickupDistance float64    `json:"pickup_distance_m"`
	PickupTime     float64    `json:"pickup_time_s"`

	TripPath     model.Path `json:"trip_path"`
	TripDistance float64    `json:"trip_distance_m"`
	TripTime     float64    `json:"trip_time_s"`

	DestinationUnreachable bool `json:"destination_unreachable"`

	Candidates []Candidate   `json:"candidates"`
	Duration   time.Duration `json:"duration_ns"`
}

// Warning returns ErrUnreachableDestination for partial results and nil
// otherwise.
func (r Result) Warning() error {
	if r.DestinationUnreachable {
		return ErrUnreachableDestination
	}
	return nil
}

// TotalTime is the pickup time plus the trip time.
func (r Result) TotalTime() float64 { return r.PickupTime + r.TripTime }
