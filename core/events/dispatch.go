package events

import (
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Dispatch outcomes.
const (
	OutcomeAssigned    = "assigned"
	OutcomePartial     = "partial"
	OutcomeNoGraphNode = "no_graph_node"
	OutcomeNoDriver    = "no_driver"
)

// DispatchEvent is published once per dispatch request.
type DispatchEvent struct {
	RequestID   string         `json:"request_id"`
	Outcome     string         `json:"outcome"`
	DriverID    string         `json:"driver_id,omitempty"`
	Rider       model.Position `json:"rider"`
	Destination model.Position `json:"destination"`
	PickupPath  model.Path     `json:"pickup_path,omitempty"`
	TripPath    model.Path     `json:"trip_path,omitempty"`
	PickupTime  float64        `json:"pickup_time_s"`
	TripTime    float64        `json:"trip_time_s"`
	Error       string         `json:"error,omitempty"`
	Time        time.Time      `json:"time"`
}
