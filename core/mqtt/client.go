package mqtt

import (
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Assignment is the message sent to a driver once it has been dispatched.
type Assignment struct {
	AssignmentID string         `json:"assignment_id"`
	RequestID    string         `json:"request_id"`
	DriverID     string         `json:"driver_id"`
	Rider        model.Position `json:"rider"`
	Destination  model.Position `json:"destination"`
	PickupPath   model.Path     `json:"pickup_path"`
	TripPath     model.Path     `json:"trip_path"`
	PickupTimeS  float64        `json:"pickup_time_s"`
	TripTimeS    float64        `json:"trip_time_s"`
	IssuedAt     time.Time      `json:"issued_at"`
}

// PositionReport is the payload of a driver position message.
type PositionReport struct {
	DriverID  string    `json:"driver_id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
}

// Driver converts the report into a model.Driver.
func (p PositionReport) Driver() model.Driver {
	return model.Driver{ID: p.DriverID, Position: model.Position{Lat: p.Lat, Lon: p.Lon}, SeenAt: p.Timestamp}
}

// Client publishes assignments and driver positions to the broker.
type Client interface {
	// SendAssignment publishes a to the driver's assignment topic and returns
	// the assignment identifier.
	SendAssignment(a Assignment) (assignmentID string, err error)

	// PublishPosition publishes a driver position report.
	PublishPosition(d model.Driver) error
}

// PositionHandler receives decoded driver positions.
type PositionHandler func(model.Driver)
