package events

import "github.com/kilianp07/ridedispatch/core/model"

// PositionEvent is published when the position feed updates a driver.
type PositionEvent struct {
	Driver model.Driver `json:"driver"`
}
