package model

import "time"

// Driver is a driver agent with its last known position. Drivers are not
// part of the graph and are resolved to a node on every dispatch.
type Driver struct {
	ID       string    `json:"id"`
	Position Position  `json:"position"`
	SeenAt   time.Time `json:"seen_at,omitempty"`
}
