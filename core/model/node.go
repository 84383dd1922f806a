package model

// NodeID identifies a node of the road network. OSM extracts use the decimal
// node id.
type NodeID string

// Node is a point of the road network with a fixed position.
type Node struct {
	ID       NodeID   `json:"id"`
	Position Position `json:"position"`
}

// Edge is a directed connection to another node. Cost is non-negative and
// expressed in meters.
type Edge struct {
	To   NodeID  `json:"to"`
	Cost float64 `json:"cost"`
}
