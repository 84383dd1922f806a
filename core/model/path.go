package model

// Path is an ordered sequence of node ids from source to target. An empty
// path means no route exists.
type Path []NodeID

// IsRoute returns true when the path connects at least two nodes.
func (p Path) IsRoute() bool { return len(p) >= 2 }
