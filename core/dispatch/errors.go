package dispatch

import "errors"

var (
	// ErrNoGraphNode is returned when the rider or the destination cannot be
	// mapped to a graph node.
	ErrNoGraphNode = errors.New("dispatch: no graph node for position")
	// ErrNoDriverAvailable is returned when no driver has a route to the rider.
	ErrNoDriverAvailable = errors.New("dispatch: no driver available")
	// ErrUnreachableDestination flags a result whose onward leg could not be
	// routed. The driver is still assigned.
	ErrUnreachableDestination = errors.New("dispatch: destination unreachable")
)
