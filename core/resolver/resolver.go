// Package resolver maps arbitrary coordinates to the closest graph node.
package resolver

import (
	"errors"

	"github.com/kilianp07/ridedispatch/core/model"
)

// ErrNotFound is returned when no node can be matched, i.e. the node set is empty.
var ErrNotFound = errors.New("resolver: no graph node found")

// Resolver returns the node whose position minimizes the great-circle
// distance to the query point. Ties go to the node that comes first in the
// graph's load order.
type Resolver interface {
	Resolve(pos model.Position) (model.NodeID, error)
}

// Match is a resolved node together with its distance to the query.
type Match struct {
	Node     model.Node `json:"node"`
	Distance float64    `json:"distance_m"`
}

// Matcher is implemented by resolvers that can also report the distance of
// the match.
type Matcher interface {
	Nearest(pos model.Position) (Match, error)
}
