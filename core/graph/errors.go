package graph

import (
	"errors"
	"fmt"

	"github.com/kilianp07/ridedispatch/core/model"
)

// ErrLoad is matched by every LoadError.
var ErrLoad = errors.New("graph: load error")

// LoadError reports malformed or inconsistent graph data.
type LoadError struct {
	Node   model.NodeID
	Reason string
}

func (e *LoadError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("graph: load error: %s", e.Reason)
	}
	return fmt.Sprintf("graph: load error at node %q: %s", e.Node, e.Reason)
}

// Is makes errors.Is(err, ErrLoad) succeed.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

func loadErrorf(id model.NodeID, format string, args ...any) *LoadError {
	return &LoadError{Node: id, Reason: fmt.Sprintf(format, args...)}
}
