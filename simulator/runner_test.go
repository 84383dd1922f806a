package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
)

// grid builds a 3x3 grid of nodes 0.001 degrees apart, every neighbor pair
// connected in both directions with cost 111.
func grid(t *testing.T) *graph.Store {
	t.Helper()
	var nodes []model.Node
	adj := map[model.NodeID][]model.Edge{}
	id := func(r, c int) model.NodeID { return model.NodeID(string(rune('a'+r)) + string(rune('0'+c))) }
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			nodes = append(nodes, model.Node{ID: id(r, c), Position: model.Position{Lat: 10 + float64(r)*0.001, Lon: 10 + float64(c)*0.001}})
			if c < 2 {
				adj[id(r, c)] = append(adj[id(r, c)], model.Edge{To: id(r, c+1), Cost: 111})
				adj[id(r, c+1)] = append(adj[id(r, c+1)], model.Edge{To: id(r, c), Cost: 111})
			}
			if r < 2 {
				adj[id(r, c)] = append(adj[id(r, c)], model.Edge{To: id(r+1, c), Cost: 111})
				adj[id(r+1, c)] = append(adj[id(r+1, c)], model.Edge{To: id(r, c), Cost: 111})
			}
		}
	}
	s, err := graph.New(nodes, adj, graph.Options{})
	require.NoError(t, err)
	return s
}

func newRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	s := grid(t)
	c, err := dispatch.NewCoordinator(s, resolver.NewRTree(s), dispatch.Config{})
	require.NoError(t, err)
	return NewRunner(s, c, cfg)
}

func TestRunner_Run(t *testing.T) {
	r := newRunner(t, Config{Trials: 40, Drivers: 5, Spread: 0.004, Seed: 42})
	rep, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, rep.Trials)
	sum := 0
	for _, n := range rep.Outcomes {
		sum += n
	}
	assert.Equal(t, 40, sum)
	assert.Positive(t, rep.Outcomes["assigned"])
	assert.Equal(t, rep.Outcomes["assigned"], rep.Trip.Count)
	assert.Positive(t, rep.Pickup.Mean)
	assert.GreaterOrEqual(t, rep.Pickup.Max, rep.Pickup.P50)
	assert.InDelta(t, rep.Pickup.Mean+rep.Trip.Mean, rep.Total.Mean, 1e-9)
}

func TestRunner_SameSeedSameReport(t *testing.T) {
	cfg := Config{Trials: 20, Drivers: 3, Spread: 0.004, Seed: 9}
	a, err := newRunner(t, cfg).Run(context.Background())
	require.NoError(t, err)
	b, err := newRunner(t, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunner_PublishesPositions(t *testing.T) {
	r := newRunner(t, Config{Trials: 3, Drivers: 4, Spread: 0.002, Seed: 1})
	pub := mqtt.NewMockPublisher()
	r.Publisher = pub
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	_, positions := pub.Snapshot()
	assert.Len(t, positions, 12)
}

func TestRunner_Errors(t *testing.T) {
	empty, err := graph.New(nil, nil, graph.Options{})
	require.NoError(t, err)
	c, err := dispatch.NewCoordinator(empty, resolver.NewLinear(empty), dispatch.Config{})
	require.NoError(t, err)
	_, err = NewRunner(empty, c, Config{Trials: 1}).Run(context.Background())
	assert.ErrorIs(t, err, ErrEmptyGraph)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = newRunner(t, Config{Trials: 5, Drivers: 1, Seed: 1}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
