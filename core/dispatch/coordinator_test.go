package dispatch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

var (
	posA = model.Position{Lat: 0, Lon: 0}
	posB = model.Position{Lat: 0, Lon: 1}
	posC = model.Position{Lat: 0, Lon: 2}
	posD = model.Position{Lat: 5, Lon: 5}
)

// triangle builds A(0,0) B(0,1) C(0,2) with A→B=5, C→B=8, B→C=5, A→C=20 plus
// an isolated node D.
func triangle(t *testing.T) *graph.Store {
	t.Helper()
	nodes := []model.Node{
		{ID: "A", Position: posA},
		{ID: "B", Position: posB},
		{ID: "C", Position: posC},
		{ID: "D", Position: posD},
	}
	adj := map[model.NodeID][]model.Edge{
		"A": {{To: "B", Cost: 5}, {To: "C", Cost: 20}},
		"B": {{To: "C", Cost: 5}},
		"C": {{To: "B", Cost: 8}},
	}
	s, err := graph.New(nodes, adj, graph.Options{})
	require.NoError(t, err)
	return s
}

func newCoordinator(t *testing.T, s *graph.Store, cfg Config, opts ...Option) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(s, resolver.NewLinear(s), cfg, opts...)
	require.NoError(t, err)
	return c
}

type recordingSink struct {
	dispatches []metrics.DispatchRecord
	searches   []metrics.SearchRecord
}

func (r *recordingSink) RecordDispatch(rec metrics.DispatchRecord) error {
	r.dispatches = append(r.dispatches, rec)
	return nil
}

func (r *recordingSink) RecordSearch(recs []metrics.SearchRecord) error {
	r.searches = append(r.searches, recs...)
	return nil
}

func TestDispatch_PicksCheapestPickup(t *testing.T) {
	c := newCoordinator(t, triangle(t), Config{})
	res, err := c.Dispatch(Request{
		Rider:       posB,
		Destination: posC,
		Drivers: []model.Driver{
			{ID: "dA", Position: posA},
			{ID: "dC", Position: posC},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "dA", res.Driver.ID)
	assert.Equal(t, 0, res.DriverIndex)
	assert.Equal(t, model.NodeID("B"), res.RiderNode)
	assert.Equal(t, model.NodeID("C"), res.DestinationNode)
	assert.Equal(t, model.Path{"A", "B"}, res.PickupPath)
	assert.Equal(t, 5.0, res.PickupDistance)
	assert.InDelta(t, 5/DefaultAverageSpeedMPS, res.PickupTime, 1e-9)
	assert.Equal(t, model.Path{"B", "C"}, res.TripPath)
	assert.Equal(t, 5.0, res.TripDistance)
	assert.InDelta(t, 10/DefaultAverageSpeedMPS, res.TotalTime(), 1e-9)
	assert.False(t, res.DestinationUnreachable)
	assert.NoError(t, res.Warning())

	require.Len(t, res.Candidates, 2)
	assert.True(t, res.Candidates[1].Routable)
	assert.Equal(t, 8.0, res.Candidates[1].Distance)
	_, perr := uuid.Parse(res.RequestID)
	assert.NoError(t, perr, "request id should be generated")
}

func TestDispatch_CustomSpeed(t *testing.T) {
	c := newCoordinator(t, triangle(t), Config{AverageSpeedMPS: 2.5})
	res, err := c.Dispatch(Request{ID: "r1", Rider: posB, Destination: posC, Drivers: []model.Driver{{ID: "dA", Position: posA}}})
	require.NoError(t, err)
	assert.Equal(t, "r1", res.RequestID)
	assert.InDelta(t, 2.0, res.PickupTime, 1e-9)
	assert.InDelta(t, 2.0, res.TripTime, 1e-9)
}

func TestDispatch_NoDrivers(t *testing.T) {
	c := newCoordinator(t, triangle(t), Config{})
	_, err := c.Dispatch(Request{Rider: posB, Destination: posC})
	assert.ErrorIs(t, err, ErrNoDriverAvailable)
}

func TestDispatch_DriverAtRiderNodeIsSkipped(t *testing.T) {
	c := newCoordinator(t, triangle(t), Config{})
	res, err := c.Dispatch(Request{Rider: posB, Destination: posC, Drivers: []model.Driver{{ID: "here", Position: posB}}})
	assert.ErrorIs(t, err, ErrNoDriverAvailable)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "already at rider node", res.Candidates[0].Reason)
}

func TestDispatch_UnroutableDriverIsSkipped(t *testing.T) {
	c := newCoordinator(t, triangle(t), Config{})
	res, err := c.Dispatch(Request{
		Rider:       posB,
		Destination: posC,
		Drivers:     []model.Driver{{ID: "island", Position: posD}, {ID: "dC", Position: posC}},
	})
	require.NoError(t, err)
	assert.Equal(t, "dC", res.Driver.ID)
	assert.Equal(t, 1, res.DriverIndex)
	assert.Equal(t, "no route to rider", res.Candidates[0].Reason)
}

func TestDispatch_EmptyGraph(t *testing.T) {
	s, err := graph.New(nil, nil, graph.Options{})
	require.NoError(t, err)
	c := newCoordinator(t, s, Config{})
	_, err = c.Dispatch(Request{Rider: posB, Destination: posC, Drivers: []model.Driver{{ID: "d", Position: posA}}})
	assert.ErrorIs(t, err, ErrNoGraphNode)
	assert.ErrorIs(t, err, resolver.ErrNotFound)
}

func TestDispatch_UnreachableDestination(t *testing.T) {
	tests := []struct {
		name string
		dest model.Position
		trip model.Path
	}{
		{"isolated node", posD, nil},
		{"same node as rider", posB, model.Path{"B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoordinator(t, triangle(t), Config{})
			res, err := c.Dispatch(Request{Rider: posB, Destination: tt.dest, Drivers: []model.Driver{{ID: "dA", Position: posA}}})
			require.NoError(t, err)
			assert.Equal(t, "dA", res.Driver.ID)
			assert.True(t, res.DestinationUnreachable)
			assert.ErrorIs(t, res.Warning(), ErrUnreachableDestination)
			assert.Equal(t, tt.trip, res.TripPath)
			assert.Zero(t, res.TripTime)
			assert.Equal(t, events.OutcomePartial, Outcome(res, err))
		})
	}
}

func TestDispatch_TieBreak(t *testing.T) {
	drivers := []model.Driver{{ID: "first", Position: posA}, {ID: "second", Position: posA}}
	tests := []struct {
		tie  TieBreak
		want string
	}{
		{TieBreakFirst, "first"},
		{TieBreakLast, "second"},
	}
	for _, tt := range tests {
		t.Run(string(tt.tie), func(t *testing.T) {
			c := newCoordinator(t, triangle(t), Config{TieBreak: tt.tie})
			res, err := c.Dispatch(Request{Rider: posB, Destination: posC, Drivers: drivers})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Driver.ID)
		})
	}
}

type denyFilter string

func (f denyFilter) Allow(d model.Driver, _ model.Position) error {
	if d.ID == string(f) {
		return errors.New("denied")
	}
	return nil
}

func TestDispatch_Filters(t *testing.T) {
	drivers := []model.Driver{{ID: "dA", Position: posA}, {ID: "dC", Position: posC}}

	c := newCoordinator(t, triangle(t), Config{}, WithFilter(denyFilter("dA")))
	res, err := c.Dispatch(Request{Rider: posB, Destination: posC, Drivers: drivers})
	require.NoError(t, err)
	assert.Equal(t, "dC", res.Driver.ID)
	assert.Equal(t, "filtered: denied", res.Candidates[0].Reason)

	// Both drivers are about 111 km from the rider.
	c = newCoordinator(t, triangle(t), Config{MaxPickupRadiusM: 100_000})
	res, err = c.Dispatch(Request{Rider: posB, Destination: posC, Drivers: drivers})
	assert.ErrorIs(t, err, ErrNoDriverAvailable)
	assert.Len(t, res.Candidates, 2)
}

func TestNewCoordinator_Validation(t *testing.T) {
	s := triangle(t)
	_, err := NewCoordinator(nil, resolver.NewLinear(s), Config{})
	assert.Error(t, err)
	_, err = NewCoordinator(s, nil, Config{})
	assert.Error(t, err)
	_, err = NewCoordinator(s, resolver.NewLinear(s), Config{TieBreak: "random"})
	assert.Error(t, err)
	_, err = NewCoordinator(s, resolver.NewLinear(s), Config{AverageSpeedMPS: -1})
	assert.Error(t, err)
}

func TestDispatch_Observability(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)

	bus := eventbus.New()
	defer bus.Close()
	sub := bus.Subscribe()

	store, err := logging.NewJSONLStore(filepath.Join(t.TempDir(), "dispatch.jsonl"))
	require.NoError(t, err)

	sink := &recordingSink{}
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newCoordinator(t, triangle(t), Config{},
		WithMetrics(sink), WithBus(bus), WithLogStore(store),
		WithClock(func() time.Time { return fixed }))

	req := Request{ID: "req-1", Rider: posB, Destination: posC, Drivers: []model.Driver{{ID: "dA", Position: posA}, {ID: "dC", Position: posC}}}
	_, err = c.Dispatch(req)
	require.NoError(t, err)
	_, err = c.Dispatch(Request{ID: "req-2", Rider: posB, Destination: posC})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(dispatchTotal.WithLabelValues(events.OutcomeAssigned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(dispatchTotal.WithLabelValues(events.OutcomeNoDriver)))

	require.Len(t, sink.dispatches, 2)
	assert.Equal(t, "dA", sink.dispatches[0].DriverID)
	assert.Equal(t, 2, sink.dispatches[0].Routable)
	assert.Equal(t, fixed, sink.dispatches[0].Time)
	// two pickup searches and one trip search
	assert.Len(t, sink.searches, 3)

	select {
	case ev := <-sub:
		de, ok := ev.(events.DispatchEvent)
		require.True(t, ok)
		assert.Equal(t, "req-1", de.RequestID)
		assert.Equal(t, model.Path{"A", "B"}, de.PickupPath)
	case <-time.After(time.Second):
		t.Fatal("no dispatch event published")
	}

	recs, err := store.Query(context.Background(), logging.LogQuery{DriverID: "dC"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "req-1", recs[0].RequestID)
	assert.Equal(t, "dA", recs[0].DriverID)

	recs, err = store.Query(context.Background(), logging.LogQuery{Outcome: events.OutcomeNoDriver})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Error, "no driver available")
}
