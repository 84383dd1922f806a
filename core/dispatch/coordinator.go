package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/core/routing"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

// Search legs reported to metrics.
const (
	LegPickup = "pickup"
	LegTrip   = "trip"
)

// Coordinator selects the driver with the cheapest route to a rider and
// computes the onward trip. It is safe for concurrent use: every call works
// on its own search state and only reads the shared graph.
type Coordinator struct {
	store    *graph.Store
	resolver resolver.Resolver
	cfg      Config
	filter   DriverFilter
	logger   logger.Logger
	sink     metrics.MetricsSink
	bus      eventbus.EventBus
	logs     logging.LogStore
	now      func() time.Time
}

// Option configures optional collaborators of a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option { return func(c *Coordinator) { c.logger = logger.OrNop(l) } }

// WithMetrics sets the metrics sink. The sink also receives search records
// when it implements metrics.SearchRecorder.
func WithMetrics(s metrics.MetricsSink) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithBus publishes an events.DispatchEvent for every request.
func WithBus(b eventbus.EventBus) Option { return func(c *Coordinator) { c.bus = b } }

// WithLogStore appends a record for every request.
func WithLogStore(s logging.LogStore) Option { return func(c *Coordinator) { c.logs = s } }

// WithFilter replaces the driver filter derived from the configuration.
func WithFilter(f DriverFilter) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.filter = f
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(c *Coordinator) { c.now = now } }

// NewCoordinator returns a coordinator over store. Missing config values get
// defaults before validation.
func NewCoordinator(store *graph.Store, res resolver.Resolver, cfg Config, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, fmt.Errorf("dispatch: nil store provided to NewCoordinator")
	}
	if res == nil {
		return nil, fmt.Errorf("dispatch: nil resolver provided to NewCoordinator")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	c := &Coordinator{
		store:    store,
		resolver: res,
		cfg:      cfg,
		filter:   DefaultFilter(cfg),
		logger:   logger.Nop{},
		sink:     metrics.NopSink{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config { return c.cfg }

// Dispatch runs one request with a background context.
func (c *Coordinator) Dispatch(req Request) (Result, error) {
	return c.DispatchContext(context.Background(), req)
}

// DispatchContext runs one request. ctx only bounds the log store write; the
// searches themselves are not interruptible.
//
// The error is ErrNoGraphNode when rider or destination cannot be resolved
// and ErrNoDriverAvailable when no driver has a route of at least one edge to
// the rider. A result whose trip could not be routed is returned with a nil
// error and DestinationUnreachable set.
func (c *Coordinator) DispatchContext(ctx context.Context, req Request) (Result, error) {
	start := c.now()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	res, searches, err := c.run(req)
	res.Duration = c.now().Sub(start)
	c.report(ctx, req, res, searches, err, start)
	return res, err
}

func (c *Coordinator) run(req Request) (Result, []metrics.SearchRecord, error) {
	res := Result{RequestID: req.ID, DriverIndex: -1}

	riderNode, err := c.resolver.Resolve(req.Rider)
	if err != nil {
		return res, nil, fmt.Errorf("%w: rider %s: %w", ErrNoGraphNode, req.Rider, err)
	}
	destNode, err := c.resolver.Resolve(req.Destination)
	if err != nil {
		return res, nil, fmt.Errorf("%w: destination %s: %w", ErrNoGraphNode, req.Destination, err)
	}
	res.RiderNode, res.DestinationNode = riderNode, destNode

	searches := make([]metrics.SearchRecord, 0, len(req.Drivers)+1)
	best := -1
	var bestCost float64
	res.Candidates = make([]Candidate, 0, len(req.Drivers))
	for i, d := range req.Drivers {
		cand := Candidate{DriverID: d.ID, Index: i}
		if err := c.filter.Allow(d, req.Rider); err != nil {
			cand.Reason = "filtered: " + err.Error()
			res.Candidates = append(res.Candidates, cand)
			continue
		}
		node, err := c.resolver.Resolve(d.Position)
		if err != nil {
			cand.Reason = "unresolved: " + err.Error()
			res.Candidates = append(res.Candidates, cand)
			continue
		}
		cand.Node = node

		t0 := time.Now()
		route := routing.Search(c.store, node, riderNode)
		searches = append(searches, metrics.SearchRecord{
			Leg: LegPickup, Settled: route.Settled, Found: route.Found(), Duration: time.Since(t0),
		})
		cand.Settled = route.Settled
		if !route.Path.IsRoute() {
			if route.Found() {
				cand.Reason = "already at rider node"
			} else {
				cand.Reason = "no route to rider"
			}
			res.Candidates = append(res.Candidates, cand)
			continue
		}
		cand.Routable = true
		cand.Distance = routing.PathCost(route.Path, c.store)
		res.Candidates = append(res.Candidates, cand)

		if best < 0 || c.better(cand.Distance, bestCost) {
			best, bestCost = i, cand.Distance
			res.PickupPath = route.Path
		}
	}
	if best < 0 {
		return res, searches, fmt.Errorf("%w: %d drivers evaluated", ErrNoDriverAvailable, len(req.Drivers))
	}
	res.Driver = req.Drivers[best]
	res.DriverIndex = best
	res.PickupDistance = bestCost
	res.PickupTime = bestCost / c.cfg.AverageSpeedMPS

	t0 := time.Now()
	trip := routing.Search(c.store, riderNode, destNode)
	searches = append(searches, metrics.SearchRecord{
		Leg: LegTrip, Settled: trip.Settled, Found: trip.Found(), Duration: time.Since(t0),
	})
	res.TripPath = trip.Path
	if !trip.Path.IsRoute() {
		res.DestinationUnreachable = true
		return res, searches, nil
	}
	res.TripDistance = routing.PathCost(trip.Path, c.store)
	res.TripTime = res.TripDistance / c.cfg.AverageSpeedMPS
	return res, searches, nil
}

func (c *Coordinator) better(cost, best float64) bool {
	if c.cfg.TieBreak == TieBreakLast {
		return cost <= best
	}
	return cost < best
}

// Outcome classifies a dispatch result for metrics and events.
func Outcome(res Result, err error) string {
	switch {
	case errors.Is(err, ErrNoGraphNode):
		return events.OutcomeNoGraphNode
	case err != nil:
		return events.OutcomeNoDriver
	case res.DestinationUnreachable:
		return events.OutcomePartial
	default:
		return events.OutcomeAssigned
	}
}

func (c *Coordinator) report(ctx context.Context, req Request, res Result, searches []metrics.SearchRecord, err error, at time.Time) {
	outcome := Outcome(res, err)
	dispatchTotal.WithLabelValues(outcome).Inc()
	dispatchLatency.WithLabelValues(outcome).Observe(res.Duration.Seconds())
	for _, s := range searches {
		searchLatency.WithLabelValues(s.Leg).Observe(s.Duration.Seconds())
		settledNodes.WithLabelValues(s.Leg).Observe(float64(s.Settled))
	}

	routable := 0
	for _, cand := range res.Candidates {
		if cand.Routable {
			routable++
		}
	}
	switch outcome {
	case events.OutcomeAssigned:
		c.logger.Infof("dispatch %s: driver %s assigned, pickup %.1fs, trip %.1fs, total %.1f min",
			req.ID, res.Driver.ID, res.PickupTime, res.TripTime, res.TotalTime()/60)
	case events.OutcomePartial:
		c.logger.Warnf("dispatch %s: driver %s assigned but destination unreachable", req.ID, res.Driver.ID)
	default:
		c.logger.Warnf("dispatch %s failed: %v", req.ID, err)
	}
	c.logger.Debugw("dispatch candidates", map[string]any{
		"request_id": req.ID,
		"drivers":    len(req.Drivers),
		"routable":   routable,
	})

	rec := metrics.DispatchRecord{
		RequestID:              req.ID,
		Outcome:                outcome,
		DriverID:               res.Driver.ID,
		Candidates:             len(req.Drivers),
		Routable:               routable,
		PickupDistance:         res.PickupDistance,
		PickupTime:             res.PickupTime,
		TripDistance:           res.TripDistance,
		TripTime:               res.TripTime,
		DestinationUnreachable: res.DestinationUnreachable,
		Duration:               res.Duration,
		Time:                   at,
	}
	if serr := c.sink.RecordDispatch(rec); serr != nil {
		c.logger.Errorf("metrics sink: %v", serr)
	}
	if sr, ok := c.sink.(metrics.SearchRecorder); ok && len(searches) > 0 {
		if serr := sr.RecordSearch(searches); serr != nil {
			c.logger.Errorf("metrics sink: %v", serr)
		}
	}

	errText := ""
	if err != nil {
		errText = err.Error()
	} else if w := res.Warning(); w != nil {
		errText = w.Error()
	}
	if c.bus != nil {
		c.bus.Publish(events.DispatchEvent{
			RequestID:   req.ID,
			Outcome:     outcome,
			DriverID:    res.Driver.ID,
			Rider:       req.Rider,
			Destination: req.Destination,
			PickupPath:  res.PickupPath,
			TripPath:    res.TripPath,
			PickupTime:  res.PickupTime,
			TripTime:    res.TripTime,
			Error:       errText,
			Time:        at,
		})
	}
	if c.logs != nil {
		ids := make([]string, 0, len(req.Drivers))
		for _, d := range req.Drivers {
			ids = append(ids, d.ID)
		}
		lr := logging.LogRecord{
			Timestamp:   at,
			RequestID:   req.ID,
			Outcome:     outcome,
			Rider:       req.Rider,
			Destination: req.Destination,
			DriverID:    res.Driver.ID,
			Candidates:  ids,
			PickupPath:  res.PickupPath,
			TripPath:    res.TripPath,
			PickupTime:  res.PickupTime,
			TripTime:    res.TripTime,
			Error:       errText,
		}
		if lerr := c.logs.Append(ctx, lr); lerr != nil {
			c.logger.Errorf("dispatch log: %v", lerr)
		}
	}
}
