package simulator

import (
	"context"
	"errors"
	"math/rand"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
)

// ErrEmptyGraph is returned when there are no nodes to draw requests from.
var ErrEmptyGraph = errors.New("simulator: graph has no nodes")

// Dispatcher runs one request. Implemented by *dispatch.Coordinator.
type Dispatcher interface {
	DispatchContext(ctx context.Context, req dispatch.Request) (dispatch.Result, error)
}

// NodeSource lists the nodes riders and destinations are drawn from.
type NodeSource interface {
	Nodes() []model.Node
}

// Config parameterizes a run.
type Config struct {
	Trials  int
	Drivers int
	// Spread is the side in degrees of the square drivers are scattered in
	// around the rider.
	Spread float64
	Seed   int64
}

// Runner executes seeded dispatch trials.
type Runner struct {
	nodes      NodeSource
	dispatcher Dispatcher
	cfg        Config
	// Publisher, when set, receives every simulated driver position.
	Publisher coremqtt.Client
	Log       logger.Logger
}

// NewRunner creates a Runner.
func NewRunner(nodes NodeSource, d Dispatcher, cfg Config) *Runner {
	return &Runner{nodes: nodes, dispatcher: d, cfg: cfg}
}

// Run executes the configured number of trials. Each trial picks a random
// rider node and a distinct destination node (when the graph has more than
// one), scatters drivers around the rider and dispatches. The same seed
// yields the same report. Run stops early with ctx.Err() when ctx is done.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	nodes := r.nodes.Nodes()
	if len(nodes) == 0 {
		return Report{}, ErrEmptyGraph
	}
	log := logger.OrNop(r.Log)
	rng := rand.New(rand.NewSource(r.cfg.Seed))
	rep := Report{Outcomes: map[string]int{}, Drivers: map[string]int{}}
	var pickup, trip, total []float64

	for i := 0; i < r.cfg.Trials; i++ {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rider := nodes[rng.Intn(len(nodes))]
		dest := rider
		if len(nodes) > 1 {
			for dest.ID == rider.ID {
				dest = nodes[rng.Intn(len(nodes))]
			}
		}
		drivers := Scatter(rider.Position, r.cfg.Drivers, r.cfg.Spread, rng)
		r.publish(drivers, log)

		res, err := r.dispatcher.DispatchContext(ctx, dispatch.Request{
			Rider:       rider.Position,
			Destination: dest.Position,
			Drivers:     drivers,
		})
		rep.Trials++
		rep.Outcomes[dispatch.Outcome(res, err)]++
		if err != nil {
			log.Debugf("trial %d: %v", i, err)
			continue
		}
		rep.Drivers[res.Driver.ID]++
		pickup = append(pickup, res.PickupTime)
		if !res.DestinationUnreachable {
			trip = append(trip, res.TripTime)
			total = append(total, res.TotalTime())
		}
	}
	rep.Pickup = Summarize(pickup)
	rep.Trip = Summarize(trip)
	rep.Total = Summarize(total)
	return rep, nil
}

func (r *Runner) publish(drivers []model.Driver, log logger.Logger) {
	if r.Publisher == nil {
		return
	}
	for _, d := range drivers {
		if err := r.Publisher.PublishPosition(d); err != nil {
			log.Warnf("publish position %s: %v", d.ID, err)
		}
	}
}
