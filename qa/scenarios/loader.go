// Package scenarios runs dispatch scenarios described in YAML files against
// the dispatch coordinator.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/graph"
	"github.com/kilianp07/ridedispatch/core/model"
)

type PointDef struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

func (p PointDef) ToModel() model.Position { return model.Position{Lat: p.Lat, Lon: p.Lon} }

type NodeDef struct {
	ID       string `yaml:"id"`
	PointDef `yaml:",inline"`
}

type EdgeDef struct {
	From string  `yaml:"from"`
	To   string  `yaml:"to"`
	Cost float64 `yaml:"cost"`
}

type DriverDef struct {
	ID       string `yaml:"id"`
	PointDef `yaml:",inline"`
}

type DispatchDef struct {
	AverageSpeedMPS  float64 `yaml:"average_speed_mps"`
	TieBreak         string  `yaml:"tie_break"`
	MaxPickupRadiusM float64 `yaml:"max_pickup_radius_m"`
}

func (d DispatchDef) ToConfig() dispatch.Config {
	return dispatch.Config{
		AverageSpeedMPS:  d.AverageSpeedMPS,
		TieBreak:         dispatch.TieBreak(d.TieBreak),
		MaxPickupRadiusM: d.MaxPickupRadiusM,
	}
}

// Expected lists the checks applied to the result. Empty fields are not checked.
type Expected struct {
	Outcome    string   `yaml:"outcome"`
	Driver     string   `yaml:"driver"`
	PickupPath []string `yaml:"pickup_path"`
	PickupCost *float64 `yaml:"pickup_cost"`
	TripPath   []string `yaml:"trip_path"`
	TripCost   *float64 `yaml:"trip_cost"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Nodes       []NodeDef   `yaml:"nodes"`
	Edges       []EdgeDef   `yaml:"edges"`
	Drivers     []DriverDef `yaml:"drivers"`
	Rider       PointDef    `yaml:"rider"`
	Destination PointDef    `yaml:"destination"`
	Dispatch    DispatchDef `yaml:"dispatch"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// Graph builds the scenario graph. Nodes keep their file order.
func (sc *Scenario) Graph() (*graph.Store, error) {
	nodes := make([]model.Node, len(sc.Nodes))
	for i, n := range sc.Nodes {
		nodes[i] = model.Node{ID: model.NodeID(n.ID), Position: n.ToModel()}
	}
	adj := map[model.NodeID][]model.Edge{}
	for _, e := range sc.Edges {
		from := model.NodeID(e.From)
		adj[from] = append(adj[from], model.Edge{To: model.NodeID(e.To), Cost: e.Cost})
	}
	return graph.New(nodes, adj, graph.Options{})
}

// Request builds the dispatch request.
func (sc *Scenario) Request() dispatch.Request {
	drivers := make([]model.Driver, len(sc.Drivers))
	for i, d := range sc.Drivers {
		drivers[i] = model.Driver{ID: d.ID, Position: d.ToModel()}
	}
	return dispatch.Request{
		ID:          sc.Name,
		Rider:       sc.Rider.ToModel(),
		Destination: sc.Destination.ToModel(),
		Drivers:     drivers,
	}
}
