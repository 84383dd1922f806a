package scenarios

import (
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/resolver"
	"github.com/kilianp07/ridedispatch/infra/metrics"
)

const assignmentsHeader = `# HELP ridedispatch_driver_assignments_total Number of requests assigned to each driver
# TYPE ridedispatch_driver_assignments_total counter
`

// RunScenario dispatches the scenario request with both resolvers and checks
// the expectations.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	store, err := sc.Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	resolvers := map[string]resolver.Resolver{
		"linear": resolver.NewLinear(store),
		"rtree":  resolver.NewRTree(store),
	}
	for name, res := range resolvers {
		t.Run(name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			sink, err := metrics.NewPromSinkWithRegistry(reg)
			if err != nil {
				t.Fatalf("prom sink: %v", err)
			}
			coord, err := dispatch.NewCoordinator(store, res, sc.Dispatch.ToConfig(), dispatch.WithMetrics(sink))
			if err != nil {
				t.Fatalf("coordinator: %v", err)
			}
			result, derr := coord.Dispatch(sc.Request())
			check(t, sc, coord.Config(), result, derr)

			want := ""
			if sc.Expected.Driver != "" {
				want = assignmentsHeader + fmt.Sprintf("ridedispatch_driver_assignments_total{driver_id=%q} 1\n", sc.Expected.Driver)
			}
			if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "ridedispatch_driver_assignments_total"); err != nil {
				t.Errorf("assignment metric: %v", err)
			}
		})
	}
}

func check(t *testing.T, sc *Scenario, cfg dispatch.Config, res dispatch.Result, err error) {
	t.Helper()
	exp := sc.Expected
	if exp.Outcome != "" {
		if got := dispatch.Outcome(res, err); got != exp.Outcome {
			t.Fatalf("outcome = %s, want %s (err %v)", got, exp.Outcome, err)
		}
	}
	if res.Driver.ID != exp.Driver {
		t.Errorf("driver = %q, want %q", res.Driver.ID, exp.Driver)
	}
	if exp.PickupPath != nil && !samePath(res.PickupPath, exp.PickupPath) {
		t.Errorf("pickup path = %v, want %v", res.PickupPath, exp.PickupPath)
	}
	if exp.TripPath != nil && !samePath(res.TripPath, exp.TripPath) {
		t.Errorf("trip path = %v, want %v", res.TripPath, exp.TripPath)
	}
	if exp.PickupCost != nil {
		if !near(res.PickupDistance, *exp.PickupCost) {
			t.Errorf("pickup cost = %v, want %v", res.PickupDistance, *exp.PickupCost)
		}
		if !near(res.PickupTime, *exp.PickupCost/cfg.AverageSpeedMPS) {
			t.Errorf("pickup time = %v, want %v", res.PickupTime, *exp.PickupCost/cfg.AverageSpeedMPS)
		}
	}
	if exp.TripCost != nil && !near(res.TripDistance, *exp.TripCost) {
		t.Errorf("trip cost = %v, want %v", res.TripDistance, *exp.TripCost)
	}
}

func samePath(got model.Path, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if string(got[i]) != want[i] {
			return false
		}
	}
	return true
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
