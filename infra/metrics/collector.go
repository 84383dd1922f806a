package metrics

import (
	"context"

	"github.com/kilianp07/ridedispatch/core/events"
	coremetrics "github.com/kilianp07/ridedispatch/core/metrics"
	"github.com/kilianp07/ridedispatch/infra/logger"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and reports the fleet size
// to sink after every position event. size is typically fleet.Tracker.Len.
// It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, size func() int) {
	if bus == nil || sink == nil || size == nil {
		return
	}
	rec, ok := sink.(coremetrics.FleetSizeRecorder)
	if !ok {
		return
	}
	log := logger.New("event-collector")
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if _, isPos := ev.(events.PositionEvent); !isPos {
					continue
				}
				if err := rec.RecordFleetSize(size()); err != nil {
					log.Warnf("record fleet size: %v", err)
				}
			}
		}
	}()
}
