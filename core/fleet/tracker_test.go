package fleet

import (
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

func TestTracker_SnapshotKeepsFirstSeenOrder(t *testing.T) {
	tr := NewTracker(0)
	base := time.Now()
	tr.Update(model.Driver{ID: "b", SeenAt: base})
	tr.Update(model.Driver{ID: "a", SeenAt: base})
	tr.Update(model.Driver{ID: "b", Position: model.Position{Lat: 1}, SeenAt: base.Add(time.Second)})

	out := tr.Snapshot(base.Add(time.Hour))
	if len(out) != 2 || out[0].ID != "b" || out[1].ID != "a" {
		t.Fatalf("unexpected order: %#v", out)
	}
	if out[0].Position.Lat != 1 {
		t.Fatalf("position not updated")
	}
}

func TestTracker_IgnoresOutOfOrderUpdates(t *testing.T) {
	tr := NewTracker(0)
	base := time.Now()
	tr.Update(model.Driver{ID: "a", Position: model.Position{Lat: 2}, SeenAt: base})
	tr.Update(model.Driver{ID: "a", Position: model.Position{Lat: 1}, SeenAt: base.Add(-time.Second)})
	if got := tr.Snapshot(base)[0].Position.Lat; got != 2 {
		t.Fatalf("stale update applied: lat=%v", got)
	}
}

func TestTracker_DropsStalePositions(t *testing.T) {
	tr := NewTracker(time.Minute)
	base := time.Now()
	tr.Update(model.Driver{ID: "old", SeenAt: base.Add(-2 * time.Minute)})
	tr.Update(model.Driver{ID: "new", SeenAt: base})
	out := tr.Snapshot(base)
	if len(out) != 1 || out[0].ID != "new" {
		t.Fatalf("expected only fresh driver, got %#v", out)
	}
	if tr.Len() != 2 || len(tr.List()) != 2 {
		t.Fatalf("stale driver should remain listed")
	}
}

func TestTracker_RecordAssignment(t *testing.T) {
	tr := NewTracker(0)
	tr.Update(model.Driver{ID: "a"})
	tr.Update(model.Driver{ID: "b"})
	tr.RecordAssignment("a", Assignment{RequestID: "r1", AssignmentID: "x"})
	tr.RecordAssignment("ghost", Assignment{RequestID: "r2"})

	list := tr.List()
	if list[0].LastAssignment == nil || list[0].LastAssignment.RequestID != "r1" {
		t.Fatalf("assignment not recorded: %#v", list[0])
	}
	if list[1].LastAssignment != nil {
		t.Fatalf("unexpected assignment: %#v", list[1])
	}
	if tr.Len() != 2 {
		t.Fatalf("unknown driver must not be added, len=%d", tr.Len())
	}
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := NewTracker(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Update(model.Driver{ID: string(rune('a' + i))})
				_ = tr.Snapshot(time.Now())
			}
		}(i)
	}
	wg.Wait()
	if tr.Len() != 8 {
		t.Fatalf("expected 8 drivers, got %d", tr.Len())
	}
}
