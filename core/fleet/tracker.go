// Package fleet keeps the latest known position of every driver.
package fleet

import (
	"sync"
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// Assignment summarizes the last dispatch a driver received.
type Assignment struct {
	RequestID    string    `json:"request_id"`
	AssignmentID string    `json:"assignment_id"`
	Timestamp    time.Time `json:"timestamp"`
}

// Status is the tracked state of one driver.
type Status struct {
	Driver         model.Driver `json:"driver"`
	FirstSeen      time.Time    `json:"first_seen"`
	LastAssignment *Assignment  `json:"last_assignment,omitempty"`
}

// Tracker is a concurrency-safe store of driver positions. Snapshots list
// drivers in the order they were first seen so dispatch tie-breaks stay
// stable across requests.
type Tracker struct {
	mu     sync.RWMutex
	order  []string
	data   map[string]*Status
	maxAge time.Duration
	now    func() time.Time
}

// NewTracker returns an empty tracker. Positions older than maxAge are left
// out of snapshots; zero keeps them forever.
func NewTracker(maxAge time.Duration) *Tracker {
	return &Tracker{data: map[string]*Status{}, maxAge: maxAge, now: time.Now}
}

// Update stores d as the latest position of d.ID. A zero SeenAt is replaced
// by the current time. Updates older than the stored one are ignored.
func (t *Tracker) Update(d model.Driver) {
	if d.SeenAt.IsZero() {
		d.SeenAt = t.now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.data[d.ID]
	if !ok {
		t.order = append(t.order, d.ID)
		t.data[d.ID] = &Status{Driver: d, FirstSeen: d.SeenAt}
		return
	}
	if d.SeenAt.Before(st.Driver.SeenAt) {
		return
	}
	st.Driver = d
}

// RecordAssignment remembers the last assignment sent to a driver. Unknown
// drivers are ignored.
func (t *Tracker) RecordAssignment(driverID string, a Assignment) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.data[driverID]; ok {
		st.LastAssignment = &a
	}
}

// Snapshot returns the fresh drivers in first-seen order.
func (t *Tracker) Snapshot(now time.Time) []model.Driver {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make([]model.Driver, 0, len(t.order))
	for _, id := range t.order {
		d := t.data[id].Driver
		if t.maxAge > 0 && now.Sub(d.SeenAt) > t.maxAge {
			continue
		}
		res = append(res, d)
	}
	return res
}

// List returns the status of every tracked driver in first-seen order,
// including stale ones.
func (t *Tracker) List() []Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res := make([]Status, 0, len(t.order))
	for _, id := range t.order {
		st := *t.data[id]
		if st.LastAssignment != nil {
			a := *st.LastAssignment
			st.LastAssignment = &a
		}
		res = append(res, st)
	}
	return res
}

// Len returns the number of tracked drivers.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}
