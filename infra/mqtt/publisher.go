package mqtt

import (
	"fmt"
	"sync"

	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockPublisher records published messages in memory. Used in tests and by
// the simulator when no broker is configured.
type MockPublisher struct {
	Assignments []coremqtt.Assignment
	Positions   []model.Driver
	FailIDs     map[string]bool
	mu          sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailIDs: make(map[string]bool)}
}

// SendAssignment records the assignment or returns an error if configured to fail.
func (m *MockPublisher) SendAssignment(a coremqtt.Assignment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[a.DriverID] {
		return "", fmt.Errorf("publish failed")
	}
	if a.AssignmentID == "" {
		a.AssignmentID = fmt.Sprintf("asg-%s-%d", a.DriverID, len(m.Assignments))
	}
	m.Assignments = append(m.Assignments, a)
	return a.AssignmentID, nil
}

// PublishPosition records the position.
func (m *MockPublisher) PublishPosition(d model.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[d.ID] {
		return fmt.Errorf("publish failed")
	}
	m.Positions = append(m.Positions, d)
	return nil
}

// Snapshot returns copies of the recorded messages.
func (m *MockPublisher) Snapshot() ([]coremqtt.Assignment, []model.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Assignment(nil), m.Assignments...), append([]model.Driver(nil), m.Positions...)
}
