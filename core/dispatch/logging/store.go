package logging

import (
	"context"
	"time"

	"github.com/kilianp07/ridedispatch/core/model"
)

// LogRecord captures one dispatch decision and its outcome.
type LogRecord struct {
	Timestamp   time.Time      `json:"timestamp"`
	RequestID   string         `json:"request_id"`
	Outcome     string         `json:"outcome"`
	Rider       model.Position `json:"rider"`
	Destination model.Position `json:"destination"`
	DriverID    string         `json:"driver_id,omitempty"`
	Candidates  []string       `json:"candidates,omitempty"`
	PickupPath  model.Path     `json:"pickup_path,omitempty"`
	TripPath    model.Path     `json:"trip_path,omitempty"`
	PickupTime  float64        `json:"pickup_time_s"`
	TripTime    float64        `json:"trip_time_s"`
	Error       string         `json:"error,omitempty"`
}

// LogQuery defines filters for retrieving records. Zero values match all.
type LogQuery struct {
	Start    time.Time
	End      time.Time
	DriverID string
	Outcome  string
}

// Match reports whether r satisfies the query. A driver filter matches the
// assigned driver as well as any evaluated candidate.
func (q LogQuery) Match(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Outcome != "" && r.Outcome != q.Outcome {
		return false
	}
	if q.DriverID == "" || r.DriverID == q.DriverID {
		return true
	}
	for _, id := range r.Candidates {
		if id == q.DriverID {
			return true
		}
	}
	return false
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}
