// Package dispatch exposes the dispatch coordinator over HTTP.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	coredispatch "github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/infra/geojson"
	"github.com/kilianp07/ridedispatch/infra/logger"
)

// Dispatcher runs dispatch requests. Implemented by *coredispatch.Coordinator.
type Dispatcher interface {
	DispatchContext(ctx context.Context, req coredispatch.Request) (coredispatch.Result, error)
}

// DriverSource supplies drivers when a request does not list any.
type DriverSource interface {
	Snapshot(now time.Time) []model.Driver
}

// AssignmentHook is called after every request that assigned a driver.
type AssignmentHook func(req coredispatch.Request, res coredispatch.Result)

// Handler serves POST /api/dispatch.
type Handler struct {
	Dispatcher Dispatcher
	// Drivers is optional. Without it requests must carry their drivers.
	Drivers DriverSource
	// Graph resolves path nodes to coordinates for GeoJSON output.
	Graph      geojson.PositionLookup
	OnAssigned AssignmentHook
	Log        logger.Logger
}

type requestBody struct {
	ID          string          `json:"id"`
	Rider       *model.Position `json:"rider"`
	Destination *model.Position `json:"destination"`
	Drivers     []model.Driver  `json:"drivers"`
}

// Response is the JSON body of a successful dispatch.
type Response struct {
	coredispatch.Result
	TotalTime     float64 `json:"total_time_s"`
	PickupMinutes float64 `json:"pickup_time_min"`
	TripMinutes   float64 `json:"trip_time_min"`
	TotalMinutes  float64 `json:"total_time_min"`
	Warning       string  `json:"warning,omitempty"`
}

// NewResponse derives the minute fields and warning of res.
func NewResponse(res coredispatch.Result) Response {
	out := Response{
		Result:        res,
		TotalTime:     res.TotalTime(),
		PickupMinutes: res.PickupTime / 60,
		TripMinutes:   res.TripTime / 60,
		TotalMinutes:  res.TotalTime() / 60,
	}
	if w := res.Warning(); w != nil {
		out.Warning = w.Error()
	}
	return out
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body requestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, body.ID, "invalid body: "+err.Error())
		return
	}
	if body.Rider == nil || body.Destination == nil {
		writeError(w, http.StatusBadRequest, body.ID, "rider and destination are required")
		return
	}
	for name, p := range map[string]model.Position{"rider": *body.Rider, "destination": *body.Destination} {
		if err := p.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, body.ID, name+": "+err.Error())
			return
		}
	}
	req := coredispatch.Request{ID: body.ID, Rider: *body.Rider, Destination: *body.Destination, Drivers: body.Drivers}
	if len(req.Drivers) == 0 && h.Drivers != nil {
		req.Drivers = h.Drivers.Snapshot(time.Now())
	}

	res, err := h.Dispatcher.DispatchContext(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, coredispatch.ErrNoGraphNode) || errors.Is(err, coredispatch.ErrNoDriverAvailable) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, res.RequestID, err.Error())
		return
	}
	if h.OnAssigned != nil {
		h.OnAssigned(req, res)
	}

	if r.URL.Query().Get("format") == "geojson" && h.Graph != nil {
		w.Header().Set("Content-Type", "application/geo+json")
		if err := json.NewEncoder(w).Encode(geojson.FromResult(req, res, h.Graph)); err != nil {
			logger.OrNop(h.Log).Errorf("encode geojson: %v", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, NewResponse(res))
}
