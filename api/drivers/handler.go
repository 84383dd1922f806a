// Package drivers exposes the fleet tracker over HTTP.
package drivers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/ridedispatch/core/events"
	"github.com/kilianp07/ridedispatch/core/fleet"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/internal/eventbus"
)

// Handler serves the driver endpoints:
//
//	GET  /api/drivers           tracked drivers in first-seen order
//	POST /api/drivers/position  position update for one driver
type Handler struct {
	Tracker *fleet.Tracker
	// Bus receives a PositionEvent for every accepted update. Optional.
	Bus eventbus.EventBus
}

// NewHandler creates a Handler for t.
func NewHandler(t *fleet.Tracker, bus eventbus.EventBus) *Handler {
	return &Handler{Tracker: t, Bus: bus}
}

// Register mounts the handler routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/drivers", h.list)
	mux.HandleFunc("/api/drivers/position", h.position)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	list := h.Tracker.List()
	if list == nil {
		list = []fleet.Status{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(list)
}

func (h *Handler) position(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var d model.Driver
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&d); err != nil {
		http.Error(w, "invalid body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := validate(d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.Tracker.Update(d)
	if h.Bus != nil {
		h.Bus.Publish(events.PositionEvent{Driver: d})
	}
	w.WriteHeader(http.StatusAccepted)
}

func validate(d model.Driver) error {
	if d.ID == "" {
		return errors.New("driver id is required")
	}
	return d.Position.Validate()
}
