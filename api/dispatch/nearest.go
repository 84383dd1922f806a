package dispatch

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/core/resolver"
)

// NewNearestHandler serves GET /api/nearest?lat=&lon= with the closest graph node.
func NewNearestHandler(m resolver.Matcher) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
		lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
		if err := errors.Join(err1, err2); err != nil {
			writeError(w, http.StatusBadRequest, "", "lat and lon must be numbers")
			return
		}
		pos := model.Position{Lat: lat, Lon: lon}
		if err := pos.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "", err.Error())
			return
		}
		match, err := m.Nearest(pos)
		if errors.Is(err, resolver.ErrNotFound) {
			writeError(w, http.StatusNotFound, "", err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, match)
	})
}
