package dispatch

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/pkg/export"
)

// NewLogHandler returns an HTTP handler exposing dispatch logs via GET /api/dispatch/logs.
// Supported filters: start and end (RFC3339), driver_id and outcome.
// format=csv switches the output from a JSON array to CSV.
func NewLogHandler(store logging.LogStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := logging.LogQuery{
			DriverID: r.URL.Query().Get("driver_id"),
			Outcome:  r.URL.Query().Get("outcome"),
		}
		for _, f := range []struct {
			name string
			dst  *time.Time
		}{{"start", &q.Start}, {"end", &q.End}} {
			s := r.URL.Query().Get(f.name)
			if s == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "", "invalid "+f.name+": "+err.Error())
				return
			}
			*f.dst = t
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "", err.Error())
			return
		}
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			_ = export.WriteCSV(w, records)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = export.WriteJSON(w, records)
	})
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, requestID, msg string) {
	writeJSON(w, status, errorBody{Error: msg, RequestID: requestID})
}
