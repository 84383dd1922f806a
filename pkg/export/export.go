// Package export writes dispatch log records for offline analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/core/model"
)

// CSVHeader lists the columns written by WriteCSV.
var CSVHeader = []string{
	"timestamp", "request_id", "outcome", "driver_id",
	"rider_lat", "rider_lon", "dest_lat", "dest_lon",
	"pickup_time_s", "trip_time_s", "pickup_path", "trip_path", "candidates", "error",
}

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, recs []logging.LogRecord) error {
	if recs == nil {
		recs = []logging.LogRecord{}
	}
	return json.NewEncoder(w).Encode(recs)
}

// WriteCSV writes the records to w, one row per dispatch. Paths and
// candidate lists are joined with spaces.
func WriteCSV(w io.Writer, recs []logging.LogRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range recs {
		row := []string{
			r.Timestamp.Format(time.RFC3339Nano),
			r.RequestID,
			r.Outcome,
			r.DriverID,
			ftoa(r.Rider.Lat), ftoa(r.Rider.Lon),
			ftoa(r.Destination.Lat), ftoa(r.Destination.Lon),
			ftoa(r.PickupTime), ftoa(r.TripTime),
			joinPath(r.PickupPath), joinPath(r.TripPath),
			strings.Join(r.Candidates, " "),
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func joinPath(p model.Path) string {
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = string(id)
	}
	return strings.Join(parts, " ")
}
