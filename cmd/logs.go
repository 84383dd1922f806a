package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/app/plugins"
	"github.com/kilianp07/ridedispatch/core/dispatch/logging"
	"github.com/kilianp07/ridedispatch/pkg/export"
)

var (
	logsFormat string
	logsQuery  struct {
		driver, outcome, start, end string
	}
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Dispatch log commands",
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print dispatch log records as JSON or CSV",
	RunE:  runLogsExport,
}

func init() {
	f := logsExportCmd.Flags()
	f.StringVar(&logsFormat, "format", "json", "output format: json or csv")
	f.StringVar(&logsQuery.driver, "driver", "", "only records involving this driver")
	f.StringVar(&logsQuery.outcome, "outcome", "", "only records with this outcome")
	f.StringVar(&logsQuery.start, "start", "", "RFC3339 lower time bound")
	f.StringVar(&logsQuery.end, "end", "", "RFC3339 upper time bound")
	logsCmd.AddCommand(logsExportCmd)
	rootCmd.AddCommand(logsCmd)
}

func runLogsExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	q := logging.LogQuery{DriverID: logsQuery.driver, Outcome: logsQuery.outcome}
	if q.Start, err = parseTime(logsQuery.start); err != nil {
		return err
	}
	if q.End, err = parseTime(logsQuery.end); err != nil {
		return err
	}
	store, err := plugins.NewLogStore(cfg.Logging)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("dispatch logging is disabled (logging.backend: none)")
	}
	defer func() { _ = store.Close() }()
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	switch logsFormat {
	case "csv":
		return export.WriteCSV(cmd.OutOrStdout(), recs)
	case "json":
		return export.WriteJSON(cmd.OutOrStdout(), recs)
	default:
		return fmt.Errorf("unknown format %q", logsFormat)
	}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
