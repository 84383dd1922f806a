package cmd

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	apidispatch "github.com/kilianp07/ridedispatch/api/dispatch"
	"github.com/kilianp07/ridedispatch/core/dispatch"
	"github.com/kilianp07/ridedispatch/core/model"
	"github.com/kilianp07/ridedispatch/infra/geojson"
	"github.com/kilianp07/ridedispatch/simulator"
)

var (
	dispatchRider   string
	dispatchDest    string
	dispatchDrivers []string
	dispatchGeoJSON bool
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch one ride request and print the result",
	Long: `Dispatch one ride request against the configured graph.

Without --driver, simulation.drivers drivers are scattered around the rider
using simulation.spread_deg and simulation.seed.`,
	Example: `  ridedispatch dispatch -c config.yaml --rider 48.8566,2.3522 --dest 48.8606,2.3376 \
    --driver d1=48.857,2.353 --driver d2=48.855,2.350`,
	RunE: runDispatch,
}

func init() {
	dispatchCmd.Flags().StringVar(&dispatchRider, "rider", "", "rider position as lat,lon")
	dispatchCmd.Flags().StringVar(&dispatchDest, "dest", "", "destination position as lat,lon")
	dispatchCmd.Flags().StringArrayVar(&dispatchDrivers, "driver", nil, "driver as id=lat,lon (repeatable)")
	dispatchCmd.Flags().BoolVar(&dispatchGeoJSON, "geojson", false, "print a GeoJSON FeatureCollection")
	_ = dispatchCmd.MarkFlagRequired("rider")
	_ = dispatchCmd.MarkFlagRequired("dest")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := notifyContext(cmd)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rider, err := parsePosition(dispatchRider)
	if err != nil {
		return err
	}
	dest, err := parsePosition(dispatchDest)
	if err != nil {
		return err
	}
	var drivers []model.Driver
	for _, s := range dispatchDrivers {
		d, err := parseDriver(s)
		if err != nil {
			return err
		}
		drivers = append(drivers, d)
	}
	if len(drivers) == 0 {
		sim := cfg.Simulation
		drivers = simulator.Scatter(rider, sim.Drivers, sim.Spread, rand.New(rand.NewSource(sim.Seed)))
	}

	o, err := loadOffline(ctx, cfg)
	if err != nil {
		return err
	}
	defer o.Close()
	req := dispatch.Request{Rider: rider, Destination: dest, Drivers: drivers}
	res, err := o.coord.DispatchContext(ctx, req)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if dispatchGeoJSON {
		return printJSON(cmd.OutOrStdout(), geojson.FromResult(req, res, o.store))
	}
	return printJSON(cmd.OutOrStdout(), apidispatch.NewResponse(res))
}
