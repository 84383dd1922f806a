package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/infra/logger"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
	"github.com/kilianp07/ridedispatch/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run seeded dispatch trials and print summary statistics",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Int("trials", 0, "number of trials (overrides simulation.trials)")
	f.Int("drivers", 0, "drivers per trial (overrides simulation.drivers)")
	f.Float64("spread", 0, "driver spread in degrees (overrides simulation.spread_deg)")
	f.Int64("seed", 0, "random seed (overrides simulation.seed)")
	f.Bool("publish", false, "publish simulated positions through MQTT")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx, stop := notifyContext(cmd)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sim := cfg.Simulation
	f := cmd.Flags()
	if f.Changed("trials") {
		sim.Trials, _ = f.GetInt("trials")
	}
	if f.Changed("drivers") {
		sim.Drivers, _ = f.GetInt("drivers")
	}
	if f.Changed("spread") {
		sim.Spread, _ = f.GetFloat64("spread")
	}
	if f.Changed("seed") {
		sim.Seed, _ = f.GetInt64("seed")
	}
	if f.Changed("publish") {
		sim.PublishPositions, _ = f.GetBool("publish")
	}
	if err := sim.Validate(); err != nil {
		return err
	}

	o, err := loadOffline(ctx, cfg)
	if err != nil {
		return err
	}
	defer o.Close()
	runner := simulator.NewRunner(o.store, o.coord, simulator.Config{
		Trials:  sim.Trials,
		Drivers: sim.Drivers,
		Spread:  sim.Spread,
		Seed:    sim.Seed,
	})
	runner.Log = logger.New("simulator")
	if sim.PublishPositions {
		if !cfg.MQTTEnabled() {
			return fmt.Errorf("publishing positions requires mqtt.broker")
		}
		client, err := mqtt.NewPahoClient(cfg.MQTT, nil)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		defer client.Disconnect()
		runner.Publisher = client
	}
	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rep)
}
