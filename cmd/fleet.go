package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ridedispatch/core/fleet"
	"github.com/kilianp07/ridedispatch/infra/mqtt"
)

var fleetWait time.Duration

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "Listen to driver positions on MQTT and list the drivers seen",
	RunE:  runFleetLs,
}

func init() {
	fleetLsCmd.Flags().DurationVar(&fleetWait, "wait", 2*time.Second, "how long to listen")
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, _ []string) error {
	ctx, stop := notifyContext(cmd)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.MQTTEnabled() {
		return fmt.Errorf("fleet ls requires mqtt.broker")
	}
	mqttCfg := cfg.MQTT
	suffix := time.Now().UnixNano()
	if mqttCfg.ClientID != "" {
		mqttCfg.ClientID = fmt.Sprintf("%s-%d", mqttCfg.ClientID, suffix)
	} else {
		mqttCfg.ClientID = fmt.Sprintf("fleet-ls-%d", suffix)
	}
	tracker := fleet.NewTracker(0)
	client, err := mqtt.NewPahoClient(mqttCfg, tracker.Update)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	select {
	case <-ctx.Done():
	case <-time.After(fleetWait):
	}
	for _, st := range tracker.List() {
		d := st.Driver
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.ID, d.Position, d.SeenAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	return nil
}
