package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/smarthut/mielelocal/pkg/api"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List appliances reported by the host",
	RunE:  runDevices,
}

var identCmd = &cobra.Command{
	Use:   "ident",
	Short: "Show the identification document of the configured device",
	RunE:  runIdent,
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the current state of the configured device",
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(identCmd)
	rootCmd.AddCommand(stateCmd)
}

func newAPIClient() (*api.Client, runtimeConfig, error) {
	tp, cfg, err := newTransport()
	if err != nil {
		return nil, runtimeConfig{}, err
	}
	client, err := api.NewClient(api.Config{
		Transport:     tp,
		LoggerFactory: loggerFactory(),
	})
	if err != nil {
		return nil, runtimeConfig{}, err
	}
	return client, cfg, nil
}

func runDevices(cmd *cobra.Command, _ []string) error {
	client, _, err := newAPIClient()
	if err != nil {
		return err
	}

	devices, err := client.ListDevices(cmd.Context())
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no devices found")
		return nil
	}

	ids := make([]string, 0, len(devices))
	for id := range devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		d := devices[id]
		fmt.Printf("%s  %-20s %-16s %s\n", d.ID, d.Name(), d.Ident.Type, d.State.Status)
	}
	return nil
}

func runIdent(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newAPIClient()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	ident, err := client.GetDeviceIdent(cmd.Context(), device)
	if err != nil {
		return err
	}
	fmt.Printf("Name:       %s\n", ident.DeviceName)
	fmt.Printf("Type:       %s (%s)\n", ident.Type, ident.TypeName)
	fmt.Printf("Tech type:  %s\n", ident.TechType)
	fmt.Printf("Fab number: %s\n", ident.FabNumber)
	return nil
}

func runState(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newAPIClient()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	state, err := client.GetDeviceState(cmd.Context(), device)
	if err != nil {
		return err
	}
	fmt.Printf("Status:    %s", state.Status)
	if state.StatusName != "" {
		fmt.Printf(" (%s)", state.StatusName)
	}
	fmt.Println()
	if state.ProgramID != 0 {
		fmt.Printf("Program:   %d", state.ProgramID)
		if state.ProgramType != "" {
			fmt.Printf(" (%s)", state.ProgramType)
		}
		fmt.Println()
	}
	if state.ProgramPhase != api.PhaseNotUsed {
		fmt.Printf("Phase:     %s", state.ProgramPhase)
		if state.PhaseName != "" {
			fmt.Printf(" (%s)", state.PhaseName)
		}
		fmt.Println()
	}
	if state.Status.Active() {
		fmt.Printf("Elapsed:   %d min\n", state.ElapsedTime)
		fmt.Printf("Remaining: %d min\n", state.RemainingTime)
		if state.StartTime > 0 {
			fmt.Printf("Starts in: %d min\n", state.StartTime)
		}
	}
	return nil
}
