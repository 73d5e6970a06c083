package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Dump the program catalog of the device",
	RunE:  runCatalog,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lifetime consumption counters",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(statsCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	catalog, err := client.ProgramCatalog(cmd.Context(), device)
	if err != nil {
		return err
	}

	fmt.Printf("catalog family: %s, %d programs\n", catalog.Family, len(catalog.Programs))
	for _, program := range catalog.Programs {
		fmt.Printf("  [%d] %s\n", program.ID, program.Name)
		for _, option := range program.Options {
			fmt.Printf("      option %d %s default=%d", option.ID, option.Name, option.Default)
			if len(option.Allowed) > 0 {
				fmt.Printf(" allowed=%v", option.Allowed)
			} else if option.Max > option.Min {
				fmt.Printf(" range=%d..%d", option.Min, option.Max)
			}
			fmt.Println()
		}
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	stats := client.ConsumptionStats(cmd.Context(), device)
	printed := false
	if stats.Hours != nil {
		fmt.Printf("Operating hours: %d\n", *stats.Hours)
		printed = true
	}
	if stats.Cycles != nil {
		fmt.Printf("Cycles:          %d\n", *stats.Cycles)
		printed = true
	}
	if stats.EnergyWh != nil {
		fmt.Printf("Energy:          %d Wh\n", *stats.EnergyWh)
		printed = true
	}
	if stats.WaterL != nil {
		fmt.Printf("Water:           %d l\n", *stats.WaterL)
		printed = true
	}
	if !printed {
		fmt.Println("no consumption counters available")
	}
	return nil
}
