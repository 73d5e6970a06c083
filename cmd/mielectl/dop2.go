package main

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smarthut/mielelocal/pkg/dop2"
)

var (
	readIdx1 int
	readIdx2 int
	readRaw  bool

	detectForce bool
)

var readCmd = &cobra.Command{
	Use:   "read <unit> <attribute>",
	Short: "Read one DOP2 leaf",
	Args:  cobra.ExactArgs(2),
	RunE:  runRead,
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect the device generation",
	RunE:  runDetect,
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Walk the known DOP2 leaves of the device",
	RunE:  runExplore,
}

func init() {
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(exploreCmd)

	readCmd.Flags().IntVar(&readIdx1, "idx1", 0, "First leaf index")
	readCmd.Flags().IntVar(&readIdx2, "idx2", 0, "Second leaf index")
	readCmd.Flags().BoolVar(&readRaw, "raw", false, "Print the raw payload instead of decoding")

	detectCmd.Flags().BoolVar(&detectForce, "force", false, "Re-probe even when a cached result exists")
}

func runRead(cmd *cobra.Command, args []string) error {
	unit, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid unit %q", args[0])
	}
	attribute, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid attribute %q", args[1])
	}

	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	addr := dop2.At(unit, attribute).WithIndex(readIdx1, readIdx2)
	if readRaw {
		payload, err := client.ReadLeaf(cmd.Context(), device, addr)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %d bytes\n%s\n", addr, len(payload), hex.Dump(payload))
		return nil
	}

	value, err := client.ReadDecoded(cmd.Context(), device, addr)
	if err != nil {
		return err
	}
	printValue(addr, value)
	return nil
}

func runDetect(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	var gen fmt.Stringer
	if detectForce {
		gen = client.ForceDetectGeneration(cmd.Context(), device)
	} else {
		gen = client.DetectGeneration(cmd.Context(), device)
	}
	fmt.Println(gen)
	return nil
}

func runExplore(cmd *cobra.Command, _ []string) error {
	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	tree, err := dop2.NewExplorer(client).ExploreDevice(cmd.Context(), device)
	if err != nil {
		return err
	}

	units := make([]int, 0, len(tree.Leaves))
	for unit := range tree.Leaves {
		units = append(units, unit)
	}
	sort.Ints(units)

	for _, unit := range units {
		attributes := make([]int, 0, len(tree.Leaves[unit]))
		for attribute := range tree.Leaves[unit] {
			attributes = append(attributes, attribute)
		}
		sort.Ints(attributes)
		for _, attribute := range attributes {
			printValue(dop2.At(unit, attribute), tree.Leaves[unit][attribute])
		}
	}
	return nil
}

func printValue(addr dop2.Address, value dop2.Value) {
	switch v := value.(type) {
	case dop2.RawValue:
		fmt.Printf("%s  raw %d bytes: %x\n", addr, len(v), []byte(v))
	case dop2.SettingValue:
		fmt.Printf("%s  setting %d = %d (range %d..%d, default %d)\n",
			addr, v.ID, v.Current, v.Min, v.Max, v.Default)
	case dop2.HoursOfOperation:
		fmt.Printf("%s  %d operating hours\n", addr, uint32(v))
	case dop2.CycleCounter:
		fmt.Printf("%s  %d cycles\n", addr, uint32(v))
	default:
		fmt.Printf("%s  %+v\n", addr, value)
	}
}
