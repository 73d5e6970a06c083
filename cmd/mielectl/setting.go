package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Read and change appliance settings",
}

var settingGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Read one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingGet,
}

var settingSetCmd = &cobra.Command{
	Use:   "set <id> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingSet,
}

func init() {
	rootCmd.AddCommand(settingCmd)
	settingCmd.AddCommand(settingGetCmd)
	settingCmd.AddCommand(settingSetCmd)
}

func parseSettingID(arg string) (uint16, error) {
	id, err := strconv.ParseUint(arg, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid setting ID %q", arg)
	}
	return uint16(id), nil
}

func runSettingGet(cmd *cobra.Command, args []string) error {
	id, err := parseSettingID(args[0])
	if err != nil {
		return err
	}

	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	setting, err := client.GetSetting(cmd.Context(), device, id)
	if err != nil {
		return err
	}
	fmt.Printf("setting %d = %d (range %d..%d, default %d)\n",
		setting.ID, setting.Current, setting.Min, setting.Max, setting.Default)
	return nil
}

func runSettingSet(cmd *cobra.Command, args []string) error {
	id, err := parseSettingID(args[0])
	if err != nil {
		return err
	}
	value, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}

	client, cfg, err := newDOP2Client()
	if err != nil {
		return err
	}
	device, err := cfg.requireDevice()
	if err != nil {
		return err
	}

	if err := client.SetSetting(cmd.Context(), device, id, uint16(value)); err != nil {
		return err
	}
	fmt.Printf("setting %d set to %d\n", id, value)
	return nil
}
