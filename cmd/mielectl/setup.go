package main

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarthut/mielelocal/pkg/api"
	"github.com/smarthut/mielelocal/pkg/crypto"
	"github.com/smarthut/mielelocal/pkg/transport"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision fresh credentials on an appliance in commissioning mode",
	Long: `Generate a new group ID and group key, register them with the appliance
and print a config file snippet. The appliance must be in commissioning mode
(freshly connected to the network, before any other client registered).`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	if flagHost == "" {
		return fmt.Errorf("setup requires --host")
	}
	host := flagHost

	httpClient := &http.Client{Timeout: 10 * time.Second}
	deviceID, creds, err := api.Provision(cmd.Context(), httpClient, host,
		func(creds crypto.Credentials) (*api.Client, error) {
			tp, err := transport.NewClient(transport.Config{
				Host:          host,
				Credentials:   creds,
				LoggerFactory: loggerFactory(),
			})
			if err != nil {
				return nil, err
			}
			return api.NewClient(api.Config{
				Transport:     tp,
				LoggerFactory: loggerFactory(),
			})
		})
	if err != nil {
		return err
	}

	fmt.Println("# registration successful, save as mielectl.toml:")
	fmt.Printf("host      = %q\n", host)
	fmt.Printf("device    = %q\n", deviceID)
	fmt.Printf("group_id  = %q\n", hex.EncodeToString(creds.GroupID))
	fmt.Printf("group_key = %q\n", hex.EncodeToString(creds.GroupKey))
	return nil
}
