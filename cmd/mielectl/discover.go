package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarthut/mielelocal/pkg/discovery"
)

var discoverTimeout int

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find appliances on the local network via mDNS",
	RunE:  runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().IntVar(&discoverTimeout, "browse-timeout", 10, "Seconds to browse for announcements")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	resolver, err := discovery.NewResolver(discovery.ResolverConfig{
		BrowseTimeout: time.Duration(discoverTimeout) * time.Second,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	results, err := resolver.Browse(ctx)
	if err != nil {
		return err
	}

	found := 0
	for appliance := range results {
		found++
		fmt.Printf("%-28s %s\n", appliance.InstanceName, appliance.Host())
	}
	if found == 0 {
		fmt.Println("no appliances found")
	}
	return nil
}
