package main

import (
	"strings"

	"github.com/pion/logging"
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	flagHost     string
	flagDevice   string
	flagGroupID  string
	flagGroupKey string
	flagLogLevel string
	flagTimeout  int
	flagTLS      bool
)

var rootCmd = &cobra.Command{
	Use:   "mielectl",
	Short: "Talk to Miele appliances over the local network",
	Long: `mielectl - command line client for the Miele local HTTP API.

Appliances are addressed directly on the LAN; no cloud account is involved.
Credentials (group ID and group key) are provisioned once with "mielectl setup"
while the appliance is in commissioning mode, then stored in a TOML config:

  host      = "192.168.1.50"
  device    = "000123456789"
  group_id  = "0123456789abcdef"
  group_key = "<128 hex chars>"

Flags override config file values.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to TOML config file (default: mielectl.toml if present)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Appliance host (IP or hostname)")
	rootCmd.PersistentFlags().StringVarP(&flagDevice, "device", "d", "", "Device ID (serial number)")
	rootCmd.PersistentFlags().StringVar(&flagGroupID, "group-id", "", "Group ID in hex")
	rootCmd.PersistentFlags().StringVar(&flagGroupKey, "group-key", "", "Group key in hex")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "Request timeout in seconds")
	rootCmd.PersistentFlags().BoolVar(&flagTLS, "tls", false, "Use https instead of http")
}

func loggerFactory() logging.LoggerFactory {
	factory := logging.NewDefaultLoggerFactory()
	switch strings.ToLower(flagLogLevel) {
	case "trace":
		factory.DefaultLogLevel = logging.LogLevelTrace
	case "debug":
		factory.DefaultLogLevel = logging.LogLevelDebug
	case "info":
		factory.DefaultLogLevel = logging.LogLevelInfo
	case "error":
		factory.DefaultLogLevel = logging.LogLevelError
	default:
		factory.DefaultLogLevel = logging.LogLevelWarn
	}
	return factory
}
