package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/smarthut/mielelocal/pkg/crypto"
	"github.com/smarthut/mielelocal/pkg/dop2"
	"github.com/smarthut/mielelocal/pkg/transport"
)

// defaultConfigPath is tried when --config is not given; a missing file is
// not an error in that case.
const defaultConfigPath = "mielectl.toml"

type fileConfig struct {
	Host           string `toml:"host"`
	Device         string `toml:"device"`
	GroupID        string `toml:"group_id"`
	GroupKey       string `toml:"group_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	TLS            bool   `toml:"tls"`
}

type runtimeConfig struct {
	Host        string
	Device      string
	Credentials crypto.Credentials
	Timeout     time.Duration
	TLS         bool
}

// resolveConfig merges the TOML config file with command line flags; flags
// win where both are set.
func resolveConfig() (runtimeConfig, error) {
	path := cfgPath
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !os.IsNotExist(err) || explicit {
			return runtimeConfig{}, fmt.Errorf("load config %s: %w", path, err)
		}
		meta = toml.MetaData{}
	}

	cfg := runtimeConfig{
		Host:   strings.TrimSpace(raw.Host),
		Device: strings.TrimSpace(raw.Device),
		TLS:    raw.TLS,
	}
	if meta.IsDefined("timeout_seconds") {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}

	groupID := strings.TrimSpace(raw.GroupID)
	groupKey := strings.TrimSpace(raw.GroupKey)

	flags := rootCmd.PersistentFlags()
	if flags.Changed("host") {
		cfg.Host = flagHost
	}
	if flags.Changed("device") {
		cfg.Device = flagDevice
	}
	if flags.Changed("group-id") {
		groupID = flagGroupID
	}
	if flags.Changed("group-key") {
		groupKey = flagGroupKey
	}
	if flags.Changed("timeout") {
		cfg.Timeout = time.Duration(flagTimeout) * time.Second
	}
	if flags.Changed("tls") {
		cfg.TLS = flagTLS
	}

	if cfg.Host == "" {
		return runtimeConfig{}, errors.New("no appliance host configured (use --host or a config file)")
	}
	if groupID != "" || groupKey != "" {
		creds, err := crypto.ParseCredentials(groupID, groupKey)
		if err != nil {
			return runtimeConfig{}, err
		}
		cfg.Credentials = creds
	}
	return cfg, nil
}

// requireDevice returns the configured device ID or an error when none is
// set anywhere.
func (c runtimeConfig) requireDevice() (string, error) {
	if c.Device == "" {
		return "", errors.New("no device ID configured (use --device or a config file)")
	}
	return c.Device, nil
}

func newTransport() (*transport.Client, runtimeConfig, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, runtimeConfig{}, err
	}
	client, err := transport.NewClient(transport.Config{
		Host:          cfg.Host,
		Credentials:   cfg.Credentials,
		TLS:           cfg.TLS,
		Timeout:       cfg.Timeout,
		LoggerFactory: loggerFactory(),
	})
	if err != nil {
		return nil, runtimeConfig{}, err
	}
	return client, cfg, nil
}

func newDOP2Client() (*dop2.Client, runtimeConfig, error) {
	tp, cfg, err := newTransport()
	if err != nil {
		return nil, runtimeConfig{}, err
	}
	client, err := dop2.NewClient(dop2.Config{
		Transport:     tp,
		LoggerFactory: loggerFactory(),
	})
	if err != nil {
		return nil, runtimeConfig{}, err
	}
	return client, cfg, nil
}
