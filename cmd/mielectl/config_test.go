package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mielectl.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestResolveConfigFromFile(t *testing.T) {
	cfgPath = writeConfig(t, `
host = "192.168.1.50"
device = "000123456789"
group_id = "0011223344556677"
group_key = "`+strings.Repeat("ab", 64)+`"
timeout_seconds = 7
`)
	t.Cleanup(func() { cfgPath = "" })

	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Host != "192.168.1.50" {
		t.Errorf("Host = %q", cfg.Host)
	}
	if cfg.Device != "000123456789" {
		t.Errorf("Device = %q", cfg.Device)
	}
	if cfg.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if len(cfg.Credentials.GroupID) != 8 || len(cfg.Credentials.GroupKey) != 64 {
		t.Errorf("credentials not parsed: %d/%d bytes",
			len(cfg.Credentials.GroupID), len(cfg.Credentials.GroupKey))
	}
}

func TestResolveConfigMissingHost(t *testing.T) {
	cfgPath = writeConfig(t, `device = "000123456789"`)
	t.Cleanup(func() { cfgPath = "" })

	if _, err := resolveConfig(); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestResolveConfigBadCredentials(t *testing.T) {
	cfgPath = writeConfig(t, `
host = "192.168.1.50"
group_id = "zz"
group_key = "zz"
`)
	t.Cleanup(func() { cfgPath = "" })

	if _, err := resolveConfig(); err == nil {
		t.Fatal("expected error for malformed credentials")
	}
}

func TestResolveConfigExplicitMissingFile(t *testing.T) {
	cfgPath = filepath.Join(t.TempDir(), "absent.toml")
	t.Cleanup(func() { cfgPath = "" })

	if _, err := resolveConfig(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestResolveConfigFlagOverride(t *testing.T) {
	cfgPath = writeConfig(t, `host = "192.168.1.50"`)
	t.Cleanup(func() {
		cfgPath = ""
		flagHost = ""
		rootCmd.PersistentFlags().Lookup("host").Changed = false
	})

	if err := rootCmd.PersistentFlags().Set("host", "192.168.1.99"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	cfg, err := resolveConfig()
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Host != "192.168.1.99" {
		t.Errorf("Host = %q, want flag override", cfg.Host)
	}
}
