package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GOCOM_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("GOCOM_DEVICE"); v != "" {
		cfg.Device = v
	}
	if v := envInt("GOCOM_BAUD"); v > 0 {
		cfg.Baud = v
	}
	if v := os.Getenv("GOCOM_FRAME"); v != "" {
		cfg.Frame = v
	}
	if v := envInt("GOCOM_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}

	// Remote console
	if v := os.Getenv("GOCOM_TCP"); v != "" {
		cfg.TCPAddr = v
	}
	if v := os.Getenv("GOCOM_SSH"); v != "" {
		cfg.SSHSpec = v
	}
	if v := os.Getenv("GOCOM_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("GOCOM_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("GOCOM_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GOCOM_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GOCOM_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Input handling
	if envBool("GOCOM_ECHO") {
		cfg.Echo = true
	}
	if envBool("GOCOM_FLUSH_ON_ENTER") {
		cfg.FlushOnEnter = true
	}

	// Device lifecycle
	if envBool("GOCOM_WATCH") {
		cfg.Watch = true
	}
	if envBool("GOCOM_AUTO_DISCONNECT") {
		cfg.AutoDisconnect = true
	}
	if v := envInt("GOCOM_WATCH_INTERVAL"); v > 0 {
		cfg.WatchInterval = secondsDuration(v)
	}

	// Output
	if v := envInt("GOCOM_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
