package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv applies STANDBYD_* environment overrides on top of cfg.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("STANDBYD_HOSTNAME"); v != "" {
		cfg.Node.Hostname = v
	}
	if v := os.Getenv("STANDBYD_NODE_LIST"); v != "" {
		cfg.Node.NodeList = v
	}
	if v := os.Getenv("STANDBYD_STANDBY_MARKER"); v != "" {
		cfg.Node.StandbyMarker = v
	}

	if d := envDuration("STANDBYD_HEARTBEAT_INTERVAL"); d > 0 {
		cfg.HA.HeartbeatInterval = d
	}
	if d := envDuration("STANDBYD_PRIORITY_WAIT_UNIT"); d > 0 {
		cfg.HA.PriorityWaitUnit = d
	}

	if p := envInt("STANDBYD_PROBE_PORT"); p > 0 {
		cfg.Probe.Port = p
	}
	if d := envDuration("STANDBYD_PROBE_TIMEOUT"); d > 0 {
		cfg.Probe.Timeout = d
	}

	if v := os.Getenv("STANDBYD_CHECKPOINT_DIR"); v != "" {
		cfg.Checkpoint.Dir = v
	}
	if v := os.Getenv("STANDBYD_SYNC_DIR"); v != "" {
		cfg.Checkpoint.SyncDir = v
	}

	if v := os.Getenv("STANDBYD_REMOTE_USER"); v != "" {
		cfg.Remote.User = v
	}
	if v := os.Getenv("STANDBYD_REMOTE_KEY"); v != "" {
		cfg.Remote.KeyPath = v
	}

	if p := envInt("STANDBYD_PORT"); p > 0 {
		cfg.Server.Port = p
	}
	if v := os.Getenv("STANDBYD_LOG_LEVEL"); v != "" {
		cfg.Server.LogLevel = v
	}
}

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

func envDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
