package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Node       NodeConfig       `yaml:"node"`
	HA         HAConfig         `yaml:"ha"`
	Probe      ProbeConfig      `yaml:"probe"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Remote     RemoteConfig     `yaml:"remote"`
	Server     ServerConfig     `yaml:"server"`
}

type NodeConfig struct {
	// Hostname overrides the OS-reported FQDN used to locate this node in
	// the node list. Leave empty to use os.Hostname.
	Hostname string `yaml:"hostname"`
	// NodeList is the path to the ordered standby list, one FQDN per line,
	// lowest index = highest priority.
	NodeList string `yaml:"node_list" validate:"required"`
	// StandbyMarker, if the file exists at startup, pins this node as a
	// dedicated standby that never self-promotes.
	StandbyMarker string `yaml:"standby_marker"`
}

type HAConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" validate:"gt=0"`
	PriorityWaitUnit  time.Duration `yaml:"priority_wait_unit" validate:"gt=0"`
}

type ProbeConfig struct {
	Scheme  string        `yaml:"scheme" validate:"oneof=http https"`
	Port    int           `yaml:"port" validate:"gt=0,lte=65535"`
	Path    string        `yaml:"path" validate:"required,startswith=/"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type CheckpointConfig struct {
	// Dir holds the canonical checkpoints written by the active instance.
	Dir string `yaml:"dir" validate:"required"`
	// SyncDir is where pulled per-host archives land, named
	// chkpt_synch.<host>.<seq>.tgz.
	SyncDir string `yaml:"sync_dir" validate:"required"`
	// SyncCommand is executed on the target host to force a checkpoint
	// synchronization.
	SyncCommand string `yaml:"sync_command" validate:"required"`
}

type RemoteConfig struct {
	User           string        `yaml:"user" validate:"required"`
	KeyPath        string        `yaml:"key_path"`
	Port           int           `yaml:"port" validate:"gt=0,lte=65535"`
	CommandTimeout time.Duration `yaml:"command_timeout" validate:"gt=0"`
	// ActivateCommand and DeactivateCommand start and stop a service
	// instance on the host they run on. Both must be idempotent.
	ActivateCommand   string `yaml:"activate_command" validate:"required"`
	DeactivateCommand string `yaml:"deactivate_command" validate:"required"`
}

type ServerConfig struct {
	Port     int    `yaml:"port" validate:"gt=0,lte=65535"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration with every knob at its default.
func Default() *Config {
	return &Config{
		HA: HAConfig{
			HeartbeatInterval: 5 * time.Second,
			PriorityWaitUnit:  5 * time.Second,
		},
		Probe: ProbeConfig{
			Scheme:  "http",
			Port:    29444,
			Path:    "/api/ping",
			Timeout: 3 * time.Second,
		},
		Checkpoint: CheckpointConfig{
			Dir:         "/var/lib/standbyd/chkpt",
			SyncDir:     "/var/lib/standbyd",
			SyncCommand: "/usr/bin/standbyd-synch",
		},
		Remote: RemoteConfig{
			User:              "standby",
			Port:              22,
			CommandTimeout:    30 * time.Second,
			ActivateCommand:   "/usr/bin/standbyd-activate",
			DeactivateCommand: "/usr/bin/standbyd-deactivate",
		},
		Server: ServerConfig{
			Port:     7009,
			LogLevel: "info",
		},
	}
}

// Load reads the yaml file at path over the defaults, applies environment
// overrides, and validates the result. An empty path skips the file and uses
// defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	LoadFromEnv(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
