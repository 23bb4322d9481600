package config

import (
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Log             LogConfig      `yaml:"log"`
	Loop            LoopConfig     `yaml:"loop"`
	Door            DoorConfig     `yaml:"door"`
	Lights          LightsConfig   `yaml:"lights"`
	Hardware        HardwareConfig `yaml:"hardware"`
	EventBus        EventBusConfig `yaml:"eventbus"`
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the log level with default
func (c *LogConfig) GetLevel() string {
	if c.Level == "" {
		return "info"
	}
	return c.Level
}

// LoopConfig contains control-loop pacing settings
type LoopConfig struct {
	TickInterval Duration `yaml:"tick_interval"` // Time between control-loop ticks
}

// DoorConfig contains door cycle settings. Durations default to a 5s
// hold, a 200ms grant pulse and a 300ms open beep.
type DoorConfig struct {
	StepCount  int      `yaml:"step_count"`  // Actuator steps to open (closing negates)
	HoldOpen   Duration `yaml:"hold_open"`   // How long the door stays open
	GrantPulse Duration `yaml:"grant_pulse"` // Grant feedback pulse duration
	OpenBeep   Duration `yaml:"open_beep"`   // Open-announcement beep duration
}

// LightsConfig contains light automation settings
type LightsConfig struct {
	Threshold int `yaml:"threshold"` // Sensor reading at or below which lights turn on
}

// HardwareConfig selects and configures the hardware backend
type HardwareConfig struct {
	Backend string    `yaml:"backend"` // Only "sim" is built in
	Sim     SimConfig `yaml:"sim"`
}

// SimConfig configures the simulated hardware backend
type SimConfig struct {
	Identity     string   `yaml:"identity"`      // Hex identity the simulated reader presents
	PresentEvery Duration `yaml:"present_every"` // Interval between simulated presentations (0 = never)
	PresentFor   Duration `yaml:"present_for"`   // How long each presentation lasts
	LightReading int      `yaml:"light_reading"` // Fixed ambient-light reading
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 2)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 64)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 2
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 64
	}
	return c.QueueSize
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Loop.TickInterval == 0 {
		cfg.Loop.TickInterval = Duration(10 * time.Millisecond)
	}

	if cfg.Door.StepCount == 0 {
		cfg.Door.StepCount = 512
	}
	if cfg.Door.HoldOpen == 0 {
		cfg.Door.HoldOpen = Duration(5000 * time.Millisecond)
	}
	if cfg.Door.GrantPulse == 0 {
		cfg.Door.GrantPulse = Duration(200 * time.Millisecond)
	}
	if cfg.Door.OpenBeep == 0 {
		cfg.Door.OpenBeep = Duration(300 * time.Millisecond)
	}

	if cfg.Lights.Threshold == 0 {
		cfg.Lights.Threshold = 200
	}

	if cfg.Hardware.Backend == "" {
		cfg.Hardware.Backend = "sim"
	}
	if cfg.Hardware.Sim.Identity == "" {
		cfg.Hardware.Sim.Identity = "63b49a2b"
	}
	if cfg.Hardware.Sim.PresentEvery == 0 {
		cfg.Hardware.Sim.PresentEvery = Duration(15 * time.Second)
	}
	if cfg.Hardware.Sim.PresentFor == 0 {
		cfg.Hardware.Sim.PresentFor = Duration(500 * time.Millisecond)
	}
	if cfg.Hardware.Sim.LightReading == 0 {
		cfg.Hardware.Sim.LightReading = 500
	}

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
