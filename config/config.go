// Package config provides configuration loading for the tank.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all tank configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Tank        TankConfig        `yaml:"tank"`
	Interaction InteractionConfig `yaml:"interaction"`
	Swimmer     SwimmerConfig     `yaml:"swimmer"`
	Food        FoodConfig        `yaml:"food"`
	Player      PlayerConfig      `yaml:"player"`
	Remote      RemoteConfig      `yaml:"remote"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Logging     LoggingConfig     `yaml:"logging"`
	Foods       []FoodType        `yaml:"foods"`
	Species     []SpeciesConfig   `yaml:"species"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical front end.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// TankConfig describes the container the tank is laid out in and how many
// actors of each kind it accepts.
type TankConfig struct {
	Width          float64 `yaml:"width"`  // Measured container width (0 = fallback)
	Height         float64 `yaml:"height"` // Measured container height (0 = fallback)
	ScaleX         float64 `yaml:"scale_x"`
	ScaleY         float64 `yaml:"scale_y"`
	FallbackWidth  float64 `yaml:"fallback_width"`
	FallbackHeight float64 `yaml:"fallback_height"`
	MaxSwimmers    int     `yaml:"max_swimmers"` // 0 = unbounded
	MaxConsumables int     `yaml:"max_consumables"`
	MaxAvatars     int     `yaml:"max_avatars"`
}

// InteractionConfig holds the distances used by the per-tick interaction pass.
type InteractionConfig struct {
	EatDistance   float64 `yaml:"eat_distance"`
	TrackingRange float64 `yaml:"tracking_range"`
}

// SwimmerConfig holds wander and pursuit parameters.
type SwimmerConfig struct {
	MoveSpeed               float64 `yaml:"move_speed"`
	PursuitSpeed            float64 `yaml:"pursuit_speed"`
	ChangeDirectionInterval float64 `yaml:"change_direction_interval"` // Seconds, jittered ±50%
	WanderDistance          float64 `yaml:"wander_distance"`
	SpawnPadding            float64 `yaml:"spawn_padding"`
	BoundsMargin            float64 `yaml:"bounds_margin"`
	DefaultHealth           int     `yaml:"default_health"`
}

// FoodConfig holds consumable defaults.
type FoodConfig struct {
	DefaultFallSpeed float64 `yaml:"default_fall_speed"`
}

// PlayerConfig holds local avatar physics parameters.
type PlayerConfig struct {
	MoveSpeed    float64 `yaml:"move_speed"`
	Gravity      float64 `yaml:"gravity"`
	FloatForce   float64 `yaml:"float_force"`
	Damping      float64 `yaml:"damping"`
	SyncInterval float64 `yaml:"sync_interval"` // Seconds between position pushes
	DirtySpeed   float64 `yaml:"dirty_speed"`   // |v| above this marks the avatar dirty
}

// RemoteConfig holds remote store settings.
type RemoteConfig struct {
	URL         string  `yaml:"url"`          // Websocket URL; empty = in-memory store
	OwnerID     string  `yaml:"owner_id"`     // Owner of the local avatar
	AutoLoad    bool    `yaml:"auto_load"`    // Subscribe and merge; false = one ReadAll + ReplaceAll
	CallTimeout float64 `yaml:"call_timeout"` // Seconds per fire-and-forget call
	QueueSize   int     `yaml:"queue_size"`   // Cooperative task queue capacity
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// FoodType is one entry of the food catalog.
type FoodType struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	FallSpeed   float64 `yaml:"fall_speed"`
	Health      int     `yaml:"health"`
}

// SpeciesConfig is one entry of the swimmer species catalog.
type SpeciesConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Price  int    `yaml:"price"`
	Health int    `yaml:"health"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FoodIndex    map[string]int // food id -> index into Foods
	SpeciesIndex map[string]int // species id -> index into Species
	LogLevel     slog.Level
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Tank.ScaleX == 0 {
		c.Tank.ScaleX = 1
	}
	if c.Tank.ScaleY == 0 {
		c.Tank.ScaleY = 1
	}

	// Food entries without a fall speed use the shared default
	for i := range c.Foods {
		if c.Foods[i].FallSpeed <= 0 {
			c.Foods[i].FallSpeed = c.Food.DefaultFallSpeed
		}
	}

	c.Derived.FoodIndex = make(map[string]int, len(c.Foods))
	for i, f := range c.Foods {
		c.Derived.FoodIndex[f.ID] = i
	}
	c.Derived.SpeciesIndex = make(map[string]int, len(c.Species))
	for i, s := range c.Species {
		c.Derived.SpeciesIndex[s.ID] = i
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		c.Derived.LogLevel = slog.LevelDebug
	case "warn", "warning":
		c.Derived.LogLevel = slog.LevelWarn
	case "error":
		c.Derived.LogLevel = slog.LevelError
	default:
		c.Derived.LogLevel = slog.LevelInfo
	}
}

// FoodByID returns the catalog entry for id.
func (c *Config) FoodByID(id string) (FoodType, bool) {
	i, ok := c.Derived.FoodIndex[id]
	if !ok {
		return FoodType{}, false
	}
	return c.Foods[i], true
}

// SpeciesByID returns the catalog entry for id.
func (c *Config) SpeciesByID(id string) (SpeciesConfig, bool) {
	i, ok := c.Derived.SpeciesIndex[id]
	if !ok {
		return SpeciesConfig{}, false
	}
	return c.Species[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
