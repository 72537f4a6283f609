// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Viewport ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
}

// LoggerConfig controls the global zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig tunes the automation core. All values have working defaults;
// the zero value is not usable, construct via DefaultEngine or viper.
type EngineConfig struct {
	// SnapshotCap bounds how many elements one snapshot may contain.
	SnapshotCap int `mapstructure:"snapshot_cap" yaml:"snapshot_cap"`
	// ViewportMargin is the vertical window (px) above and below the
	// viewport inside which elements are still considered relevant.
	ViewportMargin float64 `mapstructure:"viewport_margin" yaml:"viewport_margin"`
	// MinElementSize rejects near-zero-sized elements. Form fields use
	// MinFieldSize instead, since framework-driven inputs can render
	// narrow until focused.
	MinElementSize float64 `mapstructure:"min_element_size" yaml:"min_element_size"`
	MinFieldSize   float64 `mapstructure:"min_field_size" yaml:"min_field_size"`
	// MaxNameLength truncates resolved accessible names.
	MaxNameLength int `mapstructure:"max_name_length" yaml:"max_name_length"`
	// ValuePreviewLength truncates the value preview shown in state flags.
	ValuePreviewLength int `mapstructure:"value_preview_length" yaml:"value_preview_length"`
	// ScrollFraction is the share of one viewport height moved by a
	// page-level scroll action.
	ScrollFraction float64 `mapstructure:"scroll_fraction" yaml:"scroll_fraction"`
	// HandleSampleSize bounds how many currently valid handles a NotFound
	// failure message lists to help the caller self-correct.
	HandleSampleSize int `mapstructure:"handle_sample_size" yaml:"handle_sample_size"`
	// MarkMinSize is the smallest box the annotator will outline.
	MarkMinSize float64 `mapstructure:"mark_min_size" yaml:"mark_min_size"`
	// HighlightFadeMs / HighlightRemoveMs control the text locator's
	// highlight lifecycle.
	HighlightFadeMs   int `mapstructure:"highlight_fade_ms" yaml:"highlight_fade_ms"`
	HighlightRemoveMs int `mapstructure:"highlight_remove_ms" yaml:"highlight_remove_ms"`
}

// ViewportConfig describes the simulated viewport geometry.
type ViewportConfig struct {
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
}

// DefaultEngine returns the engine tuning used when no configuration is loaded.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		SnapshotCap:        150,
		ViewportMargin:     500,
		MinElementSize:     2,
		MinFieldSize:       0.5,
		MaxNameLength:      80,
		ValuePreviewLength: 40,
		ScrollFraction:     0.7,
		HandleSampleSize:   10,
		MarkMinSize:        4,
		HighlightFadeMs:    2500,
		HighlightRemoveMs:  4000,
	}
}

// DefaultViewport returns the simulated viewport used when none is configured.
func DefaultViewport() ViewportConfig {
	return ViewportConfig{Width: 1280, Height: 800}
}

// SetDefaults initializes default values on a viper instance.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagepilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	def := DefaultEngine()
	v.SetDefault("engine.snapshot_cap", def.SnapshotCap)
	v.SetDefault("engine.viewport_margin", def.ViewportMargin)
	v.SetDefault("engine.min_element_size", def.MinElementSize)
	v.SetDefault("engine.min_field_size", def.MinFieldSize)
	v.SetDefault("engine.max_name_length", def.MaxNameLength)
	v.SetDefault("engine.value_preview_length", def.ValuePreviewLength)
	v.SetDefault("engine.scroll_fraction", def.ScrollFraction)
	v.SetDefault("engine.handle_sample_size", def.HandleSampleSize)
	v.SetDefault("engine.mark_min_size", def.MarkMinSize)
	v.SetDefault("engine.highlight_fade_ms", def.HighlightFadeMs)
	v.SetDefault("engine.highlight_remove_ms", def.HighlightRemoveMs)

	// -- Viewport --
	vp := DefaultViewport()
	v.SetDefault("viewport.width", vp.Width)
	v.SetDefault("viewport.height", vp.Height)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with the defaults above.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the engine cannot operate with.
func (c *Config) Validate() error {
	if c.Engine.SnapshotCap <= 0 {
		return fmt.Errorf("engine.snapshot_cap must be positive, got %d", c.Engine.SnapshotCap)
	}
	if c.Engine.MaxNameLength <= 0 {
		return fmt.Errorf("engine.max_name_length must be positive, got %d", c.Engine.MaxNameLength)
	}
	if c.Engine.ScrollFraction <= 0 || c.Engine.ScrollFraction > 1 {
		return fmt.Errorf("engine.scroll_fraction must be in (0,1], got %f", c.Engine.ScrollFraction)
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport dimensions must be positive, got %fx%f", c.Viewport.Width, c.Viewport.Height)
	}
	return nil
}
