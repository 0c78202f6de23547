// Package config holds the segmaker configuration file format.
package config

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/roach88/segmaker/internal/segment"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "segmaker.yaml"

// Config represents the application configuration.
type Config struct {
	LogLevel slog.Level     `yaml:"log_level"`
	Database DatabaseConfig `yaml:"database"`
	Score    ScoreConfig    `yaml:"score"`
	Segments SegmentsConfig `yaml:"segments"`
	Spacing  SpacingConfig  `yaml:"spacing"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Score.Validate(); err != nil {
		return err
	}
	if err := c.Segments.Validate(); err != nil {
		return err
	}
	return c.Spacing.Validate()
}

// DatabaseConfig holds the metadata store location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// ScoreConfig holds where score sources live and where output goes.
type ScoreConfig struct {
	// Dir is the CUE score directory built when no argument is given.
	Dir string `yaml:"dir"`

	// Output is the directory rendered .ly files are written to.
	Output string `yaml:"output"`
}

// Validate validates the score configuration.
func (c *ScoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Output, validation.Required),
	)
}

// SegmentsConfig holds engine defaults a score definition may override.
type SegmentsConfig struct {
	// FermataMeasureStaffLineCount collapses the staff in fermata measures.
	// Nil leaves fermata measures unstyled.
	FermataMeasureStaffLineCount *int `yaml:"fermata_measure_staff_line_count"`
}

// Validate validates the segments configuration.
func (c *SegmentsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.FermataMeasureStaffLineCount, validation.Min(0), validation.Max(10)),
	)
}

// SpacingConfig controls the spacing step.
type SpacingConfig struct {
	Enabled bool          `yaml:"enabled"`
	Budget  time.Duration `yaml:"budget"`
}

// Validate validates the spacing configuration.
func (c *SpacingConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Budget, validation.Required, validation.Min(time.Millisecond)),
	)
}

// MakerOptions translates the configuration into segment maker options.
func (c *Config) MakerOptions() segment.Options {
	return segment.Options{
		FermataMeasureStaffLineCount: c.Segments.FermataMeasureStaffLineCount,
		DisableSpacing:               !c.Spacing.Enabled,
		SpacingBudget:                c.Spacing.Budget,
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Database: DatabaseConfig{
			Path: "./segmaker.db",
		},
		Score: ScoreConfig{
			Dir:    "./score",
			Output: "./build",
		},
		Spacing: SpacingConfig{
			Enabled: true,
			Budget:  segment.DefaultSpacingBudget,
		},
	}
}
