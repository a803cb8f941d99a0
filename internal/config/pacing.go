package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"zonuko/internal/logger"
)

//go:embed pacing.yaml
var defaultPacingYAML []byte

// PacingConfig holds the tunable constants of the unlocking and pacing engine.
type PacingConfig struct {
	Mastery       MasteryConfig    `yaml:"mastery"`
	Labs          LabConfig        `yaml:"labs"`
	Slots         SlotConfig       `yaml:"slots"`
	FeaturedLimit int              `yaml:"featured_limit"`
	Reflection    ReflectionConfig `yaml:"reflection"`
}

type MasteryConfig struct {
	// Cumulative skill weight from completed Sparks at which a skill counts as mastered.
	WeightThreshold int `yaml:"weight_threshold"`
}

type LabConfig struct {
	CoreSkillWeight   int     `yaml:"core_skill_weight"`
	CoverageThreshold float64 `yaml:"coverage_threshold"`
	SparksBeforeLabs  int     `yaml:"sparks_before_labs"`
	SparksPerExtraLab int     `yaml:"sparks_per_extra_lab"`
}

type SlotConfig struct {
	Min                 int `yaml:"min"`
	Max                 int `yaml:"max"`
	Default             int `yaml:"default"`
	MasteryBonusDivisor int `yaml:"mastery_bonus_divisor"`
	MaxMasteryBonus     int `yaml:"max_mastery_bonus"`
}

type ReflectionConfig struct {
	// Minimum length (inclusive) for a reflection to count toward stage progress.
	MeaningfulLength int `yaml:"meaningful_length"`
	// Length a reflection must exceed to earn the growth multiplier.
	ThoughtfulLength     int     `yaml:"thoughtful_length"`
	ThoughtfulMultiplier float64 `yaml:"thoughtful_multiplier"`
}

// DefaultPacing returns the embedded pacing defaults.
func DefaultPacing() PacingConfig {
	var cfg PacingConfig
	if err := yaml.Unmarshal(defaultPacingYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded pacing.yaml is invalid: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: embedded pacing.yaml is invalid: %v", err))
	}
	return cfg
}

// LoadPacing returns the embedded defaults overlaid with the YAML file at path.
// An unreadable or invalid override is logged and ignored.
func LoadPacing(path string, log *logger.Logger) PacingConfig {
	defaults := DefaultPacing()
	if path == "" {
		return defaults
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Pacing override unreadable, using defaults", "path", path, "error", err)
		return defaults
	}

	cfg := defaults
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		log.Warn("Pacing override is not valid YAML, using defaults", "path", path, "error", err)
		return defaults
	}
	if err := cfg.Validate(); err != nil {
		log.Warn("Pacing override rejected, using defaults", "path", path, "error", err)
		return defaults
	}

	log.Info("Pacing override loaded", "path", path)
	return cfg
}

// Validate checks the pacing values are internally consistent.
func (c PacingConfig) Validate() error {
	switch {
	case c.Mastery.WeightThreshold < 1:
		return fmt.Errorf("mastery.weight_threshold must be >= 1")
	case c.Labs.CoreSkillWeight < 1 || c.Labs.CoreSkillWeight > 5:
		return fmt.Errorf("labs.core_skill_weight must be within 1..5")
	case c.Labs.CoverageThreshold <= 0 || c.Labs.CoverageThreshold > 1:
		return fmt.Errorf("labs.coverage_threshold must be within (0, 1]")
	case c.Labs.SparksBeforeLabs < 0:
		return fmt.Errorf("labs.sparks_before_labs must be >= 0")
	case c.Labs.SparksPerExtraLab < 1:
		return fmt.Errorf("labs.sparks_per_extra_lab must be >= 1")
	case c.Slots.Min < 1 || c.Slots.Max < c.Slots.Min:
		return fmt.Errorf("slots.min must be >= 1 and <= slots.max")
	case c.Slots.Default < c.Slots.Min || c.Slots.Default > c.Slots.Max:
		return fmt.Errorf("slots.default must be within slots.min..slots.max")
	case c.Slots.MasteryBonusDivisor < 1:
		return fmt.Errorf("slots.mastery_bonus_divisor must be >= 1")
	case c.Slots.MaxMasteryBonus < 0:
		return fmt.Errorf("slots.max_mastery_bonus must be >= 0")
	case c.FeaturedLimit < 0:
		return fmt.Errorf("featured_limit must be >= 0")
	case c.Reflection.MeaningfulLength < 0 || c.Reflection.ThoughtfulLength < 0:
		return fmt.Errorf("reflection lengths must be >= 0")
	case c.Reflection.ThoughtfulMultiplier < 1:
		return fmt.Errorf("reflection.thoughtful_multiplier must be >= 1")
	}
	return nil
}

// ClampSlots bounds a requested new-project window to the configured range.
func (c PacingConfig) ClampSlots(requested int) int {
	if requested < c.Slots.Min {
		return c.Slots.Min
	}
	if requested > c.Slots.Max {
		return c.Slots.Max
	}
	return requested
}
