// Package config provides the TeamFlow engine configuration.
//
// Configuration priority: defaults → YAML file. Use Default() for a ready
// configuration and Load to merge a YAML file on top of the defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	// Formation configures team formation.
	Formation FormationConfig `yaml:"formation"`

	// Allocation configures task allocation.
	Allocation AllocationConfig `yaml:"allocation"`

	// Negotiation configures the negotiation manager.
	Negotiation NegotiationConfig `yaml:"negotiation"`

	// Metrics configures metrics collection.
	Metrics MetricsConfig `yaml:"metrics"`
}

// FormationConfig configures team formation strategies.
type FormationConfig struct {
	// DefaultStrategy is used when a caller names an unknown strategy.
	DefaultStrategy string `yaml:"default_strategy"`

	// CapabilityMatchThreshold rejects role candidates whose capability
	// match score falls below it.
	CapabilityMatchThreshold float64 `yaml:"capability_match_threshold"`

	// Weights are the balanced-strategy scoring weights.
	Weights BalancedWeights `yaml:"weights"`

	// RecommendationStrategies lists the strategies GetTeamRecommendations
	// runs; empty means all registered strategies.
	RecommendationStrategies []string `yaml:"recommendation_strategies"`
}

// BalancedWeights are the secondary-signal weights of the balanced and
// hybrid strategies. Capability match always contributes a fixed 0.3. The
// balanced strategy scores with the four weights as configured; the hybrid
// strategy adjusts a copy per task and re-normalizes it to sum to 1.
type BalancedWeights struct {
	Performance    float64 `yaml:"performance"`
	Specialization float64 `yaml:"specialization"`
	Collaboration  float64 `yaml:"collaboration"`
	Cost           float64 `yaml:"cost"`
}

// AllocationConfig configures task allocation strategies.
type AllocationConfig struct {
	// DefaultStrategy is used when a caller names an unknown strategy.
	DefaultStrategy string `yaml:"default_strategy"`
}

// NegotiationConfig configures the negotiation manager.
type NegotiationConfig struct {
	// DefaultDeadline bounds negotiations created without an explicit
	// deadline; zero leaves them unbounded.
	DefaultDeadline time.Duration `yaml:"default_deadline"`
}

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	// Namespace prefixes all metric names.
	Namespace string `yaml:"namespace"`

	// Enabled toggles metric emission in the facade services.
	Enabled bool `yaml:"enabled"`
}

// Default returns the engine defaults.
func Default() *Config {
	return &Config{
		Formation: FormationConfig{
			DefaultStrategy:          "optimal_coverage",
			CapabilityMatchThreshold: 0.5,
			Weights: BalancedWeights{
				Performance:    0.25,
				Specialization: 0.2,
				Collaboration:  0.15,
				Cost:           0.1,
			},
		},
		Allocation: AllocationConfig{
			DefaultStrategy: "round_robin",
		},
		Negotiation: NegotiationConfig{
			DefaultDeadline: 30 * time.Minute,
		},
		Metrics: MetricsConfig{
			Namespace: "teamflow",
			Enabled:   true,
		},
	}
}

// Load reads a YAML file and merges it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Formation.DefaultStrategy == "" {
		return fmt.Errorf("formation.default_strategy must not be empty")
	}
	if c.Allocation.DefaultStrategy == "" {
		return fmt.Errorf("allocation.default_strategy must not be empty")
	}
	if c.Formation.CapabilityMatchThreshold < 0 || c.Formation.CapabilityMatchThreshold > 1 {
		return fmt.Errorf("formation.capability_match_threshold must be in [0,1], got %v",
			c.Formation.CapabilityMatchThreshold)
	}
	w := c.Formation.Weights
	if w.Performance < 0 || w.Specialization < 0 || w.Collaboration < 0 || w.Cost < 0 {
		return fmt.Errorf("formation.weights must not be negative")
	}
	if w.Performance+w.Specialization+w.Collaboration+w.Cost == 0 {
		return fmt.Errorf("formation.weights must not all be zero")
	}
	if c.Negotiation.DefaultDeadline < 0 {
		return fmt.Errorf("negotiation.default_deadline must not be negative")
	}
	return nil
}
