package config

import (
	"errors"
	"fmt"

	"github.com/solotasks/progression/pkg/achievements"
)

// Validator validates achievement catalog configuration files.
// It ensures all business rules are met before the application starts.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate performs comprehensive validation of the configuration.
// It checks for:
// - At least one achievement exists
// - All achievement IDs are unique
// - All stat codes reference a known progression counter
// - Thresholds and XP rewards are positive
// - Special achievements carry no stat requirement
//
// Returns an error describing the first validation failure encountered.
func (v *Validator) Validate(config *Config) error {
	if len(config.Achievements) == 0 {
		return errors.New("config must have at least one achievement")
	}

	ids := make(map[string]bool)
	for _, def := range config.Achievements {
		if err := v.validateDefinition(def); err != nil {
			return fmt.Errorf("invalid achievement '%s': %w", def.ID, err)
		}

		if ids[def.ID] {
			return fmt.Errorf("duplicate achievement ID: %s", def.ID)
		}
		ids[def.ID] = true
	}

	return nil
}

// validateDefinition validates a single achievement definition.
func (v *Validator) validateDefinition(def *achievements.Definition) error {
	if def.ID == "" {
		return errors.New("achievement ID cannot be empty")
	}
	if def.Title == "" {
		return errors.New("achievement title cannot be empty")
	}
	if def.XPReward <= 0 {
		return errors.New("xp_reward must be positive")
	}

	if def.Category == achievements.CategorySpecial {
		// Special achievements unlock out-of-band, not from counters.
		if def.Stat != "" {
			return errors.New("special achievements cannot reference a stat")
		}
		return nil
	}

	if def.Stat == "" {
		return errors.New("stat cannot be empty")
	}
	if !knownStat(def.Stat) {
		return fmt.Errorf("unknown stat '%s'", def.Stat)
	}
	if def.Threshold <= 0 {
		return errors.New("threshold must be positive")
	}

	return nil
}

func knownStat(stat string) bool {
	for _, s := range achievements.KnownStats {
		if s == stat {
			return true
		}
	}
	return false
}
