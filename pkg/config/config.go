package config

import "github.com/solotasks/progression/pkg/achievements"

// Config represents the top-level configuration loaded from achievements.json.
// This structure is parsed from JSON and validated during application startup.
type Config struct {
	Achievements []*achievements.Definition `json:"achievements"`
}

// DefaultConfig returns a Config carrying the built-in achievement catalog.
// Deployments that ship no achievements.json run on this.
func DefaultConfig() *Config {
	return &Config{Achievements: achievements.Catalog()}
}
