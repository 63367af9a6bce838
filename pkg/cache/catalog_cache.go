package cache

import "github.com/solotasks/progression/pkg/achievements"

// CatalogCache provides O(1) in-memory lookups for achievement definitions.
// The cache is built at application startup from the achievements.json config
// file (or the built-in catalog). All lookups are read-only and thread-safe.
type CatalogCache interface {
	// GetByID retrieves an achievement definition by its unique ID.
	// Returns nil if the achievement does not exist.
	// Time complexity: O(1)
	GetByID(achievementID string) *achievements.Definition

	// GetByStat retrieves all definitions whose unlock rule tracks the given
	// stat code. Multiple achievements can track the same stat (the quest
	// completion ladder all tracks "completed_quests").
	// Returns empty slice if no definitions track this stat.
	// Time complexity: O(1)
	GetByStat(stat string) []*achievements.Definition

	// All retrieves every definition in catalog order. Evaluation and
	// notification ordering both follow this order.
	// Time complexity: O(1)
	All() []*achievements.Definition

	// Reload reloads the cache from the config file.
	// Returns error if the config file cannot be read or is invalid; the
	// previous cache contents stay in place on failure.
	Reload() error
}
