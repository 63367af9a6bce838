package cache

import (
	"log/slog"
	"sync"

	"github.com/solotasks/progression/pkg/achievements"
	"github.com/solotasks/progression/pkg/config"
)

// InMemoryCatalogCache provides O(1) in-memory lookups for achievement
// definitions. All indexes are built at startup and provide thread-safe read
// access. Definitions are immutable once loaded.
type InMemoryCatalogCache struct {
	byID       map[string]*achievements.Definition
	byStat     map[string][]*achievements.Definition
	ordered    []*achievements.Definition
	configPath string
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewInMemoryCatalogCache creates a new cache from the provided configuration.
// The cache is immediately built and ready for lookups.
//
// Parameters:
//   - cfg: Validated configuration carrying the achievement catalog
//   - configPath: Path to config file (used for reload; may be empty when
//     running on the built-in catalog, in which case Reload is a no-op rebuild)
//   - logger: Structured logger for operational logging
func NewInMemoryCatalogCache(cfg *config.Config, configPath string, logger *slog.Logger) *InMemoryCatalogCache {
	cache := &InMemoryCatalogCache{
		configPath: configPath,
		logger:     logger,
	}

	cache.buildCache(cfg)

	return cache
}

// buildCache constructs all cache indexes from the configuration.
// This method is called during construction and reload.
// It replaces all existing cache data.
func (c *InMemoryCatalogCache) buildCache(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID = make(map[string]*achievements.Definition, len(cfg.Achievements))
	c.byStat = make(map[string][]*achievements.Definition)
	c.ordered = make([]*achievements.Definition, 0, len(cfg.Achievements))

	for _, def := range cfg.Achievements {
		c.byID[def.ID] = def
		c.ordered = append(c.ordered, def)

		if def.Stat != "" {
			c.byStat[def.Stat] = append(c.byStat[def.Stat], def)
		}
	}

	c.logger.Info("Catalog cache built successfully",
		"achievements", len(c.byID),
		"stats", len(c.byStat),
	)
}

// GetByID retrieves an achievement definition by its unique ID.
// Returns nil if the achievement does not exist.
func (c *InMemoryCatalogCache) GetByID(achievementID string) *achievements.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.byID[achievementID]
}

// GetByStat retrieves all definitions whose unlock rule tracks the given
// stat code, in catalog order.
func (c *InMemoryCatalogCache) GetByStat(stat string) []*achievements.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := c.byStat[stat]
	if defs == nil {
		return []*achievements.Definition{}
	}

	// The slice is safe to hand out directly; definitions are immutable.
	return defs
}

// All retrieves every definition in catalog order.
func (c *InMemoryCatalogCache) All() []*achievements.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.ordered
}

// Reload reloads the cache from the config file. Running on the built-in
// catalog (empty configPath) rebuilds from the defaults.
//
// Returns:
//   - error: If the config file cannot be read or validation fails. The
//     previous indexes remain in place on failure.
func (c *InMemoryCatalogCache) Reload() error {
	if c.configPath == "" {
		c.buildCache(config.DefaultConfig())
		return nil
	}

	loader := config.NewConfigLoader(c.configPath, c.logger)
	newConfig, err := loader.LoadConfig()
	if err != nil {
		return err
	}

	c.buildCache(newConfig)

	c.logger.Info("Catalog cache reloaded successfully")

	return nil
}
