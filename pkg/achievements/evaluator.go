package achievements

import "github.com/solotasks/progression/pkg/domain"

// Evaluator scans a user's stats against the achievement catalog.
// It is pure: it never mutates stats and never touches persistence.
// The engine owns appending ids and granting bonus XP.
type Evaluator struct {
	catalog []*Definition
}

// NewEvaluator creates an evaluator over the given catalog. The slice order
// is the evaluation order. Passing nil uses the built-in catalog.
func NewEvaluator(catalog []*Definition) *Evaluator {
	if catalog == nil {
		catalog = Catalog()
	}
	return &Evaluator{catalog: catalog}
}

// Catalog returns the catalog the evaluator was built with, in order.
func (e *Evaluator) Catalog() []*Definition {
	return e.catalog
}

// Evaluate returns every catalog entry that is newly satisfied by stats, in
// catalog order. Entries already present in stats.Achievements are skipped,
// so a second pass over unchanged stats returns nothing. Several entries can
// unlock in one pass (e.g. a level and a counter threshold crossed in the
// same transaction).
func (e *Evaluator) Evaluate(stats *domain.UserProgress) []*Definition {
	var unlocked []*Definition
	for _, def := range e.catalog {
		if stats.HasAchievement(def.ID) {
			continue
		}
		if def.Unlocked(stats) {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}

// SpeedRunner returns the speed_runner definition if it exists in the
// catalog, or nil. The entry is evaluated out-of-band from dungeon
// completion events, never from persisted counters.
func (e *Evaluator) SpeedRunner() *Definition {
	for _, def := range e.catalog {
		if def.ID == IDSpeedRunner {
			return def
		}
	}
	return nil
}

// QualifiesSpeedRun reports whether a dungeon completion qualifies for the
// speed_runner achievement: the time used is at most half the time limit.
func QualifiesSpeedRun(timeRemaining, timeLimit int) bool {
	if timeLimit <= 0 || timeRemaining < 0 || timeRemaining > timeLimit {
		return false
	}
	timeUsed := timeLimit - timeRemaining
	return timeUsed*2 <= timeLimit
}
