package achievements

import "github.com/solotasks/progression/pkg/domain"

// Stat codes an achievement requirement can reference. Each names a single
// counter on the UserProgress record.
const (
	StatCompletedQuests       = "completed_quests"
	StatCompletedDailyQuests  = "completed_daily_quests"
	StatCompletedWeeklyQuests = "completed_weekly_quests"
	StatCompletedDungeons     = "completed_dungeons"
	StatStreak                = "streak"
	StatLevel                 = "level"
)

// KnownStats lists every valid stat code, used by config validation.
var KnownStats = []string{
	StatCompletedQuests,
	StatCompletedDailyQuests,
	StatCompletedWeeklyQuests,
	StatCompletedDungeons,
	StatStreak,
	StatLevel,
}

// Achievement categories.
const (
	CategoryBeginner   = "beginner"
	CategoryStreak     = "streak"
	CategoryCompletion = "completion"
	CategoryDungeon    = "dungeon"
	CategoryQuestType  = "quest_type"
	CategoryLevel      = "level"

	// CategorySpecial marks achievements evaluated out-of-band from event
	// data rather than from persisted counters (currently only speed_runner).
	CategorySpecial = "special"
)

// Definition is one entry of the static achievement catalog. Unlock rules
// are data-driven: Stat names a UserProgress counter and Threshold is the
// >= bound. Special-category entries carry no stat and are never matched
// by the counter scan.
type Definition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
	XPReward    int    `json:"xp_reward"`
	Category    string `json:"category"`
	Stat        string `json:"stat,omitempty"`
	Threshold   int    `json:"threshold,omitempty"`
}

// Unlocked reports whether the definition's requirement is met by the given
// stats. Special-category definitions never unlock from stats.
func (d *Definition) Unlocked(stats *domain.UserProgress) bool {
	if d.Category == CategorySpecial || d.Stat == "" {
		return false
	}
	return statValue(stats, d.Stat) >= d.Threshold
}

func statValue(stats *domain.UserProgress, stat string) int {
	switch stat {
	case StatCompletedQuests:
		return stats.CompletedQuests
	case StatCompletedDailyQuests:
		return stats.CompletedDailyQuests
	case StatCompletedWeeklyQuests:
		return stats.CompletedWeeklyQuests
	case StatCompletedDungeons:
		return stats.CompletedDungeons
	case StatStreak:
		return stats.Streak
	case StatLevel:
		return stats.Level
	default:
		return 0
	}
}

// Well-known achievement ids referenced by the engine and tests.
const (
	IDFirstQuest  = "first_quest"
	IDSpeedRunner = "speed_runner"
)

// Catalog returns the static, ordered achievement catalog. Evaluation and
// notification order is catalog order, so the entry order is load-bearing
// alongside the ids and XP rewards, which are compatible with persisted data
// and must not change.
func Catalog() []*Definition {
	return []*Definition{
		{ID: IDFirstQuest, Title: "First Quest", Description: "Complete your first quest", Icon: "🏆", XPReward: 50, Category: CategoryBeginner, Stat: StatCompletedQuests, Threshold: 1},
		{ID: "streak_3", Title: "Consistent Hunter", Description: "Maintain a 3-day streak", Icon: "📆", XPReward: 30, Category: CategoryStreak, Stat: StatStreak, Threshold: 3},
		{ID: "streak_7", Title: "Weekly Warrior", Description: "Maintain a 7-day streak", Icon: "🔥", XPReward: 100, Category: CategoryStreak, Stat: StatStreak, Threshold: 7},
		{ID: "streak_30", Title: "Monthly Master", Description: "Maintain a 30-day streak", Icon: "🌟", XPReward: 300, Category: CategoryStreak, Stat: StatStreak, Threshold: 30},
		{ID: "quest_master", Title: "Quest Master", Description: "Complete 50 quests", Icon: "⚔️", XPReward: 200, Category: CategoryCompletion, Stat: StatCompletedQuests, Threshold: 50},
		{ID: "quest_novice", Title: "Quest Novice", Description: "Complete 10 quests", Icon: "🛡️", XPReward: 50, Category: CategoryCompletion, Stat: StatCompletedQuests, Threshold: 10},
		{ID: "quest_adept", Title: "Quest Adept", Description: "Complete 25 quests", Icon: "🗡️", XPReward: 100, Category: CategoryCompletion, Stat: StatCompletedQuests, Threshold: 25},
		{ID: "quest_legend", Title: "Quest Legend", Description: "Complete 100 quests", Icon: "👑", XPReward: 500, Category: CategoryCompletion, Stat: StatCompletedQuests, Threshold: 100},
		{ID: "dungeon_novice", Title: "Dungeon Novice", Description: "Complete your first dungeon run", Icon: "🏯", XPReward: 50, Category: CategoryDungeon, Stat: StatCompletedDungeons, Threshold: 1},
		{ID: "dungeon_clearer", Title: "Dungeon Clearer", Description: "Complete 5 dungeon runs", Icon: "🏰", XPReward: 150, Category: CategoryDungeon, Stat: StatCompletedDungeons, Threshold: 5},
		{ID: "dungeon_master", Title: "Dungeon Master", Description: "Complete 20 dungeon runs", Icon: "🔮", XPReward: 300, Category: CategoryDungeon, Stat: StatCompletedDungeons, Threshold: 20},
		{ID: "daily_devotee", Title: "Daily Devotee", Description: "Complete 20 daily quests", Icon: "📅", XPReward: 100, Category: CategoryQuestType, Stat: StatCompletedDailyQuests, Threshold: 20},
		{ID: "weekly_wonder", Title: "Weekly Wonder", Description: "Complete 10 weekly quests", Icon: "📊", XPReward: 150, Category: CategoryQuestType, Stat: StatCompletedWeeklyQuests, Threshold: 10},
		{ID: IDSpeedRunner, Title: "Speed Runner", Description: "Complete a dungeon run in half the time limit", Icon: "⏱️", XPReward: 200, Category: CategorySpecial},
		{ID: "level_up_5", Title: "Rising Hunter", Description: "Reach level 5", Icon: "📈", XPReward: 100, Category: CategoryLevel, Stat: StatLevel, Threshold: 5},
		{ID: "level_up_10", Title: "Established Hunter", Description: "Reach level 10", Icon: "📊", XPReward: 200, Category: CategoryLevel, Stat: StatLevel, Threshold: 10},
		{ID: "level_up_25", Title: "Elite Hunter", Description: "Reach level 25", Icon: "🏅", XPReward: 500, Category: CategoryLevel, Stat: StatLevel, Threshold: 25},
	}
}
