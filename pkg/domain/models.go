package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the title every hunter starts with. The Titles set always
// contains at least this entry.
const DefaultTitle = "Novice Hunter"

// QuestType defines which counter a completed quest feeds.
type QuestType string

const (
	// QuestTypeDaily marks quests that repeat every day.
	QuestTypeDaily QuestType = "daily"

	// QuestTypeWeekly marks quests that repeat every week.
	QuestTypeWeekly QuestType = "weekly"

	// QuestTypeCustom marks one-off user-defined quests.
	QuestTypeCustom QuestType = "custom"

	// QuestTypeDungeon marks quest-chain (dungeon run) completions.
	// Plain quests are never created with this type; the engine uses it
	// as the counter key when a chain completes.
	QuestTypeDungeon QuestType = "dungeon"
)

// IsValid returns true if the quest type is a valid type.
func (t QuestType) IsValid() bool {
	switch t {
	case QuestTypeDaily, QuestTypeWeekly, QuestTypeCustom, QuestTypeDungeon:
		return true
	default:
		return false
	}
}

// IsUserCreatable returns true for types a user may create a plain quest with.
func (t QuestType) IsUserCreatable() bool {
	switch t {
	case QuestTypeDaily, QuestTypeWeekly, QuestTypeCustom:
		return true
	default:
		return false
	}
}

// UserProgress is the per-user progression record. One record exists per
// user, owned exclusively by that user and mutated only through the engine.
//
// Invariants:
//   - Level >= 1, only increases (except explicit reset)
//   - 0 <= XP < threshold(Level); overflow rolls into level-ups
//   - TotalXP is a monotone lifetime counter (includes achievement bonuses)
//   - Titles is an insertion-ordered set, never shrinks, never empty
//   - CurrentTitle is always an element of Titles
//   - Achievements is a set of unlocked achievement ids, never shrinks
type UserProgress struct {
	UserID       string     `json:"user_id" db:"user_id"`
	Level        int        `json:"level" db:"level"`
	XP           int        `json:"xp" db:"xp"`
	TotalXP      int        `json:"total_xp" db:"total_xp"`
	Titles       []string   `json:"titles" db:"titles"`
	CurrentTitle string     `json:"current_title" db:"current_title"`
	Streak       int        `json:"streak" db:"streak"`
	LastActiveAt *time.Time `json:"last_active_at,omitempty" db:"last_active_at"`

	CompletedQuests       int `json:"completed_quests" db:"completed_quests"`
	CompletedDailyQuests  int `json:"completed_daily_quests" db:"completed_daily_quests"`
	CompletedWeeklyQuests int `json:"completed_weekly_quests" db:"completed_weekly_quests"`
	CompletedCustomQuests int `json:"completed_custom_quests" db:"completed_custom_quests"`
	CompletedDungeons     int `json:"completed_dungeons" db:"completed_dungeons"`

	Achievements []string `json:"achievements" db:"achievements"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUserProgress returns the registration state for a new user:
// level 1, zero XP, the default title, all counters zero.
func NewUserProgress(userID string, now time.Time) *UserProgress {
	return &UserProgress{
		UserID:       userID,
		Level:        1,
		XP:           0,
		TotalXP:      0,
		Titles:       []string{DefaultTitle},
		CurrentTitle: DefaultTitle,
		Achievements: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasTitle reports whether the user has unlocked the given title.
func (p *UserProgress) HasTitle(title string) bool {
	for _, t := range p.Titles {
		if t == title {
			return true
		}
	}
	return false
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p *UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// CounterForQuestType returns the value of the type-specific completion
// counter. Unknown types return 0.
func (p *UserProgress) CounterForQuestType(t QuestType) int {
	switch t {
	case QuestTypeDaily:
		return p.CompletedDailyQuests
	case QuestTypeWeekly:
		return p.CompletedWeeklyQuests
	case QuestTypeCustom:
		return p.CompletedCustomQuests
	case QuestTypeDungeon:
		return p.CompletedDungeons
	default:
		return 0
	}
}

// Clone returns a deep copy of the progress record.
func (p *UserProgress) Clone() *UserProgress {
	cp := *p
	cp.Titles = append([]string(nil), p.Titles...)
	cp.Achievements = append([]string(nil), p.Achievements...)
	if p.LastActiveAt != nil {
		t := *p.LastActiveAt
		cp.LastActiveAt = &t
	}
	return &cp
}

// Quest is a single user-created task with an XP reward and a one-way
// completion transition (active → completed, no reopen).
type Quest struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Type        QuestType  `json:"type" db:"type"`
	Difficulty  int        `json:"difficulty" db:"difficulty"` // 1-5
	XP          int        `json:"xp" db:"xp"`
	Completed   bool       `json:"completed" db:"completed"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	IsChain     bool       `json:"is_chain" db:"is_chain"`
}

// ChainStep is a single ordered step of a quest chain.
type ChainStep struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Done        bool   `json:"done"`
}

// QuestChain is a quest variant with an ordered step sequence and a time
// budget (a "dungeon run"). Steps must be acknowledged strictly in order;
// the chain completes as a whole once every step is done.
type QuestChain struct {
	Quest

	Steps            []ChainStep `json:"steps"`
	TimeLimitSeconds int         `json:"time_limit_seconds" db:"time_limit_seconds"`
	CurrentStep      int         `json:"current_step" db:"current_step"`
}

// NewQuest creates a plain quest. Returns false if the inputs are out of range
// (empty title, non-creatable type, difficulty outside 1-5, negative XP).
func NewQuest(userID, title, description string, questType QuestType, difficulty, xp int, dueDate *time.Time, now time.Time) (*Quest, bool) {
	if userID == "" || title == "" || !questType.IsUserCreatable() {
		return nil, false
	}
	if difficulty < 1 || difficulty > 5 || xp < 0 {
		return nil, false
	}
	return &Quest{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Type:        questType,
		Difficulty:  difficulty,
		XP:          xp,
		CreatedAt:   now,
		DueDate:     dueDate,
	}, true
}

// NewQuestChain creates a quest chain. Difficulty is derived from the step
// count (one point per two steps, clamped to 1-5). Returns false on empty
// steps, a step without a title, non-positive time limit, or negative XP.
func NewQuestChain(userID, title, description string, steps []ChainStep, timeLimitSeconds, xp int, now time.Time) (*QuestChain, bool) {
	if userID == "" || title == "" || len(steps) == 0 {
		return nil, false
	}
	for _, s := range steps {
		if s.Title == "" {
			return nil, false
		}
	}
	if timeLimitSeconds <= 0 || xp < 0 {
		return nil, false
	}

	return &QuestChain{
		Quest: Quest{
			ID:          uuid.NewString(),
			UserID:      userID,
			Title:       title,
			Description: description,
			Type:        QuestTypeDungeon,
			Difficulty:  ChainDifficulty(len(steps)),
			XP:          xp,
			CreatedAt:   now,
			IsChain:     true,
		},
		Steps:            append([]ChainStep(nil), steps...),
		TimeLimitSeconds: timeLimitSeconds,
	}, true
}

// ChainDifficulty derives a 1-5 difficulty from the number of steps.
func ChainDifficulty(stepCount int) int {
	d := int(math.Ceil(float64(stepCount) / 2))
	if d < 1 {
		d = 1
	}
	if d > 5 {
		d = 5
	}
	return d
}

// AllStepsDone reports whether every step of the chain is acknowledged.
func (c *QuestChain) AllStepsDone() bool {
	for _, s := range c.Steps {
		if !s.Done {
			return false
		}
	}
	return len(c.Steps) > 0
}
