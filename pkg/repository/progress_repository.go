package repository

import (
	"context"

	"github.com/solotasks/progression/pkg/domain"
)

// Column names accepted by ProgressUpdate. The persistence layer rejects
// anything outside this set: a naive overwrite of a whole record would lose
// concurrent increments, so every mutation names its fields explicitly.
const (
	FieldXP           = "xp"
	FieldLevel        = "level"
	FieldTotalXP      = "total_xp"
	FieldCurrentTitle = "current_title"
	FieldStreak       = "streak"
	FieldLastActiveAt = "last_active_at"

	FieldCompletedQuests       = "completed_quests"
	FieldCompletedDailyQuests  = "completed_daily_quests"
	FieldCompletedWeeklyQuests = "completed_weekly_quests"
	FieldCompletedCustomQuests = "completed_custom_quests"
	FieldCompletedDungeons     = "completed_dungeons"
)

// ProgressUpdate is a single logical mutation of one user's progress record.
// The three shapes carry different persistence semantics:
//
//   - Increments: column = column + delta (counters, total XP). Safe under
//     concurrent writers.
//   - Sets: column = value (xp, level, current title, streak, last active).
//   - AppendTitles / AppendAchievements: append-to-set union; elements
//     already present are not duplicated, insertion order is preserved.
//
// Implementations apply the whole update as one atomic write per user.
type ProgressUpdate struct {
	Increments         map[string]int
	Sets               map[string]any
	AppendTitles       []string
	AppendAchievements []string
}

// IsEmpty reports whether the update carries no mutation at all.
func (u *ProgressUpdate) IsEmpty() bool {
	return len(u.Increments) == 0 && len(u.Sets) == 0 &&
		len(u.AppendTitles) == 0 && len(u.AppendAchievements) == 0
}

// ProgressRepository is the persistence collaborator for user progress
// records. The engine always re-reads through this interface rather than
// trusting caller-held state.
type ProgressRepository interface {
	// Get retrieves a user's progress record.
	// Returns nil if no record exists (lazy initialization).
	Get(ctx context.Context, userID string) (*domain.UserProgress, error)

	// Create inserts a fresh progress record. Inserting an existing user
	// is a no-op (idempotent registration).
	Create(ctx context.Context, progress *domain.UserProgress) error

	// ApplyUpdate applies the update as a single atomic write.
	// Returns ErrUserNotFound if no record exists for userID.
	ApplyUpdate(ctx context.Context, userID string, update ProgressUpdate) error
}
