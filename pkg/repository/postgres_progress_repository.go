package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq" // PostgreSQL driver and array support

	"github.com/solotasks/progression/pkg/domain"
	"github.com/solotasks/progression/pkg/errors"
)

// incrementColumns and setColumns whitelist the fields a ProgressUpdate may
// touch. Anything outside these maps is a caller bug and is rejected before
// the statement is built.
var incrementColumns = map[string]bool{
	FieldTotalXP:               true,
	FieldCompletedQuests:       true,
	FieldCompletedDailyQuests:  true,
	FieldCompletedWeeklyQuests: true,
	FieldCompletedCustomQuests: true,
	FieldCompletedDungeons:     true,
}

var setColumns = map[string]bool{
	FieldXP:                    true,
	FieldLevel:                 true,
	FieldTotalXP:               true,
	FieldCurrentTitle:          true,
	FieldStreak:                true,
	FieldLastActiveAt:          true,
	FieldCompletedQuests:       true,
	FieldCompletedDailyQuests:  true,
	FieldCompletedWeeklyQuests: true,
	FieldCompletedCustomQuests: true,
	FieldCompletedDungeons:     true,
}

// PostgresProgressRepository implements ProgressRepository using PostgreSQL.
type PostgresProgressRepository struct {
	db *sql.DB
}

// NewPostgresProgressRepository creates a new PostgreSQL-backed progress repository.
func NewPostgresProgressRepository(db *sql.DB) *PostgresProgressRepository {
	return &PostgresProgressRepository{
		db: db,
	}
}

// Get retrieves a user's progress record.
func (r *PostgresProgressRepository) Get(ctx context.Context, userID string) (*domain.UserProgress, error) {
	query := `
		SELECT user_id, level, xp, total_xp, titles, current_title,
		       streak, last_active_at,
		       completed_quests, completed_daily_quests, completed_weekly_quests,
		       completed_custom_quests, completed_dungeons,
		       achievements, created_at, updated_at
		FROM user_progress
		WHERE user_id = $1
	`

	var progress domain.UserProgress
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&progress.UserID,
		&progress.Level,
		&progress.XP,
		&progress.TotalXP,
		pq.Array(&progress.Titles),
		&progress.CurrentTitle,
		&progress.Streak,
		&progress.LastActiveAt,
		&progress.CompletedQuests,
		&progress.CompletedDailyQuests,
		&progress.CompletedWeeklyQuests,
		&progress.CompletedCustomQuests,
		&progress.CompletedDungeons,
		pq.Array(&progress.Achievements),
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // No progress record exists (lazy initialization)
	}

	if err != nil {
		return nil, errors.ErrPersistence("get progress", err)
	}

	return &progress, nil
}

// Create inserts a fresh progress record. Conflicting inserts are a no-op so
// registration stays idempotent.
func (r *PostgresProgressRepository) Create(ctx context.Context, progress *domain.UserProgress) error {
	query := `
		INSERT INTO user_progress (
			user_id, level, xp, total_xp, titles, current_title,
			streak, last_active_at,
			completed_quests, completed_daily_quests, completed_weekly_quests,
			completed_custom_quests, completed_dungeons,
			achievements, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
		ON CONFLICT (user_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		progress.UserID,
		progress.Level,
		progress.XP,
		progress.TotalXP,
		pq.Array(progress.Titles),
		progress.CurrentTitle,
		progress.Streak,
		progress.LastActiveAt,
		progress.CompletedQuests,
		progress.CompletedDailyQuests,
		progress.CompletedWeeklyQuests,
		progress.CompletedCustomQuests,
		progress.CompletedDungeons,
		pq.Array(progress.Achievements),
	)

	if err != nil {
		return errors.ErrPersistence("create progress", err)
	}

	return nil
}

// ApplyUpdate applies increments, sets and set-union appends as a single
// UPDATE statement, so concurrent awards for the same user cannot observe a
// partially applied mutation.
func (r *PostgresProgressRepository) ApplyUpdate(ctx context.Context, userID string, update ProgressUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	assignments := make([]string, 0, 8)
	args := make([]interface{}, 0, 8)
	args = append(args, userID)

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for column, delta := range update.Increments {
		if !incrementColumns[column] {
			return errors.ErrValidationFailed(column, "not an incrementable column")
		}
		assignments = append(assignments, fmt.Sprintf("%s = %s + %s::INT", column, column, next(delta)))
	}

	for column, value := range update.Sets {
		if !setColumns[column] {
			return errors.ErrValidationFailed(column, "not a settable column")
		}
		assignments = append(assignments, fmt.Sprintf("%s = %s", column, next(value)))
	}

	// Append-to-set: only elements not already present are appended, in the
	// order given, so titles/achievements behave as insertion-ordered sets
	// even under retries.
	if len(update.AppendTitles) > 0 {
		p := next(pq.Array(update.AppendTitles))
		assignments = append(assignments, fmt.Sprintf(
			"titles = titles || (SELECT COALESCE(array_agg(t), '{}') FROM unnest(%s::text[]) AS t WHERE NOT (t = ANY(user_progress.titles)))", p))
	}
	if len(update.AppendAchievements) > 0 {
		p := next(pq.Array(update.AppendAchievements))
		assignments = append(assignments, fmt.Sprintf(
			"achievements = achievements || (SELECT COALESCE(array_agg(a), '{}') FROM unnest(%s::text[]) AS a WHERE NOT (a = ANY(user_progress.achievements)))", p))
	}

	assignments = append(assignments, "updated_at = NOW()")

	// Safe: column names come from the whitelists above, values are bound
	// parameters.
	// #nosec G201
	query := fmt.Sprintf(`
		UPDATE user_progress SET %s
		WHERE user_id = $1
	`, strings.Join(assignments, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.ErrPersistence("apply progress update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.ErrPersistence("apply progress update", err)
	}
	if affected == 0 {
		return errors.ErrUserNotFound(userID)
	}

	return nil
}
