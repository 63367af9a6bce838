package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/solotasks/progression/pkg/domain"
	"github.com/solotasks/progression/pkg/errors"
)

// PostgresQuestRepository implements QuestRepository using PostgreSQL.
// Chain steps are stored as a JSONB column next to the quest row; the step
// sequence is small and always read and written as a whole.
type PostgresQuestRepository struct {
	db *sql.DB
}

// NewPostgresQuestRepository creates a new PostgreSQL-backed quest repository.
func NewPostgresQuestRepository(db *sql.DB) *PostgresQuestRepository {
	return &PostgresQuestRepository{
		db: db,
	}
}

// CreateQuest inserts a plain quest.
func (r *PostgresQuestRepository) CreateQuest(ctx context.Context, quest *domain.Quest) error {
	query := `
		INSERT INTO quests (
			id, user_id, title, description, type, difficulty, xp,
			completed, created_at, due_date, is_chain
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9, FALSE
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		quest.ID,
		quest.UserID,
		quest.Title,
		quest.Description,
		quest.Type,
		quest.Difficulty,
		quest.XP,
		quest.CreatedAt,
		quest.DueDate,
	)

	if err != nil {
		return errors.ErrPersistence("create quest", err)
	}

	return nil
}

// CreateChain inserts a quest chain with its step sequence.
func (r *PostgresQuestRepository) CreateChain(ctx context.Context, chain *domain.QuestChain) error {
	steps, err := json.Marshal(chain.Steps)
	if err != nil {
		return errors.ErrPersistence("encode chain steps", err)
	}

	query := `
		INSERT INTO quests (
			id, user_id, title, description, type, difficulty, xp,
			completed, created_at, due_date, is_chain,
			steps, time_limit_seconds, current_step
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, FALSE, $8, NULL, TRUE, $9, $10, 0
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		chain.ID,
		chain.UserID,
		chain.Title,
		chain.Description,
		chain.Type,
		chain.Difficulty,
		chain.XP,
		chain.CreatedAt,
		steps,
		chain.TimeLimitSeconds,
	)

	if err != nil {
		return errors.ErrPersistence("create chain", err)
	}

	return nil
}

// GetQuest retrieves a quest (plain or chain header) by id.
func (r *PostgresQuestRepository) GetQuest(ctx context.Context, questID string) (*domain.Quest, error) {
	query := `
		SELECT id, user_id, title, description, type, difficulty, xp,
		       completed, created_at, completed_at, due_date, is_chain
		FROM quests
		WHERE id = $1
	`

	var quest domain.Quest
	err := r.db.QueryRowContext(ctx, query, questID).Scan(
		&quest.ID,
		&quest.UserID,
		&quest.Title,
		&quest.Description,
		&quest.Type,
		&quest.Difficulty,
		&quest.XP,
		&quest.Completed,
		&quest.CreatedAt,
		&quest.CompletedAt,
		&quest.DueDate,
		&quest.IsChain,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrPersistence("get quest", err)
	}

	return &quest, nil
}

// GetChain retrieves a quest chain including its steps.
func (r *PostgresQuestRepository) GetChain(ctx context.Context, chainID string) (*domain.QuestChain, error) {
	query := `
		SELECT id, user_id, title, description, type, difficulty, xp,
		       completed, created_at, completed_at, is_chain,
		       steps, time_limit_seconds, current_step
		FROM quests
		WHERE id = $1 AND is_chain = TRUE
	`

	var chain domain.QuestChain
	var steps []byte
	err := r.db.QueryRowContext(ctx, query, chainID).Scan(
		&chain.ID,
		&chain.UserID,
		&chain.Title,
		&chain.Description,
		&chain.Type,
		&chain.Difficulty,
		&chain.XP,
		&chain.Completed,
		&chain.CreatedAt,
		&chain.CompletedAt,
		&chain.IsChain,
		&steps,
		&chain.TimeLimitSeconds,
		&chain.CurrentStep,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, errors.ErrPersistence("get chain", err)
	}

	if err := json.Unmarshal(steps, &chain.Steps); err != nil {
		return nil, errors.ErrPersistence("decode chain steps", err)
	}

	return &chain, nil
}

// ListByUser retrieves all quests owned by a user, oldest first.
func (r *PostgresQuestRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Quest, error) {
	query := `
		SELECT id, user_id, title, description, type, difficulty, xp,
		       completed, created_at, completed_at, due_date, is_chain
		FROM quests
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.ErrPersistence("list quests", err)
	}
	defer func() { _ = rows.Close() }()

	var quests []*domain.Quest
	for rows.Next() {
		var quest domain.Quest
		if err := rows.Scan(
			&quest.ID,
			&quest.UserID,
			&quest.Title,
			&quest.Description,
			&quest.Type,
			&quest.Difficulty,
			&quest.XP,
			&quest.Completed,
			&quest.CreatedAt,
			&quest.CompletedAt,
			&quest.DueDate,
			&quest.IsChain,
		); err != nil {
			return nil, errors.ErrPersistence("scan quest row", err)
		}
		quests = append(quests, &quest)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.ErrPersistence("list quests", err)
	}

	return quests, nil
}

// UpdateQuest persists the editable fields of a plain quest. The WHERE
// clause only matches active plain quests, so completed quests and chains
// cannot be rewritten even under concurrent calls.
func (r *PostgresQuestRepository) UpdateQuest(ctx context.Context, quest *domain.Quest) (bool, error) {
	query := `
		UPDATE quests
		SET title = $2, description = $3, type = $4, difficulty = $5,
		    xp = $6, due_date = $7
		WHERE id = $1 AND completed = FALSE AND is_chain = FALSE
	`

	result, err := r.db.ExecContext(ctx, query,
		quest.ID,
		quest.Title,
		quest.Description,
		quest.Type,
		quest.Difficulty,
		quest.XP,
		quest.DueDate,
	)
	if err != nil {
		return false, errors.ErrPersistence("update quest", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.ErrPersistence("update quest", err)
	}

	return affected > 0, nil
}

// MarkCompleted flips the quest to completed. The WHERE clause only matches
// active quests, so the transition stays one-way even under concurrent calls.
func (r *PostgresQuestRepository) MarkCompleted(ctx context.Context, questID string, completedAt time.Time) (bool, error) {
	query := `
		UPDATE quests
		SET completed = TRUE, completed_at = $2
		WHERE id = $1 AND completed = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, questID, completedAt)
	if err != nil {
		return false, errors.ErrPersistence("mark quest completed", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.ErrPersistence("mark quest completed", err)
	}

	return affected > 0, nil
}

// SaveChainProgress persists the step states and cursor of a chain.
func (r *PostgresQuestRepository) SaveChainProgress(ctx context.Context, chainID string, steps []domain.ChainStep, currentStep int) error {
	encoded, err := json.Marshal(steps)
	if err != nil {
		return errors.ErrPersistence("encode chain steps", err)
	}

	query := `
		UPDATE quests
		SET steps = $2, current_step = $3
		WHERE id = $1 AND is_chain = TRUE
	`

	_, err = r.db.ExecContext(ctx, query, chainID, encoded, currentStep)
	if err != nil {
		return errors.ErrPersistence("save chain progress", err)
	}

	return nil
}

// DeleteQuest removes an uncompleted quest.
func (r *PostgresQuestRepository) DeleteQuest(ctx context.Context, questID string) error {
	query := `DELETE FROM quests WHERE id = $1 AND completed = FALSE`

	_, err := r.db.ExecContext(ctx, query, questID)
	if err != nil {
		return errors.ErrPersistence("delete quest", err)
	}

	return nil
}

// ResetDailyQuests re-opens every completed daily quest. Runs once per day
// from the scheduler; chains are excluded.
func (r *PostgresQuestRepository) ResetDailyQuests(ctx context.Context) (int, error) {
	query := `
		UPDATE quests
		SET completed = FALSE, completed_at = NULL
		WHERE type = 'daily' AND completed = TRUE AND is_chain = FALSE
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, errors.ErrPersistence("reset daily quests", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.ErrPersistence("reset daily quests", err)
	}

	return int(affected), nil
}
