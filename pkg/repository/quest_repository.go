package repository

import (
	"context"
	"time"

	"github.com/solotasks/progression/pkg/domain"
)

// QuestRepository is the persistence collaborator for quests and quest
// chains. Quests transition at most once from active to completed; there is
// no reopen operation.
type QuestRepository interface {
	// CreateQuest inserts a plain quest.
	CreateQuest(ctx context.Context, quest *domain.Quest) error

	// CreateChain inserts a quest chain with its step sequence.
	CreateChain(ctx context.Context, chain *domain.QuestChain) error

	// GetQuest retrieves a quest (plain or chain header) by id.
	// Returns nil if no quest exists.
	GetQuest(ctx context.Context, questID string) (*domain.Quest, error)

	// GetChain retrieves a quest chain including its steps.
	// Returns nil if no chain exists under the id.
	GetChain(ctx context.Context, chainID string) (*domain.QuestChain, error)

	// ListByUser retrieves all quests owned by a user, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Quest, error)

	// UpdateQuest persists the editable fields of a plain quest (title,
	// description, type, difficulty, xp, due date). Returns false when the
	// quest does not exist, is already completed, or is a chain; the write
	// only touches active plain-quest rows.
	UpdateQuest(ctx context.Context, quest *domain.Quest) (bool, error)

	// MarkCompleted flips the quest to completed. Returns false when the
	// quest was already completed (the one-way transition already happened)
	// or does not exist; the write only touches rows where completed=false.
	MarkCompleted(ctx context.Context, questID string, completedAt time.Time) (bool, error)

	// SaveChainProgress persists the step states and cursor of a chain.
	SaveChainProgress(ctx context.Context, chainID string, steps []domain.ChainStep, currentStep int) error

	// DeleteQuest removes an uncompleted quest. Deleting a missing quest
	// is not an error.
	DeleteQuest(ctx context.Context, questID string) error

	// ResetDailyQuests re-opens every completed daily quest for the new
	// day and returns how many rows were touched. Chains are never reset.
	ResetDailyQuests(ctx context.Context) (int, error)
}
