package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/solotasks/progression/pkg/domain"
)

// MemoryQuestRepository is an in-memory QuestRepository for tests and
// offline use.
type MemoryQuestRepository struct {
	mu     sync.RWMutex
	quests map[string]*domain.Quest
	chains map[string]*domain.QuestChain
}

// NewMemoryQuestRepository creates an empty in-memory quest repository.
func NewMemoryQuestRepository() *MemoryQuestRepository {
	return &MemoryQuestRepository{
		quests: make(map[string]*domain.Quest),
		chains: make(map[string]*domain.QuestChain),
	}
}

// CreateQuest inserts a plain quest.
func (r *MemoryQuestRepository) CreateQuest(_ context.Context, quest *domain.Quest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := *quest
	r.quests[quest.ID] = &q
	return nil
}

// CreateChain inserts a quest chain with its step sequence.
func (r *MemoryQuestRepository) CreateChain(_ context.Context, chain *domain.QuestChain) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *chain
	c.Steps = append([]domain.ChainStep(nil), chain.Steps...)
	r.chains[chain.ID] = &c
	r.quests[chain.ID] = &c.Quest
	return nil
}

// GetQuest retrieves a quest (plain or chain header) by id.
func (r *MemoryQuestRepository) GetQuest(_ context.Context, questID string) (*domain.Quest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	quest, ok := r.quests[questID]
	if !ok {
		return nil, nil
	}
	q := *quest
	return &q, nil
}

// GetChain retrieves a quest chain including its steps.
func (r *MemoryQuestRepository) GetChain(_ context.Context, chainID string) (*domain.QuestChain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain, ok := r.chains[chainID]
	if !ok {
		return nil, nil
	}
	c := *chain
	c.Steps = append([]domain.ChainStep(nil), chain.Steps...)
	return &c, nil
}

// ListByUser retrieves all quests owned by a user, oldest first.
func (r *MemoryQuestRepository) ListByUser(_ context.Context, userID string) ([]*domain.Quest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var quests []*domain.Quest
	for _, quest := range r.quests {
		if quest.UserID == userID {
			q := *quest
			quests = append(quests, &q)
		}
	}
	sort.Slice(quests, func(i, j int) bool {
		return quests[i].CreatedAt.Before(quests[j].CreatedAt)
	})
	return quests, nil
}

// UpdateQuest persists the editable fields of an active plain quest.
func (r *MemoryQuestRepository) UpdateQuest(_ context.Context, quest *domain.Quest) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.quests[quest.ID]
	if !ok || stored.Completed || stored.IsChain {
		return false, nil
	}
	stored.Title = quest.Title
	stored.Description = quest.Description
	stored.Type = quest.Type
	stored.Difficulty = quest.Difficulty
	stored.XP = quest.XP
	stored.DueDate = quest.DueDate
	return true, nil
}

// MarkCompleted flips the quest to completed, once.
func (r *MemoryQuestRepository) MarkCompleted(_ context.Context, questID string, completedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	quest, ok := r.quests[questID]
	if !ok || quest.Completed {
		return false, nil
	}
	quest.Completed = true
	quest.CompletedAt = &completedAt
	if chain, ok := r.chains[questID]; ok {
		chain.Completed = true
		chain.CompletedAt = &completedAt
	}
	return true, nil
}

// SaveChainProgress persists the step states and cursor of a chain.
func (r *MemoryQuestRepository) SaveChainProgress(_ context.Context, chainID string, steps []domain.ChainStep, currentStep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chain, ok := r.chains[chainID]
	if !ok {
		return nil
	}
	chain.Steps = append([]domain.ChainStep(nil), steps...)
	chain.CurrentStep = currentStep
	return nil
}

// DeleteQuest removes an uncompleted quest.
func (r *MemoryQuestRepository) DeleteQuest(_ context.Context, questID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	quest, ok := r.quests[questID]
	if !ok || quest.Completed {
		return nil
	}
	delete(r.quests, questID)
	delete(r.chains, questID)
	return nil
}

// ResetDailyQuests re-opens every completed daily quest.
func (r *MemoryQuestRepository) ResetDailyQuests(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset := 0
	for _, quest := range r.quests {
		if quest.Type == domain.QuestTypeDaily && quest.Completed && !quest.IsChain {
			quest.Completed = false
			quest.CompletedAt = nil
			reset++
		}
	}
	return reset, nil
}
