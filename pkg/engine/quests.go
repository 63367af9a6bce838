package engine

import (
	"context"
	"time"

	"github.com/solotasks/progression/pkg/achievements"
	"github.com/solotasks/progression/pkg/domain"
	"github.com/solotasks/progression/pkg/errors"
)

// CreateQuest validates and persists a new plain quest for the user.
func (e *Engine) CreateQuest(ctx context.Context, userID, title, description string, questType domain.QuestType, difficulty, xp int, dueDate *time.Time) (*domain.Quest, error) {
	quest, ok := domain.NewQuest(userID, title, description, questType, difficulty, xp, dueDate, e.now().UTC())
	if !ok {
		return nil, errors.ErrValidationFailed("quest", "invalid quest fields")
	}
	if err := e.quests.CreateQuest(ctx, quest); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "quest created",
		"quest_id", quest.ID, "user_id", userID, "type", string(questType))
	return quest, nil
}

// CreateQuestChain validates and persists a new quest chain (dungeon run).
func (e *Engine) CreateQuestChain(ctx context.Context, userID, title, description string, steps []domain.ChainStep, timeLimitSeconds, xp int) (*domain.QuestChain, error) {
	chain, ok := domain.NewQuestChain(userID, title, description, steps, timeLimitSeconds, xp, e.now().UTC())
	if !ok {
		return nil, errors.ErrValidationFailed("chain", "invalid chain fields")
	}
	if err := e.quests.CreateChain(ctx, chain); err != nil {
		return nil, err
	}
	e.logger.InfoContext(ctx, "quest chain created",
		"chain_id", chain.ID, "user_id", userID, "steps", len(chain.Steps))
	return chain, nil
}

// UpdateQuest edits the fields of an active plain quest. Completed quests
// are progression history and cannot be edited; chain metadata is fixed at
// creation and chains advance through their steps instead.
func (e *Engine) UpdateQuest(ctx context.Context, questID, title, description string, questType domain.QuestType, difficulty, xp int, dueDate *time.Time) (*domain.Quest, error) {
	quest, err := e.quests.GetQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, errors.ErrQuestNotFound(questID)
	}
	if quest.Completed {
		return nil, errors.ErrQuestAlreadyCompleted(questID)
	}
	if quest.IsChain {
		return nil, errors.ErrValidationFailed("quest", "chains cannot be edited")
	}
	if title == "" || !questType.IsUserCreatable() {
		return nil, errors.ErrValidationFailed("quest", "invalid quest fields")
	}
	if difficulty < 1 || difficulty > 5 || xp < 0 {
		return nil, errors.ErrValidationFailed("quest", "invalid quest fields")
	}

	quest.Title = title
	quest.Description = description
	quest.Type = questType
	quest.Difficulty = difficulty
	quest.XP = xp
	quest.DueDate = dueDate

	updated, err := e.quests.UpdateQuest(ctx, quest)
	if err != nil {
		return nil, err
	}
	if !updated {
		// A concurrent completion landed between the read and the write.
		return nil, errors.ErrQuestAlreadyCompleted(questID)
	}

	e.logger.InfoContext(ctx, "quest updated",
		"quest_id", quest.ID, "user_id", quest.UserID, "type", string(questType))
	return quest, nil
}

// CompleteQuest marks a plain quest completed and awards its XP to the
// owner. The transition is one-way; completing twice fails.
func (e *Engine) CompleteQuest(ctx context.Context, questID string) (*ProgressionResult, error) {
	quest, err := e.quests.GetQuest(ctx, questID)
	if err != nil {
		return nil, err
	}
	if quest == nil {
		return nil, errors.ErrQuestNotFound(questID)
	}
	if quest.Completed {
		return nil, errors.ErrQuestAlreadyCompleted(questID)
	}
	if quest.IsChain {
		return nil, errors.ErrValidationFailed("quest", "chains are completed through their steps")
	}

	transitioned, err := e.quests.MarkCompleted(ctx, questID, e.now().UTC())
	if err != nil {
		return nil, err
	}
	if !transitioned {
		// A concurrent completion won the transition.
		return nil, errors.ErrQuestAlreadyCompleted(questID)
	}

	return e.ApplyXPDelta(ctx, quest.UserID, quest.XP, quest.Type)
}

// AdvanceChainStep acknowledges the step at stepIndex. Steps are strictly
// sequential: only the chain's current step can be acknowledged.
func (e *Engine) AdvanceChainStep(ctx context.Context, chainID string, stepIndex int) (*domain.QuestChain, error) {
	chain, err := e.quests.GetChain(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, errors.ErrQuestNotFound(chainID)
	}
	if chain.Completed {
		return nil, errors.ErrQuestAlreadyCompleted(chainID)
	}
	if stepIndex < 0 || stepIndex >= len(chain.Steps) {
		return nil, errors.ErrValidationFailed("stepIndex", "out of range")
	}
	if stepIndex != chain.CurrentStep {
		return nil, errors.ErrStepOutOfOrder(chainID, stepIndex)
	}

	chain.Steps[stepIndex].Done = true
	chain.CurrentStep = stepIndex + 1

	if err := e.quests.SaveChainProgress(ctx, chainID, chain.Steps, chain.CurrentStep); err != nil {
		return nil, err
	}

	return chain, nil
}

// CompleteQuestChain completes a fully acknowledged chain, awards its XP as
// a dungeon completion, and runs the out-of-band speed-runner check against
// the chain's time budget. timeRemaining is the whole seconds left on the
// chain's clock when the final step was acknowledged.
func (e *Engine) CompleteQuestChain(ctx context.Context, chainID string, timeRemaining int) (*ProgressionResult, error) {
	chain, err := e.quests.GetChain(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if chain == nil {
		return nil, errors.ErrQuestNotFound(chainID)
	}
	if chain.Completed {
		return nil, errors.ErrQuestAlreadyCompleted(chainID)
	}
	if !chain.AllStepsDone() {
		return nil, errors.ErrValidationFailed("chain", "chain has unacknowledged steps")
	}
	if timeRemaining < 0 || timeRemaining > chain.TimeLimitSeconds {
		return nil, errors.ErrValidationFailed("timeRemaining", "outside the chain's time budget")
	}

	transitioned, err := e.quests.MarkCompleted(ctx, chainID, e.now().UTC())
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return nil, errors.ErrQuestAlreadyCompleted(chainID)
	}

	result, err := e.ApplyXPDelta(ctx, chain.UserID, chain.XP, domain.QuestTypeDungeon)
	if err != nil {
		return nil, err
	}

	if achievements.QualifiesSpeedRun(timeRemaining, chain.TimeLimitSeconds) {
		speedRunner, err := e.awardSpeedRunner(ctx, chain.UserID)
		if err != nil {
			return nil, err
		}
		if speedRunner != nil {
			result.UnlockedAchievements = append(result.UnlockedAchievements, speedRunner)
		}
	}

	return result, nil
}

// awardSpeedRunner unlocks speed_runner unless the user already has it.
// Returns nil when nothing was awarded.
func (e *Engine) awardSpeedRunner(ctx context.Context, userID string) (*achievements.Definition, error) {
	def := e.evaluator.SpeedRunner()
	if def == nil {
		return nil, nil
	}

	stats, err := e.progress.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, errors.ErrUserNotFound(userID)
	}
	if stats.HasAchievement(def.ID) {
		return nil, nil
	}

	if _, err := e.awardAchievements(ctx, userID, []*achievements.Definition{def}); err != nil {
		return nil, err
	}
	return def, nil
}

// DeleteQuest removes an uncompleted quest. Completed quests are part of the
// progression history and cannot be deleted.
func (e *Engine) DeleteQuest(ctx context.Context, questID string) error {
	quest, err := e.quests.GetQuest(ctx, questID)
	if err != nil {
		return err
	}
	if quest == nil {
		return errors.ErrQuestNotFound(questID)
	}
	if quest.Completed {
		return errors.ErrQuestAlreadyCompleted(questID)
	}
	return e.quests.DeleteQuest(ctx, questID)
}

// QuestLog returns all quests owned by the user, oldest first.
func (e *Engine) QuestLog(ctx context.Context, userID string) ([]*domain.Quest, error) {
	return e.quests.ListByUser(ctx, userID)
}
