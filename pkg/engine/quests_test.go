package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solotasks/progression/pkg/domain"
	"github.com/solotasks/progression/pkg/errors"
	"github.com/solotasks/progression/pkg/notify"
)

func (f *fixture) createChain(t *testing.T, userID string, stepCount, timeLimitSeconds, xp int) *domain.QuestChain {
	t.Helper()

	steps := make([]domain.ChainStep, stepCount)
	for i := range steps {
		steps[i] = domain.ChainStep{Title: "step"}
	}
	chain, err := f.engine.CreateQuestChain(context.Background(), userID,
		"instant dungeon", "", steps, timeLimitSeconds, xp)
	require.NoError(t, err)
	return chain
}

func TestCreateQuest_Validation(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)

	tests := []struct {
		name       string
		title      string
		questType  domain.QuestType
		difficulty int
		xp         int
	}{
		{"empty title", "", domain.QuestTypeDaily, 2, 10},
		{"dungeon type reserved for chains", "raid", domain.QuestTypeDungeon, 2, 10},
		{"unknown type", "t", domain.QuestType("raid"), 2, 10},
		{"difficulty below range", "t", domain.QuestTypeDaily, 0, 10},
		{"difficulty above range", "t", domain.QuestTypeDaily, 6, 10},
		{"negative xp", "t", domain.QuestTypeDaily, 2, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateQuest(context.Background(), "hunter",
				tt.title, "", tt.questType, tt.difficulty, tt.xp, nil)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestUpdateQuest(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)

	quest, err := f.engine.CreateQuest(context.Background(), "hunter",
		"morning run", "around the block", domain.QuestTypeDaily, 1, 10, nil)
	require.NoError(t, err)

	due := testClock.AddDate(0, 0, 7)
	updated, err := f.engine.UpdateQuest(context.Background(), quest.ID,
		"evening run", "twice around the block", domain.QuestTypeCustom, 3, 25, &due)
	require.NoError(t, err)

	assert.Equal(t, "evening run", updated.Title)
	assert.Equal(t, "twice around the block", updated.Description)
	assert.Equal(t, domain.QuestTypeCustom, updated.Type)
	assert.Equal(t, 3, updated.Difficulty)
	assert.Equal(t, 25, updated.XP)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(due))

	// The edit is persisted, and completion pays the edited reward.
	stored, err := f.engine.QuestLog(context.Background(), "hunter")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 25, stored[0].XP)

	res, err := f.engine.CompleteQuest(context.Background(), quest.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CompletedQuests)
	record := f.load(t, "hunter")
	assert.Equal(t, 25+50, record.TotalXP, "edited XP plus first_quest bonus")
	assert.Equal(t, 1, record.CompletedCustomQuests)
}

func TestUpdateQuest_Validation(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)

	quest, err := f.engine.CreateQuest(context.Background(), "hunter",
		"run", "", domain.QuestTypeDaily, 1, 10, nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		title      string
		questType  domain.QuestType
		difficulty int
		xp         int
	}{
		{"empty title", "", domain.QuestTypeDaily, 1, 10},
		{"dungeon type reserved for chains", "run", domain.QuestTypeDungeon, 1, 10},
		{"difficulty out of range", "run", domain.QuestTypeDaily, 6, 10},
		{"negative xp", "run", domain.QuestTypeDaily, 1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.UpdateQuest(context.Background(), quest.ID,
				tt.title, "", tt.questType, tt.difficulty, tt.xp, nil)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestUpdateQuest_RejectsCompletedAndChains(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)

	// Completed quests are history.
	quest, err := f.engine.CreateQuest(context.Background(), "hunter",
		"run", "", domain.QuestTypeDaily, 1, 10, nil)
	require.NoError(t, err)
	_, err = f.engine.CompleteQuest(context.Background(), quest.ID)
	require.NoError(t, err)

	_, err = f.engine.UpdateQuest(context.Background(), quest.ID,
		"rewritten", "", domain.QuestTypeDaily, 1, 10, nil)
	var perr *errors.ProgressionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.ErrCodeQuestAlreadyCompleted, perr.Code)

	// Chains advance through their steps; their metadata is fixed.
	chain := f.createChain(t, "hunter", 2, 600, 100)
	_, err = f.engine.UpdateQuest(context.Background(), chain.ID,
		"rewritten", "", domain.QuestTypeCustom, 1, 10, nil)
	assert.True(t, errors.IsValidation(err))

	// Missing quests are not found.
	_, err = f.engine.UpdateQuest(context.Background(), "nope",
		"rewritten", "", domain.QuestTypeDaily, 1, 10, nil)
	assert.True(t, errors.IsNotFound(err))
}

func TestCompleteQuest_Lifecycle(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)

	quest, err := f.engine.CreateQuest(context.Background(), "hunter",
		"morning run", "", domain.QuestTypeDaily, 1, 25, nil)
	require.NoError(t, err)

	res, err := f.engine.CompleteQuest(context.Background(), quest.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CompletedQuests)

	// Completion is one-way.
	_, err = f.engine.CompleteQuest(context.Background(), quest.ID)
	var perr *errors.ProgressionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.ErrCodeQuestAlreadyCompleted, perr.Code)

	// Completed quests are history and cannot be deleted.
	err = f.engine.DeleteQuest(context.Background(), quest.ID)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.ErrCodeQuestAlreadyCompleted, perr.Code)
}

func TestCompleteQuest_UnknownQuest(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CompleteQuest(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestCompleteQuest_RejectsChains(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	chain := f.createChain(t, "hunter", 2, 600, 100)

	_, err := f.engine.CompleteQuest(context.Background(), chain.ID)
	assert.True(t, errors.IsValidation(err))
}

func TestAdvanceChainStep_StrictOrder(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	chain := f.createChain(t, "hunter", 3, 600, 100)

	// Skipping ahead is refused.
	_, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, 1)
	var perr *errors.ProgressionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.ErrCodeStepOutOfOrder, perr.Code)

	// Steps acknowledge one at a time, in order.
	for i := 0; i < 3; i++ {
		updated, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, i)
		require.NoError(t, err)
		assert.True(t, updated.Steps[i].Done)
		assert.Equal(t, i+1, updated.CurrentStep)
	}

	// Replaying an acknowledged step is refused too.
	_, err = f.engine.AdvanceChainStep(context.Background(), chain.ID, 1)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.ErrCodeStepOutOfOrder, perr.Code)

	// Out-of-range index is a validation failure, not an ordering one.
	_, err = f.engine.AdvanceChainStep(context.Background(), chain.ID, 7)
	assert.True(t, errors.IsValidation(err))
}

func TestCompleteQuestChain_RequiresAllSteps(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	chain := f.createChain(t, "hunter", 2, 600, 100)

	_, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, 0)
	require.NoError(t, err)

	_, err = f.engine.CompleteQuestChain(context.Background(), chain.ID, 300)
	assert.True(t, errors.IsValidation(err))
}

func TestCompleteQuestChain_AwardsDungeonCompletion(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	chain := f.createChain(t, "hunter", 2, 600, 100)

	for i := 0; i < 2; i++ {
		_, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, i)
		require.NoError(t, err)
	}

	// 250 of 600 seconds left: more than half the budget was used, so no
	// speed-runner unlock.
	res, err := f.engine.CompleteQuestChain(context.Background(), chain.ID, 250)
	require.NoError(t, err)

	record := f.load(t, "hunter")
	assert.Equal(t, 1, record.CompletedDungeons)
	assert.Equal(t, 1, record.CompletedQuests)
	assert.Contains(t, record.Achievements, "first_quest")
	assert.Contains(t, record.Achievements, "dungeon_novice")
	assert.NotContains(t, record.Achievements, "speed_runner")

	// 100 chain XP + 50 first_quest + 50 dungeon_novice.
	assert.Equal(t, 200, res.TotalXP)

	// Completion is one-way for chains as well.
	_, err = f.engine.CompleteQuestChain(context.Background(), chain.ID, 250)
	var perr *errors.ProgressionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.ErrCodeQuestAlreadyCompleted, perr.Code)
}

func TestCompleteQuestChain_SpeedRunnerBoundary(t *testing.T) {
	// Finishing in exactly half the budget qualifies: 300 of 600 seconds
	// remaining means 300 used, and 300*2 <= 600.
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	chain := f.createChain(t, "hunter", 1, 600, 100)

	_, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, 0)
	require.NoError(t, err)

	res, err := f.engine.CompleteQuestChain(context.Background(), chain.ID, 300)
	require.NoError(t, err)

	record := f.load(t, "hunter")
	assert.Contains(t, record.Achievements, "speed_runner")

	ids := make([]string, 0, len(res.UnlockedAchievements))
	for _, def := range res.UnlockedAchievements {
		ids = append(ids, def.ID)
	}
	assert.Contains(t, ids, "speed_runner")

	// The unlock was announced.
	speedEvents := 0
	for _, ev := range f.notifier.Events {
		if ev.Kind == notify.EventAchievementUnlocked && ev.Payload["achievement_id"] == "speed_runner" {
			speedEvents++
		}
	}
	assert.Equal(t, 1, speedEvents)
}

func TestCompleteQuestChain_SpeedRunnerUnlocksOnce(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", func(p *domain.UserProgress) {
		p.Achievements = []string{"first_quest", "speed_runner"}
	})
	chain := f.createChain(t, "hunter", 1, 600, 100)

	_, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, 0)
	require.NoError(t, err)

	res, err := f.engine.CompleteQuestChain(context.Background(), chain.ID, 600)
	require.NoError(t, err)

	ids := make([]string, 0, len(res.UnlockedAchievements))
	for _, def := range res.UnlockedAchievements {
		ids = append(ids, def.ID)
	}
	assert.NotContains(t, ids, "speed_runner")

	record := f.load(t, "hunter")
	// dungeon_novice still unlocks through the normal evaluation pass, and
	// the speed_runner reward is not granted twice: 100 chain XP + 50.
	assert.Equal(t, 150, record.TotalXP)
}

func TestCompleteQuestChain_TimeRemainingBounds(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	chain := f.createChain(t, "hunter", 1, 600, 100)

	_, err := f.engine.AdvanceChainStep(context.Background(), chain.ID, 0)
	require.NoError(t, err)

	_, err = f.engine.CompleteQuestChain(context.Background(), chain.ID, -1)
	assert.True(t, errors.IsValidation(err))

	_, err = f.engine.CompleteQuestChain(context.Background(), chain.ID, 601)
	assert.True(t, errors.IsValidation(err))
}

func TestDeleteQuest(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)

	quest, err := f.engine.CreateQuest(context.Background(), "hunter",
		"abandoned", "", domain.QuestTypeCustom, 3, 10, nil)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteQuest(context.Background(), quest.ID))

	err = f.engine.DeleteQuest(context.Background(), quest.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestQuestLog_OldestFirst(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, "hunter", nil)
	f.seedUser(t, "other", nil)

	clock := testClock
	f.engine.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	first, err := f.engine.CreateQuest(context.Background(), "hunter",
		"first", "", domain.QuestTypeDaily, 1, 10, nil)
	require.NoError(t, err)
	second, err := f.engine.CreateQuest(context.Background(), "hunter",
		"second", "", domain.QuestTypeWeekly, 1, 10, nil)
	require.NoError(t, err)
	_, err = f.engine.CreateQuest(context.Background(), "other",
		"theirs", "", domain.QuestTypeDaily, 1, 10, nil)
	require.NoError(t, err)

	log, err := f.engine.QuestLog(context.Background(), "hunter")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, first.ID, log[0].ID)
	assert.Equal(t, second.ID, log[1].ID)
}
