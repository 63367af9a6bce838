// Package engine implements the stateful progression transaction: applying
// XP deltas, resolving level-ups and title unlocks, streak bookkeeping, and
// quest lifecycle orchestration. All state lives behind the repository
// collaborators; the engine re-reads persistence on every operation instead
// of trusting caller-held snapshots.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/solotasks/progression/pkg/achievements"
	"github.com/solotasks/progression/pkg/common"
	"github.com/solotasks/progression/pkg/domain"
	"github.com/solotasks/progression/pkg/errors"
	"github.com/solotasks/progression/pkg/leveling"
	"github.com/solotasks/progression/pkg/notify"
	"github.com/solotasks/progression/pkg/repository"
)

// Engine applies progression rules on top of the persistence and
// notification collaborators. Operations are single-user, single-record
// scoped; per-user atomicity comes from the repository's single-statement
// updates.
type Engine struct {
	progress  repository.ProgressRepository
	quests    repository.QuestRepository
	evaluator *achievements.Evaluator
	notifier  notify.Notifier
	logger    *slog.Logger

	// now is the clock; tests replace it for deterministic day arithmetic.
	now func() time.Time
}

// NewEngine creates an engine over the given collaborators. A nil evaluator
// uses the built-in achievement catalog.
func NewEngine(
	progress repository.ProgressRepository,
	quests repository.QuestRepository,
	evaluator *achievements.Evaluator,
	notifier notify.Notifier,
	logger *slog.Logger,
) *Engine {
	if evaluator == nil {
		evaluator = achievements.NewEvaluator(nil)
	}
	return &Engine{
		progress:  progress,
		quests:    quests,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// ProgressionResult is the outcome of an XP-awarding operation.
type ProgressionResult struct {
	XP              int      `json:"xp"`
	Level           int      `json:"level"`
	TotalXP         int      `json:"total_xp"`
	LeveledUp       bool     `json:"leveled_up"`
	Titles          []string `json:"titles"`
	CurrentTitle    string   `json:"current_title"`
	CompletedQuests int      `json:"completed_quests"`

	// UnlockedAchievements lists newly unlocked achievements in catalog
	// order, empty when none unlocked.
	UnlockedAchievements []*achievements.Definition `json:"unlocked_achievements,omitempty"`
}

// StreakResult is the outcome of a streak registration.
type StreakResult struct {
	Streak  int  `json:"streak"`
	Updated bool `json:"updated"`

	UnlockedAchievements []*achievements.Definition `json:"unlocked_achievements,omitempty"`
}

// EnsureProgress creates the registration-state progress record if the user
// has none yet, and returns the record either way. Idempotent.
func (e *Engine) EnsureProgress(ctx context.Context, userID string) (*domain.UserProgress, error) {
	if userID == "" {
		return nil, errors.ErrValidationFailed("userID", "must not be empty")
	}

	existing, err := e.progress.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fresh := domain.NewUserProgress(userID, e.now().UTC())
	if err := e.progress.Create(ctx, fresh); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "progress record created", "user_id", userID)
	return fresh, nil
}

// GetProgress loads a user's progress record.
func (e *Engine) GetProgress(ctx context.Context, userID string) (*domain.UserProgress, error) {
	record, err := e.progress.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, errors.ErrUserNotFound(userID)
	}
	return record, nil
}

// ApplyXPDelta awards xpToAdd XP to the user, resolving level-ups, title
// unlocks and quest counters, then evaluates achievements on the refreshed
// stats. questType may be empty for manual grants that should not touch the
// completion counters.
func (e *Engine) ApplyXPDelta(ctx context.Context, userID string, xpToAdd int, questType domain.QuestType) (*ProgressionResult, error) {
	if xpToAdd < 0 {
		return nil, errors.ErrValidationFailed("xpToAdd", "must not be negative")
	}
	if xpToAdd == 0 && questType == "" {
		return nil, errors.ErrValidationFailed("xpToAdd", "zero XP with no quest type is a no-op")
	}
	if questType != "" && !questType.IsValid() {
		return nil, errors.ErrValidationFailed("questType", fmt.Sprintf("unknown quest type %q", questType))
	}

	result, stats, err := e.applyXP(ctx, userID, xpToAdd, questType)
	if err != nil {
		return nil, err
	}

	unlocked := e.evaluator.Evaluate(stats)
	if len(unlocked) > 0 {
		bonusResult, err := e.awardAchievements(ctx, userID, unlocked)
		if err != nil {
			return nil, err
		}
		result.mergeBonus(bonusResult, unlocked)
	}

	return result, nil
}

// applyXP is the internal XP transaction. It has no achievement-evaluation
// step at all, which is what makes the achievement-bonus path structurally
// unable to recurse. Returns the result and the refreshed stats record.
func (e *Engine) applyXP(ctx context.Context, userID string, xpToAdd int, questType domain.QuestType) (*ProgressionResult, *domain.UserProgress, error) {
	stats, err := e.progress.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if stats == nil {
		return nil, nil, errors.ErrUserNotFound(userID)
	}

	xp := stats.XP + xpToAdd
	level := stats.Level
	leveledUp := false
	var newTitles []string
	currentTitle := stats.CurrentTitle

	// Resolve level-ups iteratively: a single large award can span several
	// levels, so this must loop rather than branch once.
	for xp >= leveling.XPThreshold(level) {
		xp -= leveling.XPThreshold(level)
		level++
		leveledUp = true

		title := leveling.TitleForLevel(level)
		if !stats.HasTitle(title) && !contains(newTitles, title) {
			newTitles = append(newTitles, title)
			// The freshest unlock becomes the active title, overriding any
			// prior custom selection.
			currentTitle = title
		}
	}

	update := repository.ProgressUpdate{
		Increments: map[string]int{
			repository.FieldTotalXP: xpToAdd,
		},
		Sets: map[string]any{
			repository.FieldXP:    xp,
			repository.FieldLevel: level,
		},
	}
	if len(newTitles) > 0 {
		update.AppendTitles = newTitles
		update.Sets[repository.FieldCurrentTitle] = currentTitle
	}
	if questType != "" {
		update.Increments[repository.FieldCompletedQuests] = 1
		update.Increments[counterField(questType)] = 1
	}

	if err := e.progress.ApplyUpdate(ctx, userID, update); err != nil {
		return nil, nil, err
	}

	// Mirror the persisted mutation onto the loaded record so evaluation
	// and the result see the refreshed stats without a second read.
	stats.TotalXP += xpToAdd
	stats.XP = xp
	stats.Level = level
	stats.Titles = append(stats.Titles, newTitles...)
	stats.CurrentTitle = currentTitle
	if questType != "" {
		stats.CompletedQuests++
		bumpCounter(stats, questType)
	}

	if leveledUp {
		message := fmt.Sprintf("You've reached level %d!", level)
		if len(newTitles) > 0 {
			message += fmt.Sprintf(" New title unlocked: %s", currentTitle)
		}
		e.notifier.Emit(ctx, notify.Event{
			Kind:    notify.EventLevelUp,
			UserID:  userID,
			Title:   "Level Up!",
			Message: message,
			Payload: map[string]any{"level": level, "current_title": currentTitle},
		})
		e.logger.InfoContext(ctx, "level up",
			"user_id", userID, "level", level, "total_xp", stats.TotalXP)
	}

	return &ProgressionResult{
		XP:              stats.XP,
		Level:           stats.Level,
		TotalXP:         stats.TotalXP,
		LeveledUp:       leveledUp,
		Titles:          append([]string(nil), stats.Titles...),
		CurrentTitle:    stats.CurrentTitle,
		CompletedQuests: stats.CompletedQuests,
	}, stats, nil
}

// awardAchievements records the unlocked ids and grants the summed bonus XP
// through the internal award path. Bonus XP can level the user up, but the
// path it runs through has no evaluation step, so a bonus can never trigger
// another round of unlocks within the same transaction.
func (e *Engine) awardAchievements(ctx context.Context, userID string, unlocked []*achievements.Definition) (*ProgressionResult, error) {
	ids := make([]string, 0, len(unlocked))
	totalBonus := 0
	for _, def := range unlocked {
		ids = append(ids, def.ID)
		totalBonus += def.XPReward
	}

	if err := e.progress.ApplyUpdate(ctx, userID, repository.ProgressUpdate{
		AppendAchievements: ids,
	}); err != nil {
		return nil, err
	}

	result, _, err := e.applyXP(ctx, userID, totalBonus, "")
	if err != nil {
		return nil, err
	}

	// One notification per unlock, in catalog order. Staggered display is
	// the presentation layer's concern.
	for _, def := range unlocked {
		e.notifier.Emit(ctx, notify.Event{
			Kind:    notify.EventAchievementUnlocked,
			UserID:  userID,
			Title:   "Achievement Unlocked!",
			Message: fmt.Sprintf("%s: %s (+%d XP)", def.Title, def.Description, def.XPReward),
			Payload: map[string]any{"achievement_id": def.ID, "xp_reward": def.XPReward},
		})
	}

	e.logger.InfoContext(ctx, "achievements unlocked",
		"user_id", userID, "count", len(unlocked), "bonus_xp", totalBonus)

	return result, nil
}

// RegisterStreak records activity at the given instant and updates the
// consecutive-day streak. Same-day repeats leave the record untouched.
func (e *Engine) RegisterStreak(ctx context.Context, userID string, at time.Time) (*StreakResult, error) {
	stats, err := e.progress.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, errors.ErrUserNotFound(userID)
	}

	newStreak := stats.Streak
	updated := false

	if stats.LastActiveAt == nil {
		newStreak = 1
		updated = true
	} else {
		switch days := common.DaysBetweenUTC(*stats.LastActiveAt, at); days {
		case 0:
			// Already counted today.
		case 1:
			newStreak = stats.Streak + 1
			updated = true
		default:
			// Gap of two or more days, or the clock moved backwards.
			newStreak = 1
			updated = true
		}
	}

	if !updated {
		return &StreakResult{Streak: newStreak, Updated: false}, nil
	}

	activeAt := at.UTC()
	if err := e.progress.ApplyUpdate(ctx, userID, repository.ProgressUpdate{
		Sets: map[string]any{
			repository.FieldStreak:       newStreak,
			repository.FieldLastActiveAt: activeAt,
		},
	}); err != nil {
		return nil, err
	}

	stats.Streak = newStreak
	stats.LastActiveAt = &activeAt

	result := &StreakResult{Streak: newStreak, Updated: true}

	unlocked := e.evaluator.Evaluate(stats)
	if len(unlocked) > 0 {
		if _, err := e.awardAchievements(ctx, userID, unlocked); err != nil {
			return nil, err
		}
		result.UnlockedAchievements = unlocked
	}

	if isStreakMilestone(newStreak) {
		e.notifier.Emit(ctx, notify.Event{
			Kind:    notify.EventStreakMilestone,
			UserID:  userID,
			Title:   "Streak Milestone!",
			Message: fmt.Sprintf("You've maintained a %d-day streak!", newStreak),
			Payload: map[string]any{"streak": newStreak},
		})
	}

	return result, nil
}

// SelectTitle sets the active title. The title must already be unlocked.
func (e *Engine) SelectTitle(ctx context.Context, userID, title string) error {
	stats, err := e.progress.Get(ctx, userID)
	if err != nil {
		return err
	}
	if stats == nil {
		return errors.ErrUserNotFound(userID)
	}
	if !stats.HasTitle(title) {
		return errors.ErrTitleNotUnlocked(title)
	}

	return e.progress.ApplyUpdate(ctx, userID, repository.ProgressUpdate{
		Sets: map[string]any{repository.FieldCurrentTitle: title},
	})
}

// ResetStats returns the user to the registration state: level 1, zero XP,
// zero streak and counters, default title. This is the only sanctioned level
// decrease. Unlocked achievements are permanent and survive the reset.
func (e *Engine) ResetStats(ctx context.Context, userID string) error {
	stats, err := e.progress.Get(ctx, userID)
	if err != nil {
		return err
	}
	if stats == nil {
		return errors.ErrUserNotFound(userID)
	}

	err = e.progress.ApplyUpdate(ctx, userID, repository.ProgressUpdate{
		Sets: map[string]any{
			repository.FieldLevel:                 1,
			repository.FieldXP:                    0,
			repository.FieldStreak:                0,
			repository.FieldCompletedQuests:       0,
			repository.FieldCompletedDailyQuests:  0,
			repository.FieldCompletedWeeklyQuests: 0,
			repository.FieldCompletedCustomQuests: 0,
			repository.FieldCompletedDungeons:     0,
			repository.FieldCurrentTitle:          domain.DefaultTitle,
		},
	})
	if err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "stats reset", "user_id", userID)
	return nil
}

func (r *ProgressionResult) mergeBonus(bonus *ProgressionResult, unlocked []*achievements.Definition) {
	r.XP = bonus.XP
	r.Level = bonus.Level
	r.TotalXP = bonus.TotalXP
	r.LeveledUp = r.LeveledUp || bonus.LeveledUp
	r.Titles = bonus.Titles
	r.CurrentTitle = bonus.CurrentTitle
	r.UnlockedAchievements = unlocked
}

func isStreakMilestone(streak int) bool {
	return streak == 3 || streak == 7 || streak == 30 || (streak > 0 && streak%10 == 0)
}

func counterField(t domain.QuestType) string {
	switch t {
	case domain.QuestTypeDaily:
		return repository.FieldCompletedDailyQuests
	case domain.QuestTypeWeekly:
		return repository.FieldCompletedWeeklyQuests
	case domain.QuestTypeCustom:
		return repository.FieldCompletedCustomQuests
	default:
		return repository.FieldCompletedDungeons
	}
}

func bumpCounter(stats *domain.UserProgress, t domain.QuestType) {
	switch t {
	case domain.QuestTypeDaily:
		stats.CompletedDailyQuests++
	case domain.QuestTypeWeekly:
		stats.CompletedWeeklyQuests++
	case domain.QuestTypeCustom:
		stats.CompletedCustomQuests++
	default:
		stats.CompletedDungeons++
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
