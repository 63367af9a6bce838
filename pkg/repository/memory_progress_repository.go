package repository

import (
	"context"
	"sync"
	"time"

	"github.com/solotasks/progression/pkg/domain"
	"github.com/solotasks/progression/pkg/errors"
)

// MemoryProgressRepository is an in-memory ProgressRepository with the same
// field-level semantics as the PostgreSQL implementation. Used by tests and
// for offline/headless operation; the mutex gives it the same per-user
// atomicity the single UPDATE statement gives the database.
type MemoryProgressRepository struct {
	mu      sync.RWMutex
	records map[string]*domain.UserProgress
}

// NewMemoryProgressRepository creates an empty in-memory progress repository.
func NewMemoryProgressRepository() *MemoryProgressRepository {
	return &MemoryProgressRepository{
		records: make(map[string]*domain.UserProgress),
	}
}

// Get retrieves a user's progress record. Returns a deep copy so callers
// cannot mutate the stored state behind the repository's back.
func (r *MemoryProgressRepository) Get(_ context.Context, userID string) (*domain.UserProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[userID]
	if !ok {
		return nil, nil
	}
	return record.Clone(), nil
}

// Create inserts a fresh progress record; existing users are left untouched.
func (r *MemoryProgressRepository) Create(_ context.Context, progress *domain.UserProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[progress.UserID]; ok {
		return nil
	}
	r.records[progress.UserID] = progress.Clone()
	return nil
}

// ApplyUpdate applies the update under the lock as one atomic mutation.
func (r *MemoryProgressRepository) ApplyUpdate(_ context.Context, userID string, update ProgressUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[userID]
	if !ok {
		return errors.ErrUserNotFound(userID)
	}

	for column, delta := range update.Increments {
		switch column {
		case FieldTotalXP:
			record.TotalXP += delta
		case FieldCompletedQuests:
			record.CompletedQuests += delta
		case FieldCompletedDailyQuests:
			record.CompletedDailyQuests += delta
		case FieldCompletedWeeklyQuests:
			record.CompletedWeeklyQuests += delta
		case FieldCompletedCustomQuests:
			record.CompletedCustomQuests += delta
		case FieldCompletedDungeons:
			record.CompletedDungeons += delta
		default:
			return errors.ErrValidationFailed(column, "not an incrementable column")
		}
	}

	for column, value := range update.Sets {
		if err := applySet(record, column, value); err != nil {
			return err
		}
	}

	for _, title := range update.AppendTitles {
		if !record.HasTitle(title) {
			record.Titles = append(record.Titles, title)
		}
	}
	for _, id := range update.AppendAchievements {
		if !record.HasAchievement(id) {
			record.Achievements = append(record.Achievements, id)
		}
	}

	record.UpdatedAt = time.Now().UTC()
	return nil
}

func applySet(record *domain.UserProgress, column string, value any) error {
	switch column {
	case FieldXP:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.XP = v
	case FieldLevel:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.Level = v
	case FieldTotalXP:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.TotalXP = v
	case FieldStreak:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.Streak = v
	case FieldCurrentTitle:
		v, ok := value.(string)
		if !ok {
			return errors.ErrValidationFailed(column, "expected string")
		}
		record.CurrentTitle = v
	case FieldLastActiveAt:
		switch v := value.(type) {
		case time.Time:
			record.LastActiveAt = &v
		case *time.Time:
			record.LastActiveAt = v
		default:
			return errors.ErrValidationFailed(column, "expected time.Time")
		}
	case FieldCompletedQuests:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.CompletedQuests = v
	case FieldCompletedDailyQuests:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.CompletedDailyQuests = v
	case FieldCompletedWeeklyQuests:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.CompletedWeeklyQuests = v
	case FieldCompletedCustomQuests:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.CompletedCustomQuests = v
	case FieldCompletedDungeons:
		v, ok := value.(int)
		if !ok {
			return errors.ErrValidationFailed(column, "expected int")
		}
		record.CompletedDungeons = v
	default:
		return errors.ErrValidationFailed(column, "not a settable column")
	}
	return nil
}
