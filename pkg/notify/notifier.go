package notify

import "context"

// EventKind identifies what triggered a notification.
type EventKind string

const (
	// EventLevelUp is emitted when an XP award raises the user's level.
	EventLevelUp EventKind = "levelUp"

	// EventAchievementUnlocked is emitted once per newly unlocked
	// achievement, in catalog order when several unlock together.
	EventAchievementUnlocked EventKind = "achievementUnlocked"

	// EventStreakMilestone is emitted when the streak reaches 3, 7, 30,
	// or any multiple of 10.
	EventStreakMilestone EventKind = "streakMilestone"
)

// IsValid returns true if the event kind is a valid kind.
func (k EventKind) IsValid() bool {
	switch k {
	case EventLevelUp, EventAchievementUnlocked, EventStreakMilestone:
		return true
	default:
		return false
	}
}

// Event is the notification contract the core emits. Rendering (toasts,
// staggering of simultaneous unlocks) is a presentation concern outside
// this module; the core only guarantees a defined order and distinct
// identity per event.
type Event struct {
	Kind    EventKind      `json:"kind"`
	UserID  string         `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Notifier delivers events to the presentation layer. Emit is
// fire-and-forget: the core does not require acknowledgment and never
// fails an operation because a notification could not be delivered.
type Notifier interface {
	Emit(ctx context.Context, event Event)
}
