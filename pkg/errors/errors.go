package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes for the progression core.
const (
	// Domain errors
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeQuestNotFound         = "QUEST_NOT_FOUND"
	ErrCodeQuestAlreadyCompleted = "QUEST_ALREADY_COMPLETED"
	ErrCodeStepOutOfOrder        = "STEP_OUT_OF_ORDER"
	ErrCodeTitleNotUnlocked      = "TITLE_NOT_UNLOCKED"

	// Persistence errors
	ErrCodePersistenceError = "PERSISTENCE_ERROR"

	// Config errors
	ErrCodeConfigInvalid = "CONFIG_INVALID"

	// Validation errors
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

// ProgressionError represents an error in the progression core.
type ProgressionError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProgressionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProgressionError) Unwrap() error {
	return e.Err
}

// NewProgressionError creates a new ProgressionError.
func NewProgressionError(code, message string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Domain-specific error constructors

// ErrUserNotFound returns an error when no progress record exists for a user.
func ErrUserNotFound(userID string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeUserNotFound,
		Message: fmt.Sprintf("user progress not found: %s", userID),
		Err:     nil,
	}
}

// ErrQuestNotFound returns an error when a quest is not found.
func ErrQuestNotFound(questID string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeQuestNotFound,
		Message: fmt.Sprintf("quest not found: %s", questID),
		Err:     nil,
	}
}

// ErrQuestAlreadyCompleted returns an error when completing a quest twice.
// Quest completion is a one-way transition.
func ErrQuestAlreadyCompleted(questID string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeQuestAlreadyCompleted,
		Message: fmt.Sprintf("quest already completed: %s", questID),
		Err:     nil,
	}
}

// ErrStepOutOfOrder returns an error when a chain step is acknowledged
// before all of its predecessors.
func ErrStepOutOfOrder(chainID string, step int) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeStepOutOfOrder,
		Message: fmt.Sprintf("chain %s: step %d acknowledged out of order", chainID, step),
		Err:     nil,
	}
}

// ErrTitleNotUnlocked returns an error when selecting a title the user has not earned.
func ErrTitleNotUnlocked(title string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeTitleNotUnlocked,
		Message: fmt.Sprintf("title not unlocked: %s", title),
		Err:     nil,
	}
}

// ErrPersistence wraps a persistence collaborator failure.
func ErrPersistence(operation string, err error) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodePersistenceError,
		Message: fmt.Sprintf("persistence error during %s", operation),
		Err:     err,
	}
}

// ErrConfigInvalid returns an error for an invalid catalog configuration.
func ErrConfigInvalid(reason string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeConfigInvalid,
		Message: fmt.Sprintf("invalid configuration: %s", reason),
		Err:     nil,
	}
}

// ErrValidationFailed returns a validation error. Validation failures are
// rejected before any I/O and are never retried.
func ErrValidationFailed(field, reason string) *ProgressionError {
	return &ProgressionError{
		Code:    ErrCodeValidationFailed,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Err:     nil,
	}
}

// codeOf extracts the ProgressionError code from err, or "" if err is not one.
func codeOf(err error) string {
	var pe *ProgressionError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsNotFound reports whether err is a user or quest not-found error.
func IsNotFound(err error) bool {
	code := codeOf(err)
	return code == ErrCodeUserNotFound || code == ErrCodeQuestNotFound
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return codeOf(err) == ErrCodeValidationFailed
}

// IsPersistence reports whether err is a persistence collaborator failure.
func IsPersistence(err error) bool {
	return codeOf(err) == ErrCodePersistenceError
}
