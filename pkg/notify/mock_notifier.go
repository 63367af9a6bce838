package notify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNotifier is a mock implementation of Notifier for testing.
// It uses testify/mock to allow test assertions on emitted events.
type MockNotifier struct {
	mock.Mock
}

// Emit mocks event emission.
func (m *MockNotifier) Emit(ctx context.Context, event Event) {
	m.Called(ctx, event)
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// RecordingNotifier captures every emitted event in order. Simpler than the
// mock when a test only needs to inspect the sequence.
type RecordingNotifier struct {
	Events []Event
}

// Emit appends the event to the recorded sequence.
func (n *RecordingNotifier) Emit(_ context.Context, event Event) {
	n.Events = append(n.Events, event)
}

// Kinds returns the recorded event kinds in emission order.
func (n *RecordingNotifier) Kinds() []EventKind {
	kinds := make([]EventKind, 0, len(n.Events))
	for _, e := range n.Events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}
