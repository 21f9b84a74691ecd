package mock

import (
	"context"
	"sync"
)

// DefaultAnswer is returned by MockGenerator when no GenerateFunc is set.
const DefaultAnswer = "mock answer"

// MockGenerator is a test double for ai.Generator.
// Every prompt it receives is recorded for later inspection.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewMockGenerator creates a mock generator that answers DefaultAnswer.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate records prompt and returns the injected or default answer.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return DefaultAnswer, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns a copy of every prompt received, oldest first.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastPrompt returns the most recent prompt, or "" if none was received.
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// Reset clears recorded prompts and injected behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = nil
	m.GenerateFunc = nil
}
