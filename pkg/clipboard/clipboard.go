// Package clipboard abstracts the capture transport between the operator's
// browser and the process. The system clipboard is the production source;
// an in-memory source backs tests and scripted jobs.
package clipboard

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Source reads and writes operator-captured text.
type Source interface {
	Read() (string, error)
	Write(text string) error
}

// System is the OS clipboard.
type System struct{}

// NewSystem creates a clipboard source backed by the OS clipboard.
func NewSystem() *System {
	return &System{}
}

// Read returns the current clipboard text.
func (s *System) Read() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// Write replaces the clipboard text.
func (s *System) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard, safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	text string
}

// NewMemory creates an empty in-memory clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

// Read returns the stored text.
func (m *Memory) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// Write replaces the stored text.
func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}
