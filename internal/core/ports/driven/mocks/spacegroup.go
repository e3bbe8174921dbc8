package mocks

import (
	"sync"

	"github.com/covalent-labs/atomstore-core/internal/core/ports/driven"
)

// Ensure MockSpacegroupDetector implements SpacegroupDetector
var _ driven.SpacegroupDetector = (*MockSpacegroupDetector)(nil)

// MockSpacegroupDetector is a SpacegroupDetector for testing.
// It returns a fixed label unless DetectFn is set.
type MockSpacegroupDetector struct {
	mu    sync.Mutex
	calls int

	// Label is returned by Detect when DetectFn is unset.
	// Defaults to the no-symmetry fallback.
	Label string

	// Custom behavior hook (optional)
	DetectFn func(lattice [3][3]float64, scaledPositions [][3]float64, atomicNumbers []int) (string, error)
}

// NewMockSpacegroupDetector creates a new MockSpacegroupDetector.
func NewMockSpacegroupDetector() *MockSpacegroupDetector {
	return &MockSpacegroupDetector{Label: "P1 (1)"}
}

func (m *MockSpacegroupDetector) Detect(lattice [3][3]float64, scaledPositions [][3]float64, atomicNumbers []int) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.DetectFn != nil {
		return m.DetectFn(lattice, scaledPositions, atomicNumbers)
	}
	return m.Label, nil
}

// Calls returns how many times Detect was invoked (for test assertions).
func (m *MockSpacegroupDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
