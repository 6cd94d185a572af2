package mocks

import (
	"fmt"

	"github.com/pvidal/battlegrid/internal/dependencies/random"
)

// MockRandom returns queued hex strings, falling back to a deterministic
// counter-based value when the queue runs dry.
type MockRandom struct {
	HexResults []string
	hexIndex   int
	fallback   int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom.
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// QueueHex adds values to the Hex result queue.
func (r *MockRandom) QueueHex(values ...string) {
	r.HexResults = append(r.HexResults, values...)
}

func (r *MockRandom) Hex(length int) string {
	if r.hexIndex < len(r.HexResults) {
		result := r.HexResults[r.hexIndex]
		r.hexIndex++
		return result
	}
	r.fallback++
	s := fmt.Sprintf("%0*x", length, r.fallback)
	if len(s) > length {
		s = s[len(s)-length:]
	}
	return s
}
