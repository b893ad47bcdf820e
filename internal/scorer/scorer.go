// Package scorer converts a price series into a bounded probability of
// upward movement. The Scorer interface is the seam for swapping formulas
// without touching the decision or guard layers.
package scorer

import (
	"fmt"
	"sync"

	"CommoditySentinel/internal/model"
)

// Scorer estimates the probability of an upward move from a price series.
// Implementations must be pure: same input, same output. A score of exactly
// 0 or 1 indicates a bug, not extreme confidence.
type Scorer interface {
	Name() string
	Score(series model.PriceSeries) float64
}

// Factory builds a configured Scorer.
type Factory func() Scorer

var (
	registry     = make(map[string]Factory)
	registryLock sync.RWMutex
)

// Register adds a scorer factory under name. Later registrations replace
// earlier ones.
func Register(name string, factory Factory) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[name] = factory
}

// Get builds the named scorer.
func Get(name string) (Scorer, error) {
	registryLock.RLock()
	factory, ok := registry[name]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown scorer: %s (available: %v)", name, List())
	}
	return factory(), nil
}

// List returns the registered scorer names.
func List() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

func init() {
	Register("momentum", func() Scorer { return NewMomentumScorer(DefaultMomentumConfig()) })
	Register("linear", func() Scorer { return NewLinearScorer() })
}
