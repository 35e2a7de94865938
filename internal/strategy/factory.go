// Package strategy provides host-side guess advisors: pluggable search
// strategies a session or harness can consult when proposing probe values.
package strategy

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/uorlab/primeseek/internal/interfaces"
)

// Constructor builds an interfaces.Advisor from a deterministic seed.
type Constructor func(seed int64, logger interfaces.Logger) (interfaces.Advisor, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register registers a named advisor constructor. Name is lower-cased
// internally. Registering the same name again overwrites the previous
// constructor.
func Register(name string, ctor Constructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// New constructs the named advisor. It returns an error if the name has not
// been registered.
func New(name string, seed int64, logger interfaces.Logger) (interfaces.Advisor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "random"
	}

	mu.RLock()
	ctor, ok := registry[key]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("strategy %q not registered: available strategies=%v", name, List())
	}

	adv, err := ctor(seed, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct strategy %q: %w", key, err)
	}
	if adv == nil {
		return nil, errors.New("strategy constructor returned nil")
	}
	return adv, nil
}

// List returns the registered strategy names.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
