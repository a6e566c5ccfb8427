package breaker

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry holds one breaker per dependency name. It is created at the
// composition root and passed down explicitly, so breakers are reused across
// requests without any package-level state.
type Registry struct {
	config Config
	logger zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewRegistry(config Config, logger zerolog.Logger) *Registry {
	return &Registry{
		config:   config,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Get returns the breaker for the given dependency name, creating it with
// the registry config on first use.
func (r *Registry) Get(name string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[name]
	if !ok {
		cb = New(name, r.config, r.logger)
		r.breakers[name] = cb
	}
	return cb
}
