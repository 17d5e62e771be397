package circuitbreaker

import (
	"sort"
	"sync"

	"blizzard-api/internal/common/logging"
)

// GoBreakerManager hands out one breaker per name, e.g. one per region.
type GoBreakerManager struct {
	config   Config
	breakers map[string]*GoBreakerAdapter
	logger   logging.Logger
	mu       sync.RWMutex
}

// NewGoBreakerManager creates a manager whose breakers all share config
func NewGoBreakerManager(config Config, logger logging.Logger) *GoBreakerManager {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &GoBreakerManager{
		config:   config,
		breakers: make(map[string]*GoBreakerAdapter),
		logger:   logger,
	}
}

// GetOrCreate gets an existing circuit breaker or creates a new one
func (m *GoBreakerManager) GetOrCreate(name string) *GoBreakerAdapter {
	m.mu.RLock()
	breaker, exists := m.breakers[name]
	m.mu.RUnlock()
	if exists {
		return breaker
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, exists := m.breakers[name]; exists {
		return breaker
	}

	breaker = NewGoBreaker(name, m.config, m.logger)
	m.breakers[name] = breaker
	return breaker
}

// AllStats returns statistics for all circuit breakers, sorted by name
func (m *GoBreakerManager) AllStats() []Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make([]Stats, 0, len(m.breakers))
	for _, breaker := range m.breakers {
		stats = append(stats, breaker.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

	return stats
}

// Reset resets all circuit breakers to closed state
func (m *GoBreakerManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, breaker := range m.breakers {
		breaker.Reset()
		m.logger.Info("Circuit breaker reset",
			logging.Field{Key: "circuit_breaker", Value: name},
		)
	}
}
