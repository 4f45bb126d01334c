package ratelimit

import (
	"sync"

	"vnnews/internal/logger"
)

// Limiter caps the number of LLM requests per run. A max of zero or less
// means unlimited.
type Limiter struct {
	mu        sync.Mutex
	used      int
	max       int
	cacheHits int
}

func New(max int) *Limiter {
	return &Limiter{max: max}
}

// Allow reserves one request slot. It returns false once the budget is
// exhausted.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max > 0 && l.used >= l.max {
		logger.Warn("LLM request budget exhausted", "used", l.used, "max", l.max)
		return false
	}
	l.used++
	return true
}

// RecordCacheHit notes a request that was served from cache and did not
// consume budget.
func (l *Limiter) RecordCacheHit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cacheHits++
}

func (l *Limiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}

func (l *Limiter) CacheHits() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cacheHits
}
