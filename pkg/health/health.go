// Package health aggregates component checks into liveness and readiness
// responses.
package health

import (
	"context"
	"time"
)

// DefaultTimeout bounds a whole round of checks.
const DefaultTimeout = 5 * time.Second

// NewChecker creates a checker with no checks registered. A checker with
// no checks reports healthy.
func NewChecker() *Checker {
	return &Checker{
		started:     time.Now(),
		readyChecks: make(map[string]CheckFunc),
		liveChecks:  make(map[string]CheckFunc),
		timeout:     DefaultTimeout,
	}
}

// RegisterReadinessCheck adds a check that gates serving traffic.
func (hc *Checker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.readyChecks[name] = check
}

// RegisterLivenessCheck adds a check that fails only when the process
// should be restarted.
func (hc *Checker) RegisterLivenessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.liveChecks[name] = check
}

// CheckReadiness runs the readiness checks.
func (hc *Checker) CheckReadiness(ctx context.Context) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.performChecks(ctx, hc.readyChecks)
}

// CheckLiveness runs the liveness checks.
func (hc *Checker) CheckLiveness(ctx context.Context) Response {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.performChecks(ctx, hc.liveChecks)
}

func (hc *Checker) performChecks(ctx context.Context, checks map[string]CheckFunc) Response {
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(hc.started).Seconds(),
	}
	for name, fn := range checks {
		start := time.Now()
		check := fn(ctx)
		if check.Name == "" {
			check.Name = name
		}
		check.Duration = time.Since(start)
		check.LastChecked = start
		response.Checks[name] = check

		// Worst status wins.
		switch {
		case check.Status == StatusUnhealthy:
			response.Status = StatusUnhealthy
		case check.Status == StatusDegraded && response.Status != StatusUnhealthy:
			response.Status = StatusDegraded
		}
	}
	return response
}
