package health

import "context"

// LexiconCheck reports unhealthy while the served lexicon is empty.
func LexiconCheck(words func() int) CheckFunc {
	return func(ctx context.Context) Check {
		n := words()
		check := Check{Name: "lexicon", Details: map[string]any{"words": n}}
		if n == 0 {
			check.Status = StatusUnhealthy
			check.Message = "No words loaded"
			return check
		}
		check.Status = StatusHealthy
		return check
	}
}

// UpstreamCheck pings a remote etymology service.
func UpstreamCheck(name string, ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: name}
		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		check.Status = StatusHealthy
		check.Message = "Connected"
		return check
	}
}

// CacheCheck degrades rather than fails: lookups still work without the
// response cache, only slower.
func CacheCheck(probe func() error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: "cache"}
		if err := probe(); err != nil {
			check.Status = StatusDegraded
			check.Message = err.Error()
			return check
		}
		check.Status = StatusHealthy
		return check
	}
}
