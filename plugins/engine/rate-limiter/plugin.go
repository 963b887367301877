package rate_limiter

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/rom8726/caseflow"
)

var _ caseflow.Plugin = (*RateLimiterPlugin)(nil)

// RateLimiterPlugin limits step attempts per template and step id. A rejected
// attempt counts as a failed attempt and goes through the step's retry policy.
type RateLimiterPlugin struct {
	caseflow.BasePlugin

	limit    rate.Limit
	burst    int
	wait     bool
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

type Option func(p *RateLimiterPlugin)

// WithWait makes the plugin block until a token is available instead of
// rejecting the attempt.
func WithWait() Option {
	return func(p *RateLimiterPlugin) {
		p.wait = true
	}
}

func New(limit rate.Limit, burst int, opts ...Option) *RateLimiterPlugin {
	p := &RateLimiterPlugin{
		BasePlugin: caseflow.NewBasePlugin("rate_limiter", caseflow.PriorityHigh),
		limit:      limit,
		burst:      max(burst, 1),
		limiters:   make(map[string]*rate.Limiter),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *RateLimiterPlugin) OnStepStart(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
) error {
	key := fmt.Sprintf("%s:%s", exec.TemplateName, step.ID)
	limiter := p.limiter(key)

	if p.wait {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait for %s: %w", key, err)
		}

		return nil
	}

	if !limiter.Allow() {
		return fmt.Errorf("rate limit exceeded for %s", key)
	}

	return nil
}

func (p *RateLimiterPlugin) limiter(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	limiter, ok := p.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = limiter
	}

	return limiter
}
