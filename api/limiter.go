package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// limiterPool keeps one token bucket per key. Used to throttle report
// submissions per reporter.
type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*rate.Limiter)
	}
	if l, ok := p.m[key]; ok {
		return l
	}
	rps := p.rps
	if rps <= 0 {
		rps = rate.Limit(0.2) // one report per 5s sustained
	}
	burst := p.burst
	if burst <= 0 {
		burst = 3
	}
	l := rate.NewLimiter(rps, burst)
	p.m[key] = l
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}
