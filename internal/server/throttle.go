// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/glowbook/waitlist/internal/clientip"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// floodGuard is an in-process token-bucket limiter per client address. It
// sits in front of the persistent fixed-window limiter and only absorbs
// outright request floods; the real submission quota lives in the counter
// store.
type floodGuard struct {
	mu       sync.Mutex
	buckets  map[string]*floodBucket
	resolver *clientip.Resolver
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
}

type floodBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newFloodGuard(resolver *clientip.Resolver, rps float64, burst int) *floodGuard {
	return &floodGuard{
		buckets:  make(map[string]*floodBucket),
		resolver: resolver,
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  15 * time.Minute,
	}
}

// middleware rejects requests whose per-IP bucket is empty with a plain 429.
func (g *floodGuard) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := g.resolver.FromRequest(c.Request())
			if !g.get(ip).Allow() {
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"message": "Too many requests. Please try again later.",
				})
			}
			return next(c)
		}
	}
}

func (g *floodGuard) get(ip string) *rate.Limiter {
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.buckets[ip]; ok {
		b.lastSeen = now
		return b.lim
	}

	lim := rate.NewLimiter(g.rps, g.burst)
	g.buckets[ip] = &floodBucket{lim: lim, lastSeen: now}
	return lim
}

// startJanitor evicts idle buckets until ctx is done.
func (g *floodGuard) startJanitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.cleanup()
			}
		}
	}()
}

func (g *floodGuard) cleanup() {
	cutoff := time.Now().Add(-g.idleTTL)

	g.mu.Lock()
	defer g.mu.Unlock()

	for ip, b := range g.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(g.buckets, ip)
		}
	}
}

func (g *floodGuard) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buckets)
}
