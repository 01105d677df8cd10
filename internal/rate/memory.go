package rate

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el fixed window local, para un solo proceso.
type MemoryLimiter struct {
	hits   *gocache.Cache
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		hits:   gocache.New(window, 2*window),
		max:    int64(max),
		window: window,
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now().UTC()
	winStart := now.Truncate(l.window)
	k := fmt.Sprintf("%s:%d", key, winStart.Unix())

	// Add falla si ya existe; en ese caso solo se incrementa.
	_ = l.hits.Add(k, int64(0), l.window)
	hits, err := l.hits.IncrementInt64(k, 1)
	if err != nil {
		return Result{}, fmt.Errorf("rate: %w", err)
	}
	return decide(hits, l.max, winStart.Add(l.window).Sub(now)), nil
}
