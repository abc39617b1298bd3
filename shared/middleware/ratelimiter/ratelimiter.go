// Package ratelimiter implements keyed token buckets used to throttle login attempts.
package ratelimiter

import (
	"sync"
	"time"
)

// bucket is a single token bucket
type bucket struct {
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
	timer      *time.Timer
	key        string
	parent     *Limiter
}

// Limiter keeps one bucket per key (IP, email fingerprint, "global").
// Buckets idle for longer than expiration are dropped.
type Limiter struct {
	buckets    map[string]*bucket
	mu         sync.RWMutex
	rate       float64 // tokens per second
	capacity   float64
	expiration time.Duration
	now        func() time.Time
}

// New creates a Limiter refilling rate tokens per second up to capacity.
func New(rate float64, capacity float64, expiration time.Duration) *Limiter {
	return &Limiter{
		buckets:    make(map[string]*bucket),
		rate:       rate,
		capacity:   capacity,
		expiration: expiration,
		now:        time.Now,
	}
}

// PerMinute allows n attempts per minute with a burst of n.
func PerMinute(n int) *Limiter {
	return New(float64(n)/60, float64(n), time.Hour)
}

// LoginPerIP bounds password guessing from a single address.
func LoginPerIP() *Limiter { return PerMinute(20) }

// LoginPerEmail bounds guessing against a single account from many addresses.
func LoginPerEmail() *Limiter { return PerMinute(5) }

// LoginGlobal caps total bcrypt work per second.
func LoginGlobal() *Limiter { return New(50, 100, time.Hour) }

func (l *Limiter) cleanup(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

func (b *bucket) resetTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.parent.expiration, func() {
		b.parent.cleanup(b.key)
	})
}

func (l *Limiter) getBucket(key string) *bucket {
	l.mu.RLock()
	b, exists := l.buckets[key]
	l.mu.RUnlock()

	if exists {
		b.resetTimer()
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	b, exists = l.buckets[key]
	if exists {
		b.resetTimer()
		return b
	}

	b = &bucket{
		tokens:     l.capacity,
		lastRefill: l.now(),
		key:        key,
		parent:     l,
	}
	l.buckets[key] = b
	b.resetTimer()

	return b
}

func (b *bucket) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.parent.rate
		if b.tokens > b.parent.capacity {
			b.tokens = b.parent.capacity
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Allow takes a token from key's bucket, reporting false when it is empty.
func (l *Limiter) Allow(key string) bool {
	return l.getBucket(key).allow(l.now())
}

// Len reports the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

// Stop cancels every expiration timer.
func (l *Limiter) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, b := range l.buckets {
		b.mu.Lock()
		if b.timer != nil {
			b.timer.Stop()
		}
		b.mu.Unlock()
	}
}
