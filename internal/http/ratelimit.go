package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	rateWindow   = time.Minute
	rateIdleTTL  = 10 * time.Minute
	rateSweepGap = 5 * time.Minute
)

// rateLimiter counts requests per client IP in fixed one-minute windows.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	windows map[string]*ipWindow
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type ipWindow struct {
	start time.Time
	count int
}

func newRateLimiter(perMinute int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	rl := &rateLimiter{
		limit:   perMinute,
		windows: make(map[string]*ipWindow),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *rateLimiter) sweepLoop() {
	t := time.NewTicker(rateSweepGap)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// sweep forgets clients whose window started more than rateIdleTTL ago.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rateIdleTTL)
	for ip, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *rateLimiter) allow(ip string) bool {
	ok, _ := rl.take(ip)
	return ok
}

// take records one request for ip. When the client is over its limit it
// also returns how long until the window resets.
func (rl *rateLimiter) take(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) >= rateWindow {
		rl.windows[ip] = &ipWindow{start: now, count: 1}
		return true, 0
	}
	w.count++
	if w.count <= rl.limit {
		return true, 0
	}
	return false, rateWindow - now.Sub(w.start)
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.take(extractClientIP(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			ErrorResponse(http.StatusTooManyRequests, "Too many requests").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
