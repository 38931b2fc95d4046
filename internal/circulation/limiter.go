package circulation

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type memberLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memberLimiters hands out one token bucket per member.
type memberLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	members  map[uint]*memberLimiter
	lastScan time.Time
}

func newMemberLimiters(perMinute float64, burst int) *memberLimiters {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60)
	}
	if burst < 1 {
		burst = 1
	}
	return &memberLimiters{
		limit:   limit,
		burst:   burst,
		members: make(map[uint]*memberLimiter),
	}
}

// Allow reports whether the member may make another attempt now.
func (l *memberLimiters) Allow(userID uint, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastScan) > limiterIdleTTL {
		for id, m := range l.members {
			if now.Sub(m.lastSeen) > limiterIdleTTL {
				delete(l.members, id)
			}
		}
		l.lastScan = now
	}

	m, ok := l.members[userID]
	if !ok {
		m = &memberLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.members[userID] = m
	}
	m.lastSeen = now
	return m.limiter.AllowN(now, 1)
}
