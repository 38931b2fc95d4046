package circulation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemberLimiters_Unlimited(t *testing.T) {
	limiters := newMemberLimiters(0, 0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		assert.True(t, limiters.Allow(1, now))
	}
}

func TestMemberLimiters_PrunesIdleMembers(t *testing.T) {
	limiters := newMemberLimiters(60, 1)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, limiters.Allow(1, start))
	assert.True(t, limiters.Allow(2, start))
	assert.Len(t, limiters.members, 2)

	later := start.Add(limiterIdleTTL + time.Minute)
	assert.True(t, limiters.Allow(3, later))
	assert.Len(t, limiters.members, 1)
}

func TestInflight(t *testing.T) {
	set := newInflight()
	assert.True(t, set.acquire("borrow:1:2"))
	assert.False(t, set.acquire("borrow:1:2"))
	assert.True(t, set.acquire("borrow:1:3"))

	set.release("borrow:1:2")
	assert.False(t, set.busy("borrow:1:2"))
	assert.True(t, set.acquire("borrow:1:2"))

	assert.Equal(t, "borrow:4:5", borrowKey(4, 5))
	assert.Equal(t, "return:6", returnKey(6))
}
