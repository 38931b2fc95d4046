package circulation

import (
	"fmt"
	"sync"
)

// inflight tracks requests that are currently being processed so a double-click
// does not dispatch the same borrow or return twice. The backend transaction is
// what actually keeps the counts consistent.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{keys: make(map[string]struct{})}
}

// acquire marks key as in flight. It returns false if it already was.
func (f *inflight) acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.keys[key]; busy {
		return false
	}
	f.keys[key] = struct{}{}
	return true
}

func (f *inflight) release(key string) {
	f.mu.Lock()
	delete(f.keys, key)
	f.mu.Unlock()
}

func (f *inflight) busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.keys[key]
	return ok
}

func (f *inflight) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func borrowKey(userID, bookID uint) string {
	return fmt.Sprintf("borrow:%d:%d", userID, bookID)
}

func returnKey(loanID uint) string {
	return fmt.Sprintf("return:%d", loanID)
}
