package auth

import "context"

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot notification carried across a redirect.
type Flash struct {
	Kind    FlashKind
	Message string
}

// AddFlash queues a notification for the next rendered page.
func (sm *SessionManager) AddFlash(ctx context.Context, kind FlashKind, message string) {
	if sm == nil || !sm.Loaded(ctx) {
		return
	}
	flashes, _ := sm.Get(ctx, SessionKeyFlash).([]Flash)
	sm.Put(ctx, SessionKeyFlash, append(flashes, Flash{Kind: kind, Message: message}))
}

// PopFlashes returns and clears the queued notifications.
func (sm *SessionManager) PopFlashes(ctx context.Context) []Flash {
	if sm == nil || !sm.Loaded(ctx) {
		return nil
	}
	flashes, _ := sm.Pop(ctx, SessionKeyFlash).([]Flash)
	return flashes
}
