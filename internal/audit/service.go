package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/entities"
)

const writeTimeout = 5 * time.Second

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
// The write is detached from any request context so it survives the response.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			log.Printf("[AUDIT] Failed to log audit event %s: %v", event.Action, err)
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogBorrow records the outcome of a borrow attempt.
func (s *Service) LogBorrow(userID, bookID uint, result entities.BorrowResult, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventBorrow,
		Action:      "book_borrow",
		Description: truncate(result.Message, 500),
		EntityType:  "book",
		EntityID:    &bookID,
	}
	event.Status, event.ErrorMsg = outcome(result.Success, err)
	if result.Success {
		event.Description = fmt.Sprintf("Borrowed book %d as loan %d", bookID, result.LoanID)
	}

	s.LogAsync(event)
}

// LogReturn records the outcome of processing a return.
func (s *Service) LogReturn(actorID, loanID uint, result entities.ReturnResult, err error) {
	event := &entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventReturn,
		Action:      "loan_return",
		Description: truncate(result.Message, 500),
		EntityType:  "loan",
		EntityID:    &loanID,
	}
	event.Status, event.ErrorMsg = outcome(result.Success, err)

	s.LogAsync(event)
}

// LogCatalog records a catalog change such as adding a book.
func (s *Service) LogCatalog(userID uint, action, description string, bookID uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  "book",
		Status:      entities.AuditStatusSuccess,
	}
	if bookID > 0 {
		event.EntityID = &bookID
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogAccessDenied records a member being turned away from an admin page.
func (s *Service) LogAccessDenied(userID uint, path, ipAddr string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAccess,
		Action:      "admin_denied",
		Description: truncate(path, 500),
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusRejected,
	})
}

// LogOverdueSweep records how many loans a sweep marked overdue.
func (s *Service) LogOverdueSweep(marked int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventOverdue,
		Action:      "overdue_sweep",
		Description: fmt.Sprintf("Marked %d loans overdue", marked),
		EntityType:  "loan",
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID uint, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, eventType, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func outcome(success bool, err error) (entities.AuditStatus, string) {
	switch {
	case err != nil:
		return entities.AuditStatusFailed, truncate(err.Error(), 500)
	case success:
		return entities.AuditStatusSuccess, ""
	default:
		return entities.AuditStatusRejected, ""
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
