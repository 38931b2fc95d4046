package entities

import "time"

type AuditEventType string

const (
	AuditEventBorrow  AuditEventType = "borrow"
	AuditEventReturn  AuditEventType = "return"
	AuditEventCatalog AuditEventType = "catalog"
	AuditEventAuth    AuditEventType = "auth"
	AuditEventOverdue AuditEventType = "overdue"
	AuditEventAccess  AuditEventType = "access"
)

type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusRejected AuditStatus = "rejected"
	AuditStatusFailed   AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "book_borrow", "login"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "book", "loan", "profile"
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
