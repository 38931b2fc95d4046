package audit

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/libraryhub/internal/database"
	auditRepo "github.com/mrlokans/libraryhub/internal/database/audit"
	"github.com/mrlokans/libraryhub/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	dbPath := "./test_audit_service_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(database.DSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	})

	return NewService(auditRepo.NewRepository(db)), db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		UserID:    1,
		EventType: entities.AuditEventCatalog,
		Action:    "book_add",
		Status:    entities.AuditStatusSuccess,
	}

	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "book_add", saved.Action)
}

func TestService_LogBorrow(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogBorrow(1, 10, entities.BorrowResult{Success: true, LoanID: 5, Message: entities.MsgBorrowed}, nil)
	svc.LogBorrow(2, 10, entities.RejectBorrow(entities.MsgNoCopies), nil)
	svc.LogBorrow(3, 10, entities.BorrowResult{}, errors.New("database is locked"))
	svc.Wait()

	var events []entities.AuditEvent
	require.NoError(t, db.Order("user_id ASC").Find(&events).Error)
	require.Len(t, events, 3)

	assert.Equal(t, entities.AuditStatusSuccess, events[0].Status)
	assert.Contains(t, events[0].Description, "loan 5")
	require.NotNil(t, events[0].EntityID)
	assert.Equal(t, uint(10), *events[0].EntityID)

	assert.Equal(t, entities.AuditStatusRejected, events[1].Status)
	assert.Equal(t, entities.MsgNoCopies, events[1].Description)

	assert.Equal(t, entities.AuditStatusFailed, events[2].Status)
	assert.Equal(t, "database is locked", events[2].ErrorMsg)
}

func TestService_LogReturnAndSweep(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogReturn(1, 7, entities.ReturnResult{Success: true, Fine: 1.5, Message: "Book returned"}, nil)
	svc.LogOverdueSweep(3, nil)
	svc.Wait()

	var ret entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventReturn).First(&ret).Error)
	assert.Equal(t, "loan", ret.EntityType)
	assert.Equal(t, entities.AuditStatusSuccess, ret.Status)

	var sweep entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventOverdue).First(&sweep).Error)
	assert.Equal(t, "Marked 3 loans overdue", sweep.Description)
}

func TestService_LogAuthAndAccess(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth(1, "login", "127.0.0.1", false)
	svc.LogAccessDenied(2, "/admin", "127.0.0.1")
	svc.Wait()

	var login entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "login").First(&login).Error)
	assert.Equal(t, entities.AuditStatusFailed, login.Status)

	var denied entities.AuditEvent
	require.NoError(t, db.Where("event_type = ?", entities.AuditEventAccess).First(&denied).Error)
	assert.Equal(t, "/admin", denied.Description)
	assert.Equal(t, entities.AuditStatusRejected, denied.Status)
}

func TestService_LogCatalog_TruncatesError(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogCatalog(1, "book_add", "Add book", 0, errors.New(strings.Repeat("x", 600)))
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.First(&event).Error)
	assert.Nil(t, event.EntityID)
	assert.Len(t, event.ErrorMsg, 500)
	assert.True(t, strings.HasSuffix(event.ErrorMsg, "..."))
}

func TestService_DeleteOldEvents(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-100 * 24 * time.Hour)}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{Action: "new"}))

	deleted, err := svc.DeleteOldEvents(ctx, 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&entities.AuditEvent{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
