// Package loans owns the two circulation transactions and the loan listings.
//
// Borrow and Return are the only code paths that create or close loans and the only ones
// that move a book's available_copies after it has been added to the catalog.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/fines"
)

// DefaultListLimit caps the admin loan table.
const DefaultListLimit = 50

// Repository handles loan database operations.
type Repository struct {
	db    *gorm.DB
	rules fines.Rules
	now   func() time.Time
}

// NewRepository creates a loans repository that charges fines according to rules.
func NewRepository(db *gorm.DB, rules fines.Rules) *Repository {
	return &Repository{db: db, rules: rules, now: time.Now}
}

// WithClock replaces the time source. Used by tests and the overdue sweep.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// Borrow checks the member, takes one copy and opens a loan in a single transaction.
// Losing a race for the last copy is reported as an unsuccessful result, not an error.
func (r *Repository) Borrow(ctx context.Context, req entities.BorrowRequest) (entities.BorrowResult, error) {
	var result entities.BorrowResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var profile entities.Profile
		if err := tx.First(&profile, req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = entities.RejectBorrow(entities.MsgProfileNotFound)
				return nil
			}
			return fmt.Errorf("load profile: %w", err)
		}
		if reason := profile.BorrowBlock(r.rules.MaxOutstanding); reason != "" {
			result = entities.RejectBorrow(reason)
			return nil
		}

		var exists int64
		if err := tx.Model(&entities.Book{}).Where("id = ?", req.BookID).Count(&exists).Error; err != nil {
			return fmt.Errorf("load book: %w", err)
		}
		if exists == 0 {
			result = entities.RejectBorrow(entities.MsgBookNotFound)
			return nil
		}

		update := tx.Model(&entities.Book{}).
			Where("id = ? AND available_copies > 0", req.BookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
		if update.Error != nil {
			return fmt.Errorf("decrement availability: %w", update.Error)
		}
		if update.RowsAffected == 0 {
			result = entities.RejectBorrow(entities.MsgNoCopies)
			return nil
		}

		loan := entities.Loan{
			BookID:    req.BookID,
			UserID:    req.UserID,
			IssueDate: r.now(),
			DueDate:   req.DueDate,
			Status:    entities.LoanStatusActive,
		}
		if err := tx.Omit("Book", "Profile").Create(&loan).Error; err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		result = entities.BorrowResult{Success: true, Message: entities.MsgBorrowed, LoanID: loan.ID}
		return nil
	})
	if err != nil {
		return entities.BorrowResult{}, err
	}
	return result, nil
}

// Return closes an open loan, charges any fine to the member and gives the copy back.
func (r *Repository) Return(ctx context.Context, loanID uint) (entities.ReturnResult, error) {
	var result entities.ReturnResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan entities.Loan
		if err := tx.First(&loan, loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result = entities.RejectReturn(entities.MsgLoanNotFound)
				return nil
			}
			return fmt.Errorf("load loan: %w", err)
		}
		if !loan.Status.IsOpen() || loan.ReturnDate != nil {
			result = entities.RejectReturn(entities.MsgLoanNotActive)
			return nil
		}

		now := r.now()
		fine := r.rules.Schedule.Compute(loan.DueDate, now)

		closed := tx.Model(&entities.Loan{}).
			Where("id = ? AND status IN ?", loan.ID, []entities.LoanStatus{entities.LoanStatusActive, entities.LoanStatusOverdue}).
			Updates(map[string]any{
				"return_date": now,
				"status":      entities.LoanStatusReturned,
				"fine_amount": fine,
			})
		if closed.Error != nil {
			return fmt.Errorf("close loan: %w", closed.Error)
		}
		if closed.RowsAffected == 0 {
			result = entities.RejectReturn(entities.MsgLoanNotActive)
			return nil
		}

		if fine > 0 {
			charged := tx.Model(&entities.Profile{}).
				Where("id = ?", loan.UserID).
				UpdateColumn("total_fines", gorm.Expr("total_fines + ?", fine))
			if charged.Error != nil {
				return fmt.Errorf("charge fine: %w", charged.Error)
			}
		}

		restocked := tx.Model(&entities.Book{}).
			Where("id = ? AND available_copies < total_copies", loan.BookID).
			UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
		if restocked.Error != nil {
			return fmt.Errorf("increment availability: %w", restocked.Error)
		}

		result = entities.ReturnResult{Success: true, Fine: fine, Message: entities.ReturnMessage(fine)}
		return nil
	})
	if err != nil {
		return entities.ReturnResult{}, err
	}
	return result, nil
}

// MarkOverdue flips active loans whose due date has passed to overdue and returns how many changed.
func (r *Repository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("status = ? AND due_date < ?", entities.LoanStatusActive, now).
		UpdateColumn("status", entities.LoanStatusOverdue)
	return result.RowsAffected, result.Error
}

// ListLoans returns the most recently issued loans with their book and borrower.
func (r *Repository) ListLoans(ctx context.Context, limit int) ([]entities.Loan, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var loans []entities.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Profile").
		Order("issue_date DESC").
		Limit(limit).
		Find(&loans).Error
	return loans, err
}

// ListActiveLoans returns a member's open loans, soonest due first.
func (r *Repository) ListActiveLoans(ctx context.Context, userID uint) ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ? AND status IN ?", userID, []entities.LoanStatus{entities.LoanStatusActive, entities.LoanStatusOverdue}).
		Order("due_date ASC").
		Find(&loans).Error
	return loans, err
}

// GetLoanByID retrieves a single loan with its book and borrower.
func (r *Repository) GetLoanByID(ctx context.Context, id uint) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.db.WithContext(ctx).Preload("Book").Preload("Profile").First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}
