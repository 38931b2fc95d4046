package entities

import (
	"fmt"
	"time"
)

// Rejection messages shown to members. They are business outcomes, not errors.
const (
	MsgBorrowed         = "Book borrowed successfully"
	MsgReturned         = "Book returned successfully"
	MsgNoCopies         = "No copies available"
	MsgBookNotFound     = "Book not found"
	MsgProfileNotFound  = "Profile not found"
	MsgLoanNotFound     = "Loan not found"
	MsgLoanNotActive    = "Loan is not active"
	MsgOutstandingFines = "Outstanding fines must be paid before borrowing"
)

type BorrowRequest struct {
	BookID  uint
	UserID  uint
	DueDate time.Time
}

type BorrowResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	LoanID  uint   `json:"loan_id,omitempty"`
}

type ReturnResult struct {
	Success bool    `json:"success"`
	Fine    float64 `json:"fine"`
	Message string  `json:"message"`
}

func RejectBorrow(message string) BorrowResult {
	return BorrowResult{Success: false, Message: message}
}

func RejectReturn(message string) ReturnResult {
	return ReturnResult{Success: false, Message: message}
}

// BorrowBlock returns the reason this profile may not borrow, or "" when it may.
// maxFines of zero disables the fines check.
func (p *Profile) BorrowBlock(maxFines float64) string {
	if p.AccountStatus != "" && p.AccountStatus != AccountStatusActive {
		return fmt.Sprintf("Your account is %s", p.AccountStatus)
	}
	if maxFines > 0 && p.TotalFines > maxFines {
		return MsgOutstandingFines
	}
	return ""
}

// ReturnMessage is the confirmation shown after a successful return.
func ReturnMessage(fine float64) string {
	if fine > 0 {
		return fmt.Sprintf("%s. Fine charged: £%.2f", MsgReturned, fine)
	}
	return MsgReturned
}
