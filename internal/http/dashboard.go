package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// LoanRow is one line of the member's active loans table.
type LoanRow struct {
	ID        uint
	Title     string
	Author    string
	IssueDate time.Time
	DueDate   time.Time
	DaysLeft  int
	Overdue   bool
}

// DueLabel reads "N days left" or "Overdue".
func (r LoanRow) DueLabel() string {
	switch {
	case r.Overdue:
		return "Overdue"
	case r.DaysLeft == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", r.DaysLeft)
	}
}

// NewLoanRows keeps the backend order (due date ascending).
func NewLoanRows(loans []entities.Loan, now time.Time) []LoanRow {
	rows := make([]LoanRow, 0, len(loans))
	for i := range loans {
		loan := &loans[i]
		row := LoanRow{
			ID:        loan.ID,
			IssueDate: loan.IssueDate,
			DueDate:   loan.DueDate,
			DaysLeft:  loan.DaysUntilDue(now),
		}
		row.Overdue = row.DaysLeft <= 0 || loan.Status == entities.LoanStatusOverdue
		if loan.Book != nil {
			row.Title = loan.Book.Title
			row.Author = loan.Book.Author
		}
		rows = append(rows, row)
	}
	return rows
}

type DashboardController struct {
	pages
	store backend.Backend
	now   func() time.Time
}

func NewDashboardController(store backend.Backend, sessions *auth.SessionManager) *DashboardController {
	return &DashboardController{
		pages: pages{sessions: sessions},
		store: store,
		now:   time.Now,
	}
}

// DashboardPage handles GET /dashboard
func (dc *DashboardController) DashboardPage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.GetUserID(c)
	data := dc.data(c, "Dashboard", "dashboard")
	flashes := data["Flashes"].([]auth.Flash)

	profile, err := dc.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		flashes = append(flashes, auth.Flash{Kind: auth.FlashWarning, Message: entities.MsgProfileNotFound})
	case err != nil:
		data["Flashes"] = append(flashes, auth.Flash{Kind: auth.FlashError, Message: "Failed to load profile: " + err.Error()})
		c.HTML(http.StatusInternalServerError, "dashboard", data)
		return
	}

	loans, err := dc.store.ListActiveLoans(ctx, userID)
	if err != nil {
		data["Profile"] = profile
		data["Flashes"] = append(flashes, auth.Flash{Kind: auth.FlashError, Message: "Failed to load loans: " + err.Error()})
		c.HTML(http.StatusInternalServerError, "dashboard", data)
		return
	}

	rows := NewLoanRows(loans, dc.now())
	data["Flashes"] = flashes
	data["Profile"] = profile
	data["Loans"] = rows
	data["ActiveLoans"] = len(rows)
	c.HTML(http.StatusOK, "dashboard", data)
}
