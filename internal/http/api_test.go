package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/libraryhub/internal/entities"
)

func TestAPI_RequiresSignIn(t *testing.T) {
	app := setupApp(t)
	b := app.browser(t)

	for _, path := range []string{"/api/books", "/api/me", "/api/me/loans", "/api/loans"} {
		w := b.get(path, false)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := b.postJSON("/api/books/1/borrow", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_AdminEndpointsForbidMembers(t *testing.T) {
	app := setupApp(t)
	b, _ := app.signedIn(t, "reader@example.com", entities.ProfileRoleMember)

	w := b.get("/api/loans", false)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.postJSON("/api/books", BookForm{ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert", TotalCopies: 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.postJSON("/api/loans/1/return", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.postJSON("/api/admin/overdue-sweep", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, app.queue.enqueued)
}

func TestAPI_CreateBook(t *testing.T) {
	app := setupApp(t)
	b, _ := app.signedIn(t, "admin@example.com", entities.ProfileRoleAdmin)
	form := BookForm{ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert", TotalCopies: 2}

	w := b.postJSON("/api/books", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.Book](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 2, created.AvailableCopies)

	w = b.postJSON("/api/books", form)
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, CodeDuplicate, resp.Code)

	w = b.postJSON("/api/books", BookForm{ISBN: "9780000000001", Author: "Nobody", TotalCopies: 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp = decode[ErrorResponse](t, w)
	assert.Equal(t, CodeInvalidInput, resp.Code)

	w = b.postJSON("/api/books", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_BorrowAndReturn(t *testing.T) {
	app := setupApp(t)
	book := app.addBook(t, "9780547928227", "The Hobbit", "J.R.R. Tolkien", 1)
	member, _ := app.signedIn(t, "reader@example.com", entities.ProfileRoleMember)
	other, _ := app.signedIn(t, "other@example.com", entities.ProfileRoleMember)
	admin, _ := app.signedIn(t, "admin@example.com", entities.ProfileRoleAdmin)
	borrowPath := fmt.Sprintf("/api/books/%d/borrow", book.ID)

	w := member.postJSON(borrowPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	borrowed := decode[entities.BorrowResult](t, w)
	assert.True(t, borrowed.Success)
	assert.Equal(t, entities.MsgBorrowed, borrowed.Message)
	require.NotZero(t, borrowed.LoanID)

	w = other.postJSON(borrowPath, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	rejected := decode[entities.BorrowResult](t, w)
	assert.False(t, rejected.Success)
	assert.Equal(t, entities.MsgNoCopies, rejected.Message)

	w = member.get("/api/me/loans", false)
	require.Equal(t, http.StatusOK, w.Code)
	loans := decode[[]entities.Loan](t, w)
	require.Len(t, loans, 1)
	assert.Equal(t, borrowed.LoanID, loans[0].ID)

	returnPath := fmt.Sprintf("/api/loans/%d/return", borrowed.LoanID)
	w = admin.postJSON(returnPath, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	returned := decode[entities.ReturnResult](t, w)
	assert.True(t, returned.Success)
	assert.Zero(t, returned.Fine)

	w = admin.postJSON(returnPath, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, entities.MsgLoanNotActive, decode[entities.ReturnResult](t, w).Message)

	w = admin.get("/api/loans", false)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]entities.Loan](t, w)
	require.Len(t, all, 1)
	assert.Equal(t, entities.LoanStatusReturned, all[0].Status)
}

func TestAPI_InvalidIDs(t *testing.T) {
	app := setupApp(t)
	b, _ := app.signedIn(t, "admin@example.com", entities.ProfileRoleAdmin)

	w := b.postJSON("/api/books/abc/borrow", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = b.postJSON("/api/loans/-1/return", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_Reads(t *testing.T) {
	app := setupApp(t)
	app.addBook(t, "9780441013593", "Dune", "Frank Herbert", 2)
	app.addBook(t, "9780547928227", "The Hobbit", "J.R.R. Tolkien", 1)
	b, profile := app.signedIn(t, "reader@example.com", entities.ProfileRoleMember)

	w := b.get("/api/books?q=herbert", false)
	require.Equal(t, http.StatusOK, w.Code)
	books := decode[[]entities.Book](t, w)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	w = b.get("/api/categories", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[[]entities.Category](t, w))

	w = b.get("/api/me", false)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[entities.Profile](t, w)
	assert.Equal(t, profile.ID, me.ID)
	assert.Equal(t, "reader@example.com", me.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = b.get("/api/csrf", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "csrf_token")
}

func TestAPI_OverdueSweep(t *testing.T) {
	app := setupApp(t)
	b, _ := app.signedIn(t, "admin@example.com", entities.ProfileRoleAdmin)

	w := b.postJSON("/api/admin/overdue-sweep", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	resp := decode[SuccessResponse](t, w)
	assert.Equal(t, "task enqueued", resp.Message)
	assert.Equal(t, []string{"admin"}, app.queue.enqueued)

	w = b.postForm("/api/admin/overdue-sweep", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Overdue sweep enqueued")

	w = b.get("/api/admin/tasks/task-123", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestAPI_TaskRoutesAbsentWithoutQueue(t *testing.T) {
	app := setupApp(t, func(cfg *RouterConfig) { cfg.Tasks = nil })
	b, _ := app.signedIn(t, "admin@example.com", entities.ProfileRoleAdmin)

	w := b.postJSON("/api/admin/overdue-sweep", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = b.get(AdminPath+"?tab=loans", false)
	assert.NotContains(t, w.Body.String(), "Run overdue sweep")
}
