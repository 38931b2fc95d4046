package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
)

// APIController exposes the reads and writes of every page as JSON.
type APIController struct {
	store       backend.Backend
	circulation *circulation.Service
	auditor     Auditor
}

func NewAPIController(store backend.Backend, circ *circulation.Service, auditor Auditor) *APIController {
	return &APIController{store: store, circulation: circ, auditor: auditor}
}

// CSRFToken handles GET /api/csrf and returns the token unsafe API calls must send
// in the X-CSRF-Token header.
func (ac *APIController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}

// ListBooks handles GET /api/books?q=
func (ac *APIController) ListBooks(c *gin.Context) {
	books, err := ac.store.ListBooks(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, catalog.Filter(books, c.Query("q")))
}

// ListCategories handles GET /api/categories
func (ac *APIController) ListCategories(c *gin.Context) {
	categories, err := ac.store.ListCategories(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ListLoans handles GET /api/loans?limit=
func (ac *APIController) ListLoans(c *gin.Context) {
	loans, err := ac.store.ListLoans(c.Request.Context(), parseLimit(c, AdminLoanLimit, 200))
	if err != nil {
		respondInternalError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, loans)
}

// Me handles GET /api/me
func (ac *APIController) Me(c *gin.Context) {
	profile, err := ac.store.GetProfile(c.Request.Context(), auth.GetUserID(c))
	if errors.Is(err, backend.ErrNotFound) {
		respondNotFound(c, "profile")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// MyLoans handles GET /api/me/loans
func (ac *APIController) MyLoans(c *gin.Context) {
	loans, err := ac.store.ListActiveLoans(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list active loans")
		return
	}
	c.JSON(http.StatusOK, loans)
}

// CreateBook handles POST /api/books
func (ac *APIController) CreateBook(c *gin.Context) {
	var form BookForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body", CodeInvalidInput)
		return
	}

	book := form.Book()
	err := ac.store.InsertBook(c.Request.Context(), book)
	if ac.auditor != nil {
		ac.auditor.LogCatalog(auth.GetUserID(c), "add_book", "Add "+book.Title+" via API", book.ID, err)
	}
	switch {
	case err == nil:
		respondCreated(c, book)
	case errors.Is(err, backend.ErrDuplicateISBN):
		respondError(c, http.StatusConflict, addBookMessage(err), CodeDuplicate)
	case isBookRejection(err):
		respondError(c, http.StatusBadRequest, addBookMessage(err), CodeInvalidInput)
	default:
		respondInternalError(c, err, "insert book")
	}
}

// Borrow handles POST /api/books/:id/borrow
func (ac *APIController) Borrow(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := ac.circulation.Borrow(c.Request.Context(), auth.GetUserID(c), bookID)
	if err != nil {
		respondInternalError(c, err, "borrow")
		return
	}
	if !result.Success {
		respondRejected(c, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Return handles POST /api/loans/:id/return
func (ac *APIController) Return(c *gin.Context) {
	loanID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := ac.circulation.Return(c.Request.Context(), auth.GetUserID(c), loanID)
	if err != nil {
		respondInternalError(c, err, "return")
		return
	}
	if !result.Success {
		respondRejected(c, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
