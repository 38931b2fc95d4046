package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/entities"
)

const (
	AdminPath = "/admin"

	// AdminLoanLimit caps the loan table on the admin page.
	AdminLoanLimit = 50
)

var adminTabs = map[string]bool{"books": true, "loans": true, "members": true}

// BookForm is the add-book input, shared by the admin form and the JSON API.
type BookForm struct {
	ISBN            string `form:"isbn" json:"isbn"`
	Title           string `form:"title" json:"title"`
	Author          string `form:"author" json:"author"`
	CategoryID      uint   `form:"category_id" json:"category_id"`
	PublicationYear int    `form:"publication_year" json:"publication_year"`
	TotalCopies     int    `form:"total_copies" json:"total_copies"`
	Description     string `form:"description" json:"description"`
	CoverImageURL   string `form:"cover_image_url" json:"cover_image_url"`
}

// Book converts the form into a new catalog entry with every copy available.
func (f BookForm) Book() *entities.Book {
	book := &entities.Book{
		ISBN:            strings.TrimSpace(f.ISBN),
		Title:           strings.TrimSpace(f.Title),
		Author:          strings.TrimSpace(f.Author),
		PublicationYear: f.PublicationYear,
		TotalCopies:     f.TotalCopies,
		AvailableCopies: f.TotalCopies,
		Description:     strings.TrimSpace(f.Description),
		CoverImageURL:   strings.TrimSpace(f.CoverImageURL),
	}
	if f.CategoryID != 0 {
		id := f.CategoryID
		book.CategoryID = &id
	}
	return book
}

// addBookMessage maps an insert error to what the admin sees.
func addBookMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrDuplicateISBN):
		return "A book with this ISBN already exists"
	case errors.Is(err, backend.ErrNotFound):
		return "Could not add book: unknown category"
	case errors.Is(err, backend.ErrInvalidBook):
		return "Could not add book: " + strings.TrimPrefix(err.Error(), backend.ErrInvalidBook.Error()+": ")
	default:
		return "Failed to add book: " + err.Error()
	}
}

// isBookRejection reports whether an insert failed on the admin's input rather than the store.
func isBookRejection(err error) bool {
	return errors.Is(err, backend.ErrDuplicateISBN) ||
		errors.Is(err, backend.ErrInvalidBook) ||
		errors.Is(err, backend.ErrNotFound)
}

type AdminController struct {
	pages
	store       backend.Backend
	circulation *circulation.Service
	auditor     Auditor

	// tasksEnabled shows the manual overdue sweep button.
	tasksEnabled bool
}

func NewAdminController(store backend.Backend, circ *circulation.Service, sessions *auth.SessionManager, auditor Auditor) *AdminController {
	return &AdminController{
		pages:       pages{sessions: sessions},
		store:       store,
		circulation: circ,
		auditor:     auditor,
	}
}

// AdminPage handles GET /admin
func (ac *AdminController) AdminPage(c *gin.Context) {
	ctx := c.Request.Context()
	tab := c.DefaultQuery("tab", "books")
	if !adminTabs[tab] {
		tab = "books"
	}

	data := ac.data(c, "Administration", "admin")
	data["Tab"] = tab
	data["TasksEnabled"] = ac.tasksEnabled
	flashes := data["Flashes"].([]auth.Flash)
	status := http.StatusOK
	fail := func(what string, err error) {
		flashes = append(flashes, auth.Flash{Kind: auth.FlashError, Message: "Failed to load " + what + ": " + err.Error()})
		status = http.StatusInternalServerError
	}

	categories, err := ac.store.ListCategories(ctx)
	if err != nil {
		fail("categories", err)
	}
	loans, err := ac.store.ListLoans(ctx, AdminLoanLimit)
	if err != nil {
		fail("loans", err)
	}
	members, err := ac.store.ListProfiles(ctx)
	if err != nil {
		fail("members", err)
	}

	data["Flashes"] = flashes
	data["Categories"] = categories
	data["Loans"] = loans
	data["Members"] = members
	data["Profile"], _ = c.Get(auth.ContextKeyProfile)
	c.HTML(status, "admin", data)
}

// AddBook handles POST /admin/books
func (ac *AdminController) AddBook(c *gin.Context) {
	var form BookForm
	if err := c.ShouldBind(&form); err != nil {
		ac.flash(c, auth.FlashWarning, "Invalid form input")
		c.Redirect(http.StatusSeeOther, AdminPath+"?tab=books")
		return
	}

	book := form.Book()
	err := ac.store.InsertBook(c.Request.Context(), book)
	ac.logCatalog(c, book, err)
	switch {
	case err == nil:
		ac.flash(c, auth.FlashSuccess, fmt.Sprintf("Added %q to the catalog", book.Title))
	case isBookRejection(err):
		ac.flash(c, auth.FlashWarning, addBookMessage(err))
	default:
		ac.flash(c, auth.FlashError, addBookMessage(err))
	}
	c.Redirect(http.StatusSeeOther, AdminPath+"?tab=books")
}

// ProcessReturn handles POST /admin/loans/:id/return
// The loan table is always re-fetched afterwards; nothing is patched locally.
func (ac *AdminController) ProcessReturn(c *gin.Context) {
	kind, message := auth.FlashWarning, entities.MsgLoanNotFound
	if loanID, err := parseID(c.Param("id")); err == nil {
		result, err := ac.circulation.Return(c.Request.Context(), auth.GetUserID(c), loanID)
		switch {
		case err != nil:
			kind, message = auth.FlashError, "Failed to process return: "+err.Error()
		case !result.Success:
			kind, message = auth.FlashWarning, result.Message
		default:
			kind, message = auth.FlashSuccess, result.Message
		}
	}

	if isHTMXRequest(c) {
		flashes := notify(kind, message)
		loans, err := ac.store.ListLoans(c.Request.Context(), AdminLoanLimit)
		if err != nil {
			flashes = append(flashes, auth.Flash{Kind: auth.FlashError, Message: "Failed to load loans: " + err.Error()})
		}
		c.HTML(http.StatusOK, "return-result", gin.H{
			"Auth":    GetAuthTemplateData(c),
			"Loans":   loans,
			"Flashes": flashes,
		})
		return
	}

	ac.flash(c, kind, message)
	c.Redirect(http.StatusSeeOther, AdminPath+"?tab=loans")
}

func (ac *AdminController) logCatalog(c *gin.Context, book *entities.Book, err error) {
	if ac.auditor == nil {
		return
	}
	ac.auditor.LogCatalog(auth.GetUserID(c), "add_book", fmt.Sprintf("Add %q (%s)", book.Title, book.ISBN), book.ID, err)
}
