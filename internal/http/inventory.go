package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/backend"
	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/circulation"
	"github.com/mrlokans/libraryhub/internal/entities"
)

const InventoryPath = "/inventory"

// InventoryController serves the catalog pages and the borrow action.
type InventoryController struct {
	pages
	store       backend.Backend
	circulation *circulation.Service
}

func NewInventoryController(store backend.Backend, circ *circulation.Service, sessions *auth.SessionManager) *InventoryController {
	return &InventoryController{
		pages:       pages{sessions: sessions},
		store:       store,
		circulation: circ,
	}
}

// InventoryPage handles GET /inventory
func (ic *InventoryController) InventoryPage(c *gin.Context) {
	query := c.Query("q")
	data := ic.data(c, "Catalog", "inventory")
	data["Query"] = query

	books, err := ic.store.ListBooks(c.Request.Context())
	if err != nil {
		data["Flashes"] = append(data["Flashes"].([]auth.Flash), auth.Flash{
			Kind:    auth.FlashError,
			Message: "Failed to load catalog: " + err.Error(),
		})
		data["Cards"] = []catalog.Card{}
		c.HTML(http.StatusInternalServerError, "inventory", data)
		return
	}

	cards := catalog.NewCards(catalog.Filter(books, query))
	data["Cards"] = cards
	data["Total"] = len(books)
	data["Shown"] = len(cards)
	c.HTML(http.StatusOK, "inventory", data)
}

// Search handles GET /inventory/search and renders only the book grid.
// Every keystroke re-filters a fresh snapshot.
func (ic *InventoryController) Search(c *gin.Context) {
	query := c.Query("q")
	books, err := ic.store.ListBooks(c.Request.Context())
	if err != nil {
		c.HTML(http.StatusInternalServerError, "book-grid", gin.H{
			"Auth":   GetAuthTemplateData(c),
			"Cards":  []catalog.Card{},
			"Query":  query,
			"Notify": notify(auth.FlashError, "Failed to load catalog: "+err.Error()),
		})
		return
	}

	cards := catalog.NewCards(catalog.Filter(books, query))
	c.HTML(http.StatusOK, "book-grid", gin.H{
		"Auth":  GetAuthTemplateData(c),
		"Cards": cards,
		"Query": query,
		"Total": len(books),
		"Shown": len(cards),
	})
}

// Borrow handles POST /inventory/:id/borrow
// HTMX requests get the card back with the count patched locally; other
// requests are redirected to the catalog, which re-fetches.
func (ic *InventoryController) Borrow(c *gin.Context) {
	bookID, err := parseID(c.Param("id"))
	if err != nil {
		ic.flash(c, auth.FlashWarning, entities.MsgBookNotFound)
		c.Redirect(http.StatusSeeOther, InventoryPath)
		return
	}

	ctx := c.Request.Context()
	card, found := ic.findCard(ctx, bookID)

	kind, message, borrowed := ic.borrow(ctx, auth.GetUserID(c), bookID)

	if isHTMXRequest(c) {
		data := gin.H{
			"Auth":    GetAuthTemplateData(c),
			"Flashes": notify(kind, message),
		}
		if !borrowed {
			// Another member may have taken the last copy since the snapshot
			card, found = ic.findCard(ctx, bookID)
		} else if found {
			card = card.AfterBorrow()
		}
		if found {
			data["Card"] = card
		}
		c.HTML(http.StatusOK, "borrow-result", data)
		return
	}

	ic.flash(c, kind, message)
	c.Redirect(http.StatusSeeOther, InventoryPath)
}

// borrow runs the transaction and picks the notification for its outcome.
func (ic *InventoryController) borrow(ctx context.Context, userID, bookID uint) (auth.FlashKind, string, bool) {
	result, err := ic.circulation.Borrow(ctx, userID, bookID)
	switch {
	case err != nil:
		return auth.FlashError, "Failed to borrow book: " + err.Error(), false
	case !result.Success:
		return auth.FlashWarning, result.Message, false
	default:
		return auth.FlashSuccess, result.Message, true
	}
}

// findCard looks the book up in a fresh snapshot of the catalog.
func (ic *InventoryController) findCard(ctx context.Context, bookID uint) (catalog.Card, bool) {
	books, err := ic.store.ListBooks(ctx)
	if err != nil {
		return catalog.Card{}, false
	}
	for i := range books {
		if books[i].ID == bookID {
			return catalog.NewCard(&books[i]), true
		}
	}
	return catalog.Card{}, false
}
