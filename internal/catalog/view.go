package catalog

import (
	"fmt"

	"github.com/mrlokans/libraryhub/internal/entities"
)

// Card is the template model for one book in the inventory grid.
type Card struct {
	ID           uint
	Title        string
	Author       string
	ISBN         string
	Category     string
	Year         int
	Description  string
	CoverURL     string
	Available    int
	Total        int
	CanBorrow    bool
	Availability string
}

// NewCard builds a card from a book. Negative counts are clamped to zero.
func NewCard(book *entities.Book) Card {
	available := book.AvailableCopies
	if available < 0 {
		available = 0
	}
	return Card{
		ID:           book.ID,
		Title:        book.Title,
		Author:       book.Author,
		ISBN:         book.ISBN,
		Category:     book.CategoryName(),
		Year:         book.PublicationYear,
		Description:  book.Description,
		CoverURL:     book.CoverImageURL,
		Available:    available,
		Total:        book.TotalCopies,
		CanBorrow:    available > 0,
		Availability: fmt.Sprintf("%d of %d available", available, book.TotalCopies),
	}
}

// NewCards maps books to cards in order.
func NewCards(books []entities.Book) []Card {
	cards := make([]Card, 0, len(books))
	for i := range books {
		cards = append(cards, NewCard(&books[i]))
	}
	return cards
}

// AfterBorrow returns a copy of the card with one fewer available copy, never below zero.
func (c Card) AfterBorrow() Card {
	if c.Available > 0 {
		c.Available--
	}
	c.CanBorrow = c.Available > 0
	c.Availability = fmt.Sprintf("%d of %d available", c.Available, c.Total)
	return c
}
