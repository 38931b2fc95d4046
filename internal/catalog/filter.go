// Package catalog holds the in-process catalog search used by the inventory pages.
//
// The catalog is small enough to be fetched in one query, so search runs over the
// fetched snapshot rather than in SQL:
//
//	books, _ := store.ListBooks(ctx)
//	visible := catalog.Filter(books, c.Query("q"))
package catalog

import (
	"strings"

	"github.com/mrlokans/libraryhub/internal/entities"
)

// Filter returns the books whose title, author or ISBN contains query, ignoring case.
// A blank query returns the input unchanged. Order is preserved.
func Filter(books []entities.Book, query string) []entities.Book {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return books
	}

	matched := make([]entities.Book, 0, len(books))
	for _, book := range books {
		if Matches(&book, needle) {
			matched = append(matched, book)
		}
	}
	return matched
}

// Matches reports whether a single book matches an already lower-cased needle.
func Matches(book *entities.Book, needle string) bool {
	return strings.Contains(strings.ToLower(book.Title), needle) ||
		strings.Contains(strings.ToLower(book.Author), needle) ||
		strings.Contains(strings.ToLower(book.ISBN), needle)
}
