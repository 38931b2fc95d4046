package backend

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/entities"
)

// SeedReport counts what a Seed call did.
type SeedReport struct {
	Categories int
	Inserted   int
	Skipped    int
}

// Seed loads categories and books from a catalog file. Books whose ISBN already
// exists are skipped so the command can be re-run safely.
func Seed(ctx context.Context, store Seeder, file *catalog.File) (SeedReport, error) {
	var report SeedReport
	categoryIDs := make(map[string]uint)

	for _, entry := range file.Categories {
		category, err := store.EnsureCategory(ctx, entry.Name, entry.Description)
		if err != nil {
			return report, fmt.Errorf("category %q: %w", entry.Name, err)
		}
		categoryIDs[entry.Name] = category.ID
		report.Categories++
	}

	for _, entry := range file.Books {
		book := &entities.Book{
			ISBN:            entry.ISBN,
			Title:           entry.Title,
			Author:          entry.Author,
			PublicationYear: entry.Year,
			TotalCopies:     entry.Copies,
			Description:     entry.Description,
			CoverImageURL:   entry.CoverURL,
		}

		if entry.Category != "" {
			id, ok := categoryIDs[entry.Category]
			if !ok {
				category, err := store.EnsureCategory(ctx, entry.Category, "")
				if err != nil {
					return report, fmt.Errorf("category %q: %w", entry.Category, err)
				}
				id = category.ID
				categoryIDs[entry.Category] = id
				report.Categories++
			}
			book.CategoryID = &id
		}

		err := store.InsertBook(ctx, book)
		switch {
		case errors.Is(err, ErrDuplicateISBN):
			report.Skipped++
		case err != nil:
			return report, fmt.Errorf("book %q: %w", entry.ISBN, err)
		default:
			report.Inserted++
		}
	}

	log.Printf("Seeded catalog: %d categories, %d books inserted, %d skipped", report.Categories, report.Inserted, report.Skipped)
	return report, nil
}
