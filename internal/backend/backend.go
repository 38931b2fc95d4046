// Package backend defines the data store the web layer talks to and its implementations.
//
// Two implementations exist:
//   - SQL: gorm repositories over SQLite, with borrow and return as database transactions
//   - Fixture: an in-memory catalog loaded from a YAML file, for demos and local development
//
// Both share the same rejection messages and fine rules, so pages behave identically
// whichever one is configured.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/entities"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateISBN = books.ErrDuplicateISBN
	ErrInvalidBook   = books.ErrInvalidBook
)

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindSQLite  Kind = "sqlite"
	KindFixture Kind = "fixture"
)

// Backend is the remote data store behind every page.
type Backend interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	ListCategories(ctx context.Context) ([]entities.Category, error)
	ListLoans(ctx context.Context, limit int) ([]entities.Loan, error)
	ListActiveLoans(ctx context.Context, userID uint) ([]entities.Loan, error)
	GetProfile(ctx context.Context, userID uint) (*entities.Profile, error)
	ListProfiles(ctx context.Context) ([]entities.Profile, error)
	InsertBook(ctx context.Context, book *entities.Book) error
	Borrow(ctx context.Context, req entities.BorrowRequest) (entities.BorrowResult, error)
	Return(ctx context.Context, loanID uint) (entities.ReturnResult, error)
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Seeder is implemented by backends that can be loaded from a catalog file.
type Seeder interface {
	EnsureCategory(ctx context.Context, name, description string) (*entities.Category, error)
	InsertBook(ctx context.Context, book *entities.Book) error
}

// ProfileSource supplies member profiles. Accounts always live in the database,
// even when the catalog is served from a fixture.
type ProfileSource interface {
	GetProfileByID(ctx context.Context, id uint) (*entities.Profile, error)
	ListProfiles(ctx context.Context) ([]entities.Profile, error)
}
