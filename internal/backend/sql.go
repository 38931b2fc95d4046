package backend

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/database/loans"
	"github.com/mrlokans/libraryhub/internal/database/profiles"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/fines"
)

// SQL serves every call from the application database.
type SQL struct {
	db       *database.Database
	books    *books.Repository
	loans    *loans.Repository
	profiles *profiles.Repository
}

func NewSQL(db *database.Database, rules fines.Rules) *SQL {
	return &SQL{
		db:       db,
		books:    books.NewRepository(db.DB),
		loans:    loans.NewRepository(db.DB, rules),
		profiles: profiles.NewRepository(db.DB),
	}
}

func (s *SQL) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return s.books.ListBooks(ctx)
}

func (s *SQL) ListCategories(ctx context.Context) ([]entities.Category, error) {
	return s.books.ListCategories(ctx)
}

func (s *SQL) ListLoans(ctx context.Context, limit int) ([]entities.Loan, error) {
	return s.loans.ListLoans(ctx, limit)
}

func (s *SQL) ListActiveLoans(ctx context.Context, userID uint) ([]entities.Loan, error) {
	return s.loans.ListActiveLoans(ctx, userID)
}

func (s *SQL) GetProfile(ctx context.Context, userID uint) (*entities.Profile, error) {
	profile, err := s.profiles.GetProfileByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return profile, err
}

func (s *SQL) ListProfiles(ctx context.Context) ([]entities.Profile, error) {
	return s.profiles.ListProfiles(ctx)
}

func (s *SQL) InsertBook(ctx context.Context, book *entities.Book) error {
	return s.books.InsertBook(ctx, book)
}

func (s *SQL) EnsureCategory(ctx context.Context, name, description string) (*entities.Category, error) {
	category, err := s.books.GetOrCreateCategory(ctx, name)
	if err != nil {
		return nil, err
	}
	if description != "" && category.Description == "" {
		category.Description = description
		if err := s.db.DB.WithContext(ctx).Model(category).Update("description", description).Error; err != nil {
			return nil, err
		}
	}
	return category, nil
}

func (s *SQL) Borrow(ctx context.Context, req entities.BorrowRequest) (entities.BorrowResult, error) {
	return s.loans.Borrow(ctx, req)
}

func (s *SQL) Return(ctx context.Context, loanID uint) (entities.ReturnResult, error) {
	return s.loans.Return(ctx, loanID)
}

func (s *SQL) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.loans.MarkOverdue(ctx, now)
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
