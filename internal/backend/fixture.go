package backend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/catalog"
	"github.com/mrlokans/libraryhub/internal/database/books"
	"github.com/mrlokans/libraryhub/internal/entities"
	"github.com/mrlokans/libraryhub/internal/fines"
)

// Fixture keeps the catalog and loans in memory. Profiles come from a ProfileSource;
// fines charged by returns are held here and added on top of the stored balance.
type Fixture struct {
	mu       sync.Mutex
	rules    fines.Rules
	profiles ProfileSource
	now      func() time.Time

	categories map[uint]*entities.Category
	books      map[uint]*entities.Book
	loans      map[uint]*entities.Loan
	fines      map[uint]float64

	nextCategoryID uint
	nextBookID     uint
	nextLoanID     uint
}

func NewFixture(profiles ProfileSource, rules fines.Rules) *Fixture {
	return &Fixture{
		rules:          rules,
		profiles:       profiles,
		now:            time.Now,
		categories:     make(map[uint]*entities.Category),
		books:          make(map[uint]*entities.Book),
		loans:          make(map[uint]*entities.Loan),
		fines:          make(map[uint]float64),
		nextCategoryID: 1,
		nextBookID:     1,
		nextLoanID:     1,
	}
}

// NewFixtureFromFile builds a fixture and seeds it from a catalog file.
func NewFixtureFromFile(ctx context.Context, path string, profiles ProfileSource, rules fines.Rules) (*Fixture, error) {
	file, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	fixture := NewFixture(profiles, rules)
	if _, err := Seed(ctx, fixture, file); err != nil {
		return nil, err
	}
	return fixture, nil
}

// WithClock replaces the time source.
func (f *Fixture) WithClock(now func() time.Time) *Fixture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
	return f
}

func (f *Fixture) ListBooks(ctx context.Context) ([]entities.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]entities.Book, 0, len(f.books))
	for _, book := range f.books {
		result = append(result, f.bookCopy(book))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Title == result[j].Title {
			return result[i].ID < result[j].ID
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

func (f *Fixture) ListCategories(ctx context.Context) ([]entities.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]entities.Category, 0, len(f.categories))
	for _, category := range f.categories {
		result = append(result, *category)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *Fixture) ListLoans(ctx context.Context, limit int) ([]entities.Loan, error) {
	if limit <= 0 {
		limit = 50
	}

	f.mu.Lock()
	result := make([]entities.Loan, 0, len(f.loans))
	for _, loan := range f.loans {
		result = append(result, f.loanCopy(loan))
	}
	f.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].IssueDate.Equal(result[j].IssueDate) {
			return result[i].ID > result[j].ID
		}
		return result[i].IssueDate.After(result[j].IssueDate)
	})
	if len(result) > limit {
		result = result[:limit]
	}

	for i := range result {
		profile, err := f.GetProfile(ctx, result[i].UserID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		result[i].Profile = profile
	}
	return result, nil
}

func (f *Fixture) ListActiveLoans(ctx context.Context, userID uint) ([]entities.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []entities.Loan
	for _, loan := range f.loans {
		if loan.UserID == userID && loan.Status.IsOpen() {
			result = append(result, f.loanCopy(loan))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return result, nil
}

func (f *Fixture) GetProfile(ctx context.Context, userID uint) (*entities.Profile, error) {
	profile, err := f.profiles.GetProfileByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	profile.TotalFines += f.fines[userID]
	f.mu.Unlock()
	return profile, nil
}

func (f *Fixture) ListProfiles(ctx context.Context) ([]entities.Profile, error) {
	profiles, err := f.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range profiles {
		profiles[i].TotalFines += f.fines[profiles[i].ID]
	}
	return profiles, nil
}

func (f *Fixture) InsertBook(ctx context.Context, book *entities.Book) error {
	if err := books.Validate(book); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.books {
		if existing.ISBN == book.ISBN {
			return ErrDuplicateISBN
		}
	}
	if book.CategoryID != nil {
		if _, ok := f.categories[*book.CategoryID]; !ok {
			return ErrNotFound
		}
	}

	book.ID = f.nextBookID
	f.nextBookID++
	book.AvailableCopies = book.TotalCopies
	book.CreatedAt = f.now()

	stored := *book
	stored.Category = nil
	f.books[stored.ID] = &stored
	return nil
}

func (f *Fixture) EnsureCategory(ctx context.Context, name, description string) (*entities.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, category := range f.categories {
		if category.Name == name {
			if category.Description == "" {
				category.Description = description
			}
			copied := *category
			return &copied, nil
		}
	}

	category := &entities.Category{ID: f.nextCategoryID, Name: name, Description: description, CreatedAt: f.now()}
	f.nextCategoryID++
	f.categories[category.ID] = category
	copied := *category
	return &copied, nil
}

// Borrow mirrors the SQL transaction: eligibility, check-and-decrement, open loan.
// The profile is read before taking the lock; the availability check and the
// decrement happen under it.
func (f *Fixture) Borrow(ctx context.Context, req entities.BorrowRequest) (entities.BorrowResult, error) {
	profile, err := f.GetProfile(ctx, req.UserID)
	if errors.Is(err, ErrNotFound) {
		return entities.RejectBorrow(entities.MsgProfileNotFound), nil
	}
	if err != nil {
		return entities.BorrowResult{}, err
	}
	if reason := profile.BorrowBlock(f.rules.MaxOutstanding); reason != "" {
		return entities.RejectBorrow(reason), nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	book, ok := f.books[req.BookID]
	if !ok {
		return entities.RejectBorrow(entities.MsgBookNotFound), nil
	}
	if book.AvailableCopies <= 0 {
		return entities.RejectBorrow(entities.MsgNoCopies), nil
	}
	book.AvailableCopies--

	loan := &entities.Loan{
		ID:        f.nextLoanID,
		BookID:    req.BookID,
		UserID:    req.UserID,
		IssueDate: f.now(),
		DueDate:   req.DueDate,
		Status:    entities.LoanStatusActive,
	}
	f.nextLoanID++
	f.loans[loan.ID] = loan

	return entities.BorrowResult{Success: true, Message: entities.MsgBorrowed, LoanID: loan.ID}, nil
}

func (f *Fixture) Return(ctx context.Context, loanID uint) (entities.ReturnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	loan, ok := f.loans[loanID]
	if !ok {
		return entities.RejectReturn(entities.MsgLoanNotFound), nil
	}
	if !loan.Status.IsOpen() || loan.ReturnDate != nil {
		return entities.RejectReturn(entities.MsgLoanNotActive), nil
	}

	now := f.now()
	fine := f.rules.Schedule.Compute(loan.DueDate, now)

	loan.ReturnDate = &now
	loan.Status = entities.LoanStatusReturned
	loan.FineAmount = &fine
	if fine > 0 {
		f.fines[loan.UserID] += fine
	}
	if book, ok := f.books[loan.BookID]; ok && book.AvailableCopies < book.TotalCopies {
		book.AvailableCopies++
	}

	return entities.ReturnResult{Success: true, Fine: fine, Message: entities.ReturnMessage(fine)}, nil
}

func (f *Fixture) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var marked int64
	for _, loan := range f.loans {
		if loan.Status == entities.LoanStatusActive && loan.DueDate.Before(now) {
			loan.Status = entities.LoanStatusOverdue
			marked++
		}
	}
	return marked, nil
}

func (f *Fixture) Ping(ctx context.Context) error {
	return ctx.Err()
}

// bookCopy must be called with f.mu held.
func (f *Fixture) bookCopy(book *entities.Book) entities.Book {
	copied := *book
	if book.CategoryID != nil {
		if category, ok := f.categories[*book.CategoryID]; ok {
			c := *category
			copied.Category = &c
		}
	}
	return copied
}

// loanCopy must be called with f.mu held.
func (f *Fixture) loanCopy(loan *entities.Loan) entities.Loan {
	copied := *loan
	if book, ok := f.books[loan.BookID]; ok {
		b := f.bookCopy(book)
		copied.Book = &b
	}
	return copied
}
