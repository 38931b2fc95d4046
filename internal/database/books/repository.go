// Package books provides database operations for the catalog: books and their categories.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	all, err := repo.ListBooks(ctx)
package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
)

var (
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
	ErrInvalidBook   = errors.New("invalid book")
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListBooks returns every book with its category, ordered by title.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Preload("Category").Order("title ASC").Find(&books).Error
	return books, err
}

// GetBookByID retrieves a book by ID with its category.
func (r *Repository) GetBookByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Category").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// FindBookByISBN retrieves a book by its ISBN.
func (r *Repository) FindBookByISBN(ctx context.Context, isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Where("isbn = ?", isbn).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// InsertBook validates and creates a book. Available copies always start equal to total.
func (r *Repository) InsertBook(ctx context.Context, book *entities.Book) error {
	if err := Validate(book); err != nil {
		return err
	}
	book.AvailableCopies = book.TotalCopies

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Book{}).Where("isbn = ?", book.ISBN).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateISBN
		}
		return tx.Omit("Category").Create(book).Error
	})
}

// Validate normalises the user-supplied fields of a new book and checks them.
func Validate(book *entities.Book) error {
	book.ISBN = strings.TrimSpace(book.ISBN)
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)

	switch {
	case book.ISBN == "":
		return fmt.Errorf("%w: ISBN is required", ErrInvalidBook)
	case book.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidBook)
	case book.Author == "":
		return fmt.Errorf("%w: author is required", ErrInvalidBook)
	case book.TotalCopies < 1:
		return fmt.Errorf("%w: at least one copy is required", ErrInvalidBook)
	case book.PublicationYear < 0:
		return fmt.Errorf("%w: publication year cannot be negative", ErrInvalidBook)
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// GetOrCreateCategory looks a category up by name and creates it when missing.
func (r *Repository) GetOrCreateCategory(ctx context.Context, name string) (*entities.Category, error) {
	var category entities.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = entities.Category{Name: name}
		if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
			return nil, err
		}
		return &category, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CountBooks returns the number of titles in the catalog.
func (r *Repository) CountBooks(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}
