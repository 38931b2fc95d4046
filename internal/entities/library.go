package entities

import (
	"time"
)

type LoanStatus string

const (
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
)

// IsOpen reports whether a loan in this status still holds a copy.
func (s LoanStatus) IsOpen() bool {
	return s == LoanStatusActive || s == LoanStatusOverdue
}

type ProfileRole string

const (
	ProfileRoleAdmin  ProfileRole = "admin"
	ProfileRoleMember ProfileRole = "member"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusClosed    AccountStatus = "closed"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ISBN            string    `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	Title           string    `gorm:"index;size:512;not null" json:"title"`
	Author          string    `gorm:"index;size:256;not null" json:"author"`
	CategoryID      *uint     `gorm:"index" json:"category_id,omitempty"`
	Category        *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	PublicationYear int       `json:"publication_year,omitempty"`
	CoverImageURL   string    `gorm:"size:2048" json:"cover_image_url,omitempty"`
	TotalCopies     int       `gorm:"not null;default:1;check:total_copies >= 0" json:"total_copies"`
	AvailableCopies int       `gorm:"not null;default:1;check:available_copies >= 0" json:"available_copies"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsAvailable reports whether at least one copy can be borrowed.
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// CategoryName returns the category label or an empty string for uncategorised books.
func (b *Book) CategoryName() string {
	if b.Category == nil {
		return ""
	}
	return b.Category.Name
}

type Profile struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	Email         string        `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FirstName     string        `gorm:"size:100" json:"first_name"`
	LastName      string        `gorm:"size:100" json:"last_name"`
	LibraryCardID string        `gorm:"uniqueIndex;size:32" json:"library_card_id"`
	Role          ProfileRole   `gorm:"size:20;not null;default:'member'" json:"role"`
	AccountStatus AccountStatus `gorm:"size:20;not null;default:'active'" json:"account_status"`
	TotalFines    float64       `gorm:"not null;default:0" json:"total_fines"`

	PasswordHash     string     `gorm:"size:255" json:"-"`
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins the name fields, falling back to the email address.
func (p *Profile) FullName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.LastName != "":
		return p.LastName
	default:
		return p.Email
	}
}

func (p *Profile) IsAdmin() bool {
	return p.Role == ProfileRoleAdmin
}

type Loan struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	IssueDate  time.Time  `gorm:"index;not null" json:"issue_date"`
	DueDate    time.Time  `gorm:"index;not null" json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Status     LoanStatus `gorm:"index;size:20;not null;default:'active'" json:"status"`
	FineAmount *float64   `json:"fine_amount,omitempty"`
	Notes      string     `gorm:"size:500" json:"notes,omitempty"`

	Book    *Book    `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

// DaysUntilDue rounds the remaining time up to whole days; zero or negative means overdue.
func (l *Loan) DaysUntilDue(now time.Time) int {
	remaining := l.DueDate.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

func (Category) TableName() string {
	return "categories"
}

func (Book) TableName() string {
	return "books"
}

func (Profile) TableName() string {
	return "profiles"
}

func (Loan) TableName() string {
	return "loans"
}
