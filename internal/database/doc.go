// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, category seeding
//	├── books/           # Catalog reads, book and category inserts
//	├── loans/           # Borrow and return transactions, overdue sweep
//	├── profiles/        # Member profiles and credentials state
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./library.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	loansRepo := loans.NewRepository(db.DB, fines.DefaultRules())
//
//	result, err := loansRepo.Borrow(ctx, entities.BorrowRequest{BookID: 1, UserID: 2, DueDate: due})
//
// # Transactions
//
// Borrow and Return each run in a single gorm transaction. The connection string from DSN
// opens write transactions with BEGIN IMMEDIATE so two members racing for the last copy are
// serialised by SQLite; the loser sees zero affected rows and gets a "No copies available"
// result rather than an error.
package database
