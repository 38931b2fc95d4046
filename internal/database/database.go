package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/libraryhub/internal/entities"
)

var defaultCategories = []entities.Category{
	{Name: "Fiction", Description: "Novels and short stories"},
	{Name: "Non-Fiction", Description: "Biography, history and essays"},
	{Name: "Science", Description: "Natural and applied sciences"},
	{Name: "Technology", Description: "Computing and engineering"},
	{Name: "Children", Description: "Picture books and early readers"},
	{Name: "Reference", Description: "Dictionaries, atlases and encyclopaedias"},
}

// Models lists every table owned by the application, in migration order.
func Models() []any {
	return []any{
		&entities.Category{},
		&entities.Book{},
		&entities.Profile{},
		&entities.Loan{},
		&entities.AuditEvent{},
	}
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the SQLite file at dbPath, migrates the schema and seeds default categories.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(dbPath, logger.Warn)
}

// Open is NewDatabase with an explicit gorm log level. Tests pass logger.Silent.
func Open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(DSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.seedCategories(); err != nil {
		return nil, fmt.Errorf("failed to seed categories: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return database, nil
}

// DSN adds the connection options the circulation transactions rely on.
// Write transactions take the lock up front so concurrent borrows queue on the busy timeout
// instead of failing on lock upgrade.
func DSN(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is still usable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *Database) seedCategories() error {
	for _, category := range defaultCategories {
		var existing entities.Category
		err := d.DB.Where("name = ?", category.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := d.DB.Create(&category).Error; err != nil {
				return fmt.Errorf("failed to create category %s: %w", category.Name, err)
			}
			log.Printf("Created category: %s", category.Name)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
