// Package profiles provides database operations for library members.
package profiles

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/entities"
)

// Repository handles profile reads and writes that are not tied to authentication.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProfileByID retrieves a profile by ID.
func (r *Repository) GetProfileByID(ctx context.Context, id uint) (*entities.Profile, error) {
	var profile entities.Profile
	err := r.db.WithContext(ctx).First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileByEmail retrieves a profile by email, ignoring case.
func (r *Repository) GetProfileByEmail(ctx context.Context, email string) (*entities.Profile, error) {
	var profile entities.Profile
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProfiles returns every profile ordered by last then first name.
func (r *Repository) ListProfiles(ctx context.Context) ([]entities.Profile, error) {
	var profiles []entities.Profile
	err := r.db.WithContext(ctx).Order("last_name ASC, first_name ASC, email ASC").Find(&profiles).Error
	return profiles, err
}

// CreateProfile inserts a profile as-is. Callers are responsible for credentials.
func (r *Repository) CreateProfile(ctx context.Context, profile *entities.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// SetAccountStatus changes a member's account status.
func (r *Repository) SetAccountStatus(ctx context.Context, id uint, status entities.AccountStatus) error {
	result := r.db.WithContext(ctx).Model(&entities.Profile{}).Where("id = ?", id).Update("account_status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
