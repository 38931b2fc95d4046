package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/libraryhub/internal/config"
	"github.com/mrlokans/libraryhub/internal/database/profiles"
	"github.com/mrlokans/libraryhub/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrProfileExists    = errors.New("an account with this email already exists")
	ErrInvalidRole      = errors.New("invalid role")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrNameTooLong      = errors.New("name must be at most 100 characters")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrAccountClosed    = errors.New("account is closed")
)

// Registration is the input for creating a profile with password credentials.
type Registration struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

func (r Registration) normalized() Registration {
	return Registration{
		Email:     strings.ToLower(strings.TrimSpace(r.Email)),
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Password:  r.Password,
	}
}

// Service handles credentials and profile identity.
type Service struct {
	db       *gorm.DB
	profiles *profiles.Repository
	config   config.Auth
	now      func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:       db,
		profiles: profiles.NewRepository(db),
		config:   cfg,
		now:      time.Now,
	}
}

// Register creates a member profile.
func (s *Service) Register(ctx context.Context, reg Registration) (*entities.Profile, error) {
	return s.CreateProfile(ctx, reg, entities.ProfileRoleMember)
}

// CreateProfile validates the registration, hashes the password and stores a new
// active profile with a fresh library card.
func (s *Service) CreateProfile(ctx context.Context, reg Registration, role entities.ProfileRole) (*entities.Profile, error) {
	reg = reg.normalized()

	if reg.Email == "" {
		return nil, ErrEmailRequired
	}
	if reg.Password == "" {
		return nil, ErrPasswordRequired
	}
	// RFC 5321 limit is 254
	if len(reg.Email) > 254 || !emailPattern.MatchString(reg.Email) {
		return nil, ErrEmailInvalid
	}
	if len(reg.FirstName) > 100 || len(reg.LastName) > 100 {
		return nil, ErrNameTooLong
	}

	switch role {
	case entities.ProfileRoleAdmin, entities.ProfileRoleMember:
	default:
		return nil, ErrInvalidRole
	}

	_, err := s.profiles.GetProfileByEmail(ctx, reg.Email)
	if err == nil {
		return nil, ErrProfileExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}

	passwordHash, err := HashPassword(reg.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &entities.Profile{
		Email:         reg.Email,
		FirstName:     reg.FirstName,
		LastName:      reg.LastName,
		LibraryCardID: NewLibraryCardID(),
		Role:          role,
		AccountStatus: entities.AccountStatusActive,
		PasswordHash:  passwordHash,
	}

	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// Authenticate validates credentials and returns the profile.
// Implements account lockout after too many failed attempts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.Profile, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	now := s.now()
	if profile.LockedUntil != nil && now.Before(*profile.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, profile.PasswordHash); err != nil {
		s.recordFailedLogin(ctx, profile)
		return nil, err
	}

	if profile.AccountStatus == entities.AccountStatusClosed {
		return nil, ErrAccountClosed
	}

	s.db.WithContext(ctx).Model(profile).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	profile.LastLoginAt = &now
	profile.FailedLoginCount = 0
	profile.LockedUntil = nil

	return profile, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(ctx context.Context, profile *entities.Profile) {
	profile.FailedLoginCount++

	updates := map[string]any{
		"failed_login_count": profile.FailedLoginCount,
	}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if profile.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		updates["locked_until"] = s.now().Add(lockoutDuration)
	}

	s.db.WithContext(ctx).Model(profile).Updates(updates)
}

// GetProfileByID retrieves a profile by ID.
func (s *Service) GetProfileByID(ctx context.Context, id uint) (*entities.Profile, error) {
	profile, err := s.profiles.GetProfileByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

// ChangePassword updates a profile's password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, id uint, oldPassword, newPassword string) error {
	profile, err := s.GetProfileByID(ctx, id)
	if err != nil {
		return err
	}

	if err := CheckPassword(oldPassword, profile.PasswordHash); err != nil {
		return err
	}

	newHash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(profile).Update("password_hash", newHash).Error
}

// HasUsers returns true if any profiles exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entities.Profile{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasAdmins returns true once the first administrator has been created.
func (s *Service) HasAdmins(ctx context.Context) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entities.Profile{}).
		Where("role = ?", entities.ProfileRoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
